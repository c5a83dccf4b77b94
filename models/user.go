package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID        bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string        `json:"name,omitempty" bson:"name" validate:"required"`
	Email     string        `json:"email,omitempty" bson:"email" validate:"required,email"`
	Password  string        `json:"password,omitempty" bson:"password,omitempty" validate:"required,min=6,max=64"`
	Role      string        `json:"role,omitempty" bson:"role"`
	CreatedAt time.Time     `json:"createdAt,omitempty" bson:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt,omitempty" bson:"updated_at"`
}

type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token,omitempty"`
}
