package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"gingallery/database"
	"gingallery/models"
	"gingallery/utils"
)

// UserController serves the account endpoints. Talks to the users collection
// directly; there is no service layer behind these three handlers.
type UserController struct {
	users     *mongo.Collection
	validate  *validator.Validate
	jwtSecret string
}

func NewUserController(db *mongo.Database, jwtSecret string) *UserController {
	return &UserController{
		users:     db.Collection(database.UsersCollection),
		validate:  validator.New(),
		jwtSecret: jwtSecret,
	}
}

// Register handles POST /auth/register.
func (uc *UserController) Register(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := uc.validate.Struct(user); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", err)
		return
	}

	hashed, err := utils.HashPassword(user.Password)
	if err != nil {
		log.Error().Err(err).Msg("password hash failed")
		respondError(c, http.StatusInternalServerError, "Error hashing password", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	count, err := uc.users.CountDocuments(ctx, bson.M{"email": user.Email})
	if err != nil {
		log.Error().Err(err).Msg("user lookup failed")
		respondError(c, http.StatusInternalServerError, "Error checking existing user", err)
		return
	}
	if count > 0 {
		respondError(c, http.StatusBadRequest, "User already exists", nil)
		return
	}

	now := time.Now().UTC()
	user.Password = hashed
	user.Role = "user"
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := uc.users.InsertOne(ctx, user); err != nil {
		log.Error().Err(err).Msg("user insert failed")
		respondError(c, http.StatusInternalServerError, "Error creating user", err)
		return
	}

	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Message: "User registered successfully",
		Data:    models.UserResponse{Name: user.Name, Email: user.Email, Role: user.Role},
	})
}

// Login handles POST /auth/login.
func (uc *UserController) Login(c *gin.Context) {
	var login models.UserLogin
	if err := c.ShouldBindJSON(&login); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if err := uc.validate.Struct(login); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	var user models.User
	err := uc.users.FindOne(ctx, bson.M{"email": login.Email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respondError(c, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("user lookup failed")
		respondError(c, http.StatusInternalServerError, "Error looking up user", err)
		return
	}

	if err := utils.ComparePassword(login.Password, user.Password); err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}

	token, err := utils.SignedToken(uc.jwtSecret, user.Email, user.Name, user.Role)
	if err != nil {
		log.Error().Err(err).Msg("token signing failed")
		respondError(c, http.StatusInternalServerError, "Error signing token", err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Login successful",
		Data:    models.UserResponse{Name: user.Name, Email: user.Email, Role: user.Role, Token: token},
	})
}

// Me handles GET /auth/me, behind the JWT middleware.
func (uc *UserController) Me(c *gin.Context) {
	email := c.GetString("email")

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	var user models.User
	err := uc.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respondError(c, http.StatusNotFound, "User not found", nil)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("user lookup failed")
		respondError(c, http.StatusInternalServerError, "Error looking up user", err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "User retrieved successfully",
		Data:    models.UserResponse{Name: user.Name, Email: user.Email, Role: user.Role},
	})
}
