package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Image is one gallery entry: the binary lives in the media store under
// AssetID, everything else lives in MongoDB.
type Image struct {
	ID          bson.ObjectID `json:"id" bson:"_id,omitempty"`
	AssetID     string        `json:"assetId" bson:"asset_id"`
	AssetURL    string        `json:"assetUrl" bson:"asset_url"`
	Title       string        `json:"title" bson:"title"`
	Description string        `json:"description" bson:"description"`
	Tags        []string      `json:"tags" bson:"tags"`
	Format      string        `json:"format" bson:"format"`
	Width       int           `json:"width" bson:"width"`
	Height      int           `json:"height" bson:"height"`
	ByteSize    int64         `json:"byteSize" bson:"byte_size"`
	IsPublic    bool          `json:"isPublic" bson:"is_public"`
	CreatedAt   time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updated_at"`

	// SignedURL is a short-lived download URL attached on read paths.
	// Never persisted.
	SignedURL string `json:"signedUrl,omitempty" bson:"-"`
}

// GalleryStats aggregates byte and visibility counters over the whole
// collection. All zero when the collection is empty.
type GalleryStats struct {
	TotalImages   int64   `json:"totalImages"`
	PublicImages  int64   `json:"publicImages"`
	PrivateImages int64   `json:"privateImages"`
	TotalBytes    int64   `json:"totalBytes"`
	AverageBytes  float64 `json:"averageBytes"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPagination computes page metadata for total items split into pages of
// limit. totalPages = ceil(total/limit).
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{
		Page:        page,
		Limit:       limit,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}
