package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gingallery/models"
	"gingallery/repository"
	"gingallery/service"
	"gingallery/storage"
)

const (
	handlerTimeout = 10 * time.Second
	defaultLimit   = 12
	maxLimit       = 100
)

// GalleryService is the surface the image handlers delegate to.
type GalleryService interface {
	Create(ctx context.Context, in service.CreateInput) (*models.Image, error)
	Get(ctx context.Context, id string) (*models.Image, error)
	List(ctx context.Context, p service.ListParams) ([]models.Image, *models.Pagination, error)
	Update(ctx context.Context, id string, in service.UpdateInput) (*models.Image, error)
	Delete(ctx context.Context, id string) (bool, error)
	AssetInfo(ctx context.Context, id string) (*storage.AssetInfo, error)
	Stats(ctx context.Context) (*models.GalleryStats, error)
	Tags(ctx context.Context) ([]string, error)
	Sync(ctx context.Context) (*service.SyncReport, error)
}

// ImageController validates requests, delegates to the gallery service and
// maps results onto the response envelope.
type ImageController struct {
	svc            GalleryService
	maxUploadBytes int64
}

func NewImageController(svc GalleryService, maxUploadBytes int64) *ImageController {
	return &ImageController{svc: svc, maxUploadBytes: maxUploadBytes}
}

// ListImages handles GET /images, both plain listing and text search.
func (ic *ImageController) ListImages(c *gin.Context) {
	params, msg := parseListParams(c)
	if msg != "" {
		respondError(c, http.StatusBadRequest, msg, nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	images, pagination, err := ic.svc.List(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("list images failed")
		respondError(c, http.StatusInternalServerError, "Error getting images", err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success:    true,
		Message:    "Images retrieved successfully",
		Data:       images,
		Pagination: pagination,
	})
}

// UploadImage handles POST /images/upload (multipart form).
func (ic *ImageController) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No image file provided", nil)
		return
	}
	if msg := ic.checkFile(file); msg != "" {
		respondError(c, http.StatusBadRequest, msg, nil)
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		respondError(c, http.StatusBadRequest, "Title is required", nil)
		return
	}

	isPublic := true
	if raw := c.PostForm("isPublic"); raw != "" {
		isPublic, err = strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid isPublic value", nil)
			return
		}
	}

	data, err := readFile(file)
	if err != nil {
		log.Error().Err(err).Msg("failed to read upload")
		respondError(c, http.StatusInternalServerError, "Error reading uploaded file", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	created, err := ic.svc.Create(ctx, service.CreateInput{
		Data:        data,
		ContentType: file.Header.Get("Content-Type"),
		Title:       title,
		Description: strings.TrimSpace(c.PostForm("description")),
		Tags:        splitTags(c.PostForm("tags")),
		IsPublic:    isPublic,
	})
	if err != nil {
		log.Error().Err(err).Msg("create image failed")
		respondError(c, http.StatusInternalServerError, "Error uploading image", err)
		return
	}

	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Message: "Image uploaded successfully",
		Data:    created,
	})
}

// GetImage handles GET /images/:id.
func (ic *ImageController) GetImage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	img, err := ic.svc.Get(ctx, c.Param("id"))
	if err != nil {
		ic.respondServiceError(c, err, "Error getting image")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Image retrieved successfully",
		Data:    img,
	})
}

// UpdateImage handles PUT /images/:id (multipart form, every field optional).
func (ic *ImageController) UpdateImage(c *gin.Context) {
	in := service.UpdateInput{}

	if file, err := c.FormFile("file"); err == nil {
		if msg := ic.checkFile(file); msg != "" {
			respondError(c, http.StatusBadRequest, msg, nil)
			return
		}
		data, err := readFile(file)
		if err != nil {
			log.Error().Err(err).Msg("failed to read upload")
			respondError(c, http.StatusInternalServerError, "Error reading uploaded file", err)
			return
		}
		in.Data = data
		in.ContentType = file.Header.Get("Content-Type")
	}

	if title, ok := c.GetPostForm("title"); ok {
		title = strings.TrimSpace(title)
		if title == "" {
			respondError(c, http.StatusBadRequest, "Title cannot be empty", nil)
			return
		}
		in.Title = &title
	}
	if description, ok := c.GetPostForm("description"); ok {
		description = strings.TrimSpace(description)
		in.Description = &description
	}
	if tags, ok := c.GetPostForm("tags"); ok {
		in.Tags = splitTags(tags)
		in.TagsSet = true
	}
	if raw, ok := c.GetPostForm("isPublic"); ok {
		isPublic, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid isPublic value", nil)
			return
		}
		in.IsPublic = &isPublic
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	updated, err := ic.svc.Update(ctx, c.Param("id"), in)
	if err != nil {
		ic.respondServiceError(c, err, "Error updating image")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Image updated successfully",
		Data:    updated,
	})
}

// DeleteImage handles DELETE /images/:id.
func (ic *ImageController) DeleteImage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	deleted, err := ic.svc.Delete(ctx, c.Param("id"))
	if err != nil {
		ic.respondServiceError(c, err, "Error deleting image")
		return
	}
	if !deleted {
		respondError(c, http.StatusNotFound, "Image not found", nil)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Image deleted successfully",
	})
}

// GetImageAsset handles GET /images/:id/asset, reporting the media store's
// own metadata for the record's asset.
func (ic *ImageController) GetImageAsset(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	info, err := ic.svc.AssetInfo(ctx, c.Param("id"))
	if err != nil {
		ic.respondServiceError(c, err, "Error getting asset metadata")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Asset metadata retrieved successfully",
		Data:    info,
	})
}

// GetTags handles GET /tags.
func (ic *ImageController) GetTags(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	tags, err := ic.svc.Tags(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list tags failed")
		respondError(c, http.StatusInternalServerError, "Error getting tags", err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Tags retrieved successfully",
		Data:    tags,
	})
}

// GetStats handles GET /gallery/stats.
func (ic *ImageController) GetStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	stats, err := ic.svc.Stats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("gallery stats failed")
		respondError(c, http.StatusInternalServerError, "Error getting gallery stats", err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: "Gallery stats retrieved successfully",
		Data:    stats,
	})
}

// SyncGallery handles GET /gallery/sync.
func (ic *ImageController) SyncGallery(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), handlerTimeout)
	defer cancel()

	report, err := ic.svc.Sync(ctx)
	if err != nil {
		log.Error().Err(err).Msg("gallery sync check failed")
		respondError(c, http.StatusInternalServerError, "Error checking gallery sync", err)
		return
	}

	message := "Gallery is in sync"
	if !report.InSync {
		message = "Gallery is out of sync"
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Message: message,
		Data:    report,
	})
}

func (ic *ImageController) checkFile(file *multipart.FileHeader) string {
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return "Only image files are allowed"
	}
	if file.Size > ic.maxUploadBytes {
		return fmt.Sprintf("File too large, maximum is %d bytes", ic.maxUploadBytes)
	}
	return ""
}

func (ic *ImageController) respondServiceError(c *gin.Context, err error, message string) {
	if errors.Is(err, repository.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Image not found", nil)
		return
	}
	log.Error().Err(err).Msg(message)
	respondError(c, http.StatusInternalServerError, message, err)
}

func parseListParams(c *gin.Context) (service.ListParams, string) {
	var params service.ListParams

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return params, "Invalid page number"
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxLimit {
		return params, fmt.Sprintf("Invalid limit, must be between 1 and %d", maxLimit)
	}

	sortBy := c.DefaultQuery("sortBy", "createdAt")
	if _, ok := repository.SortField(sortBy); !ok {
		return params, "Invalid sortBy field"
	}

	var desc bool
	switch c.DefaultQuery("sortOrder", "desc") {
	case "asc":
		desc = false
	case "desc":
		desc = true
	default:
		return params, "Invalid sortOrder, must be asc or desc"
	}

	var isPublic *bool
	if raw := c.Query("isPublic"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return params, "Invalid isPublic value"
		}
		isPublic = &v
	}

	return service.ListParams{
		Page:     page,
		Limit:    limit,
		SortBy:   sortBy,
		Desc:     desc,
		Tags:     splitTags(c.Query("tags")),
		IsPublic: isPublic,
		Search:   strings.TrimSpace(c.Query("search")),
	}, ""
}

func respondError(c *gin.Context, status int, message string, err error) {
	resp := models.APIResponse{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(status, resp)
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func readFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
