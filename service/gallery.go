package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"gingallery/models"
	"gingallery/repository"
	"gingallery/storage"
)

// ImageRepository is the record store surface the gallery composes over.
type ImageRepository interface {
	Insert(ctx context.Context, img *models.Image) (*models.Image, error)
	FindByID(ctx context.Context, id string) (*models.Image, error)
	Find(ctx context.Context, f repository.ListFilter, sortField string, desc bool, page, limit int) ([]models.Image, int64, error)
	Update(ctx context.Context, id string, patch repository.UpdatePatch) (*models.Image, error)
	Delete(ctx context.Context, id string) (bool, error)
	DistinctTags(ctx context.Context) ([]string, error)
	AssetIDs(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*models.GalleryStats, error)
}

// MediaStore is the binary asset host surface.
type MediaStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (*storage.UploadResult, error)
	Replace(ctx context.Context, assetID string, data []byte, contentType string) (*storage.UploadResult, error)
	Delete(ctx context.Context, assetID string) error
	Metadata(ctx context.Context, assetID string) (*storage.AssetInfo, error)
	List(ctx context.Context, max int32) ([]string, error)
	SignedURL(ctx context.Context, assetID string) (string, error)
}

// Gallery orchestrates the two stores into the higher-level operations the
// HTTP layer exposes. It holds no cross-request state.
type Gallery struct {
	repo  ImageRepository
	media MediaStore

	// syncCap bounds the media-side listing during reconciliation. Assets
	// beyond the cap are invisible to the comparison.
	syncCap int32
}

func NewGallery(repo ImageRepository, media MediaStore, syncCap int32) *Gallery {
	return &Gallery{repo: repo, media: media, syncCap: syncCap}
}

// CreateInput is a validated upload request.
type CreateInput struct {
	Data        []byte
	ContentType string
	Title       string
	Description string
	Tags        []string
	IsPublic    bool
}

// Create uploads the binary first, then inserts the record. A failed insert
// triggers a compensating asset delete so a mid-failure leaves no record
// pointing nowhere; the reverse orphan (asset without record) is possible
// and left to reconciliation.
func (g *Gallery) Create(ctx context.Context, in CreateInput) (*models.Image, error) {
	uploaded, err := g.media.Upload(ctx, in.Data, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload asset: %w", err)
	}

	now := nowUTC()
	img := &models.Image{
		AssetID:     uploaded.AssetID,
		AssetURL:    uploaded.URL,
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
		Format:      uploaded.Format,
		Width:       uploaded.Width,
		Height:      uploaded.Height,
		ByteSize:    uploaded.ByteSize,
		IsPublic:    in.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if img.Tags == nil {
		img.Tags = []string{}
	}

	created, err := g.repo.Insert(ctx, img)
	if err != nil {
		if delErr := g.media.Delete(ctx, uploaded.AssetID); delErr != nil {
			log.Error().Err(delErr).Str("asset_id", uploaded.AssetID).
				Msg("failed to clean up asset after insert failure")
		}
		return nil, fmt.Errorf("insert record: %w", err)
	}

	g.attachSignedURL(ctx, created)
	return created, nil
}

// Get fetches one record by its id.
func (g *Gallery) Get(ctx context.Context, id string) (*models.Image, error) {
	img, err := g.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	g.attachSignedURL(ctx, img)
	return img, nil
}

// ListParams are the already-validated listing/search parameters.
type ListParams struct {
	Page     int
	Limit    int
	SortBy   string
	Desc     bool
	Tags     []string
	IsPublic *bool
	Search   string
}

// List returns one page of records plus the pagination metadata.
func (g *Gallery) List(ctx context.Context, p ListParams) ([]models.Image, *models.Pagination, error) {
	sortField, ok := repository.SortField(p.SortBy)
	if !ok {
		sortField = "created_at"
	}

	filter := repository.ListFilter{
		Tags:     p.Tags,
		IsPublic: p.IsPublic,
		Search:   p.Search,
	}

	images, total, err := g.repo.Find(ctx, filter, sortField, p.Desc, p.Page, p.Limit)
	if err != nil {
		return nil, nil, err
	}

	for i := range images {
		g.attachSignedURL(ctx, &images[i])
	}

	pagination := models.NewPagination(p.Page, p.Limit, total)
	return images, &pagination, nil
}

// UpdateInput is a validated partial update. Nil fields stay untouched.
type UpdateInput struct {
	Data        []byte
	ContentType string
	Title       *string
	Description *string
	Tags        []string
	TagsSet     bool
	IsPublic    *bool
}

// Update optionally replaces the asset under the same asset id, then patches
// only the supplied fields. updated_at is always refreshed.
func (g *Gallery) Update(ctx context.Context, id string, in UpdateInput) (*models.Image, error) {
	existing, err := g.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := repository.UpdatePatch{
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
		TagsSet:     in.TagsSet,
		IsPublic:    in.IsPublic,
	}

	if len(in.Data) > 0 {
		replaced, err := g.media.Replace(ctx, existing.AssetID, in.Data, in.ContentType)
		if err != nil {
			return nil, fmt.Errorf("replace asset: %w", err)
		}
		patch.Asset = &repository.AssetPatch{
			URL:      replaced.URL,
			Format:   replaced.Format,
			Width:    replaced.Width,
			Height:   replaced.Height,
			ByteSize: replaced.ByteSize,
		}
	}

	updated, err := g.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	g.attachSignedURL(ctx, updated)
	return updated, nil
}

// Delete removes the asset first, then the record. A record delete failing
// after the asset delete succeeded leaves a database-only orphan that
// reconciliation will surface; no rollback is attempted.
func (g *Gallery) Delete(ctx context.Context, id string) (bool, error) {
	existing, err := g.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}

	if err := g.media.Delete(ctx, existing.AssetID); err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}

	return g.repo.Delete(ctx, id)
}

// AssetInfo resolves the record, then reports what the media store actually
// holds for its asset. A missing asset surfaces as a collaborator error, not
// NotFound; only an unknown record id is NotFound.
func (g *Gallery) AssetInfo(ctx context.Context, id string) (*storage.AssetInfo, error) {
	img, err := g.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	info, err := g.media.Metadata(ctx, img.AssetID)
	if err != nil {
		return nil, fmt.Errorf("fetch asset metadata: %w", err)
	}
	return info, nil
}

// Stats reports the collection-wide counters.
func (g *Gallery) Stats(ctx context.Context) (*models.GalleryStats, error) {
	return g.repo.Stats(ctx)
}

// Tags returns every distinct tag, sorted lexicographically.
func (g *Gallery) Tags(ctx context.Context) ([]string, error) {
	tags, err := g.repo.DistinctTags(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(tags)
	return tags, nil
}

func (g *Gallery) attachSignedURL(ctx context.Context, img *models.Image) {
	url, err := g.media.SignedURL(ctx, img.AssetID)
	if err != nil {
		// The stored URL still works for public buckets; log and move on.
		log.Warn().Err(err).Str("asset_id", img.AssetID).Msg("failed to presign asset url")
		return
	}
	img.SignedURL = url
}
