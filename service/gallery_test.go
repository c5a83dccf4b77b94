package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gingallery/models"
	"gingallery/repository"
	"gingallery/storage"
)

type stubRepo struct {
	insertErr   error
	inserted    *models.Image
	findResult  *models.Image
	findErr     error
	updated     *models.Image
	updatePatch *repository.UpdatePatch
	deleted     bool
	deletedID   string
	tags        []string
	assetIDs    []string
	stats       *models.GalleryStats
}

func (s *stubRepo) Insert(_ context.Context, img *models.Image) (*models.Image, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	s.inserted = img
	return img, nil
}

func (s *stubRepo) FindByID(_ context.Context, id string) (*models.Image, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.findResult, nil
}

func (s *stubRepo) Find(_ context.Context, _ repository.ListFilter, _ string, _ bool, _, _ int) ([]models.Image, int64, error) {
	return nil, 0, nil
}

func (s *stubRepo) Update(_ context.Context, id string, patch repository.UpdatePatch) (*models.Image, error) {
	s.updatePatch = &patch
	return s.updated, nil
}

func (s *stubRepo) Delete(_ context.Context, id string) (bool, error) {
	s.deletedID = id
	return s.deleted, nil
}

func (s *stubRepo) DistinctTags(_ context.Context) ([]string, error) { return s.tags, nil }

func (s *stubRepo) AssetIDs(_ context.Context) ([]string, error) { return s.assetIDs, nil }

func (s *stubRepo) Stats(_ context.Context) (*models.GalleryStats, error) { return s.stats, nil }

type stubMedia struct {
	uploadResult  *storage.UploadResult
	uploadErr     error
	replaceResult *storage.UploadResult
	replacedID    string
	deletedIDs    []string
	deleteErr     error
	metadataInfo  *storage.AssetInfo
	metadataErr   error
	metadataID    string
	listed        []string
	listedMax     int32
}

func (s *stubMedia) Upload(_ context.Context, data []byte, contentType string) (*storage.UploadResult, error) {
	return s.uploadResult, s.uploadErr
}

func (s *stubMedia) Replace(_ context.Context, assetID string, data []byte, contentType string) (*storage.UploadResult, error) {
	s.replacedID = assetID
	return s.replaceResult, nil
}

func (s *stubMedia) Delete(_ context.Context, assetID string) error {
	s.deletedIDs = append(s.deletedIDs, assetID)
	return s.deleteErr
}

func (s *stubMedia) Metadata(_ context.Context, assetID string) (*storage.AssetInfo, error) {
	s.metadataID = assetID
	return s.metadataInfo, s.metadataErr
}

func (s *stubMedia) List(_ context.Context, max int32) ([]string, error) {
	s.listedMax = max
	return s.listed, nil
}

func (s *stubMedia) SignedURL(_ context.Context, assetID string) (string, error) {
	return "https://signed.example/" + assetID, nil
}

func TestCreateUploadsThenInserts(t *testing.T) {
	repo := &stubRepo{}
	media := &stubMedia{uploadResult: &storage.UploadResult{
		AssetID:  "gallery/abc.jpg",
		URL:      "https://bucket.s3.us-east-1.amazonaws.com/gallery/abc.jpg",
		Format:   "jpeg",
		Width:    640,
		Height:   480,
		ByteSize: 2048,
	}}
	g := NewGallery(repo, media, 500)

	created, err := g.Create(context.Background(), CreateInput{
		Data:        []byte("fake"),
		ContentType: "image/jpeg",
		Title:       "Sunset",
		Tags:        []string{"nature", "sky"},
		IsPublic:    true,
	})

	require.NoError(t, err)
	assert.Equal(t, "gallery/abc.jpg", created.AssetID)
	assert.Equal(t, "Sunset", created.Title)
	assert.Equal(t, []string{"nature", "sky"}, created.Tags)
	assert.Equal(t, "jpeg", created.Format)
	assert.Equal(t, 640, created.Width)
	assert.Equal(t, int64(2048), created.ByteSize)
	assert.True(t, created.IsPublic)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Empty(t, media.deletedIDs)
}

func TestCreateUploadFailureSkipsInsert(t *testing.T) {
	repo := &stubRepo{}
	media := &stubMedia{uploadErr: errors.New("bucket unavailable")}
	g := NewGallery(repo, media, 500)

	_, err := g.Create(context.Background(), CreateInput{Data: []byte("x"), Title: "t"})

	require.Error(t, err)
	assert.Nil(t, repo.inserted)
}

func TestCreateInsertFailureDeletesUploadedAsset(t *testing.T) {
	repo := &stubRepo{insertErr: errors.New("store unavailable")}
	media := &stubMedia{uploadResult: &storage.UploadResult{AssetID: "gallery/orphan.png"}}
	g := NewGallery(repo, media, 500)

	_, err := g.Create(context.Background(), CreateInput{Data: []byte("x"), Title: "t"})

	require.Error(t, err)
	assert.Equal(t, []string{"gallery/orphan.png"}, media.deletedIDs)
}

func TestUpdateWithoutFileLeavesAssetFieldsAlone(t *testing.T) {
	existing := &models.Image{AssetID: "gallery/keep.jpg"}
	repo := &stubRepo{findResult: existing, updated: existing}
	media := &stubMedia{}
	g := NewGallery(repo, media, 500)

	_, err := g.Update(context.Background(), "656e1f77a3b9c2d4e5f60718", UpdateInput{
		Tags:    []string{"city"},
		TagsSet: true,
	})

	require.NoError(t, err)
	require.NotNil(t, repo.updatePatch)
	assert.Nil(t, repo.updatePatch.Asset)
	assert.Empty(t, media.replacedID)
	assert.Equal(t, []string{"city"}, repo.updatePatch.Tags)
	assert.True(t, repo.updatePatch.TagsSet)
}

func TestUpdateWithFileReplacesUnderSameAssetID(t *testing.T) {
	existing := &models.Image{AssetID: "gallery/keep.jpg"}
	repo := &stubRepo{findResult: existing, updated: existing}
	media := &stubMedia{replaceResult: &storage.UploadResult{
		AssetID:  "gallery/keep.jpg",
		URL:      "https://bucket.s3.us-east-1.amazonaws.com/gallery/keep.jpg",
		Format:   "png",
		Width:    100,
		Height:   50,
		ByteSize: 999,
	}}
	g := NewGallery(repo, media, 500)

	_, err := g.Update(context.Background(), "656e1f77a3b9c2d4e5f60718", UpdateInput{
		Data:        []byte("newbytes"),
		ContentType: "image/png",
	})

	require.NoError(t, err)
	assert.Equal(t, "gallery/keep.jpg", media.replacedID)
	require.NotNil(t, repo.updatePatch.Asset)
	assert.Equal(t, "png", repo.updatePatch.Asset.Format)
	assert.Equal(t, int64(999), repo.updatePatch.Asset.ByteSize)
}

func TestUpdateMissingRecord(t *testing.T) {
	repo := &stubRepo{findErr: repository.ErrNotFound}
	g := NewGallery(repo, &stubMedia{}, 500)

	_, err := g.Update(context.Background(), "unknown", UpdateInput{})

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteRemovesAssetBeforeRecord(t *testing.T) {
	repo := &stubRepo{findResult: &models.Image{AssetID: "gallery/gone.jpg"}, deleted: true}
	media := &stubMedia{}
	g := NewGallery(repo, media, 500)

	ok, err := g.Delete(context.Background(), "656e1f77a3b9c2d4e5f60718")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"gallery/gone.jpg"}, media.deletedIDs)
	assert.Equal(t, "656e1f77a3b9c2d4e5f60718", repo.deletedID)
}

func TestDeleteAssetFailureKeepsRecord(t *testing.T) {
	repo := &stubRepo{findResult: &models.Image{AssetID: "gallery/stuck.jpg"}}
	media := &stubMedia{deleteErr: errors.New("denied")}
	g := NewGallery(repo, media, 500)

	_, err := g.Delete(context.Background(), "656e1f77a3b9c2d4e5f60718")

	require.Error(t, err)
	assert.Empty(t, repo.deletedID)
}

func TestAssetInfoResolvesRecordFirst(t *testing.T) {
	repo := &stubRepo{findResult: &models.Image{AssetID: "gallery/live.jpg"}}
	media := &stubMedia{metadataInfo: &storage.AssetInfo{
		AssetID:     "gallery/live.jpg",
		ContentType: "image/jpeg",
		ByteSize:    4096,
	}}
	g := NewGallery(repo, media, 500)

	info, err := g.AssetInfo(context.Background(), "656e1f77a3b9c2d4e5f60718")

	require.NoError(t, err)
	assert.Equal(t, "gallery/live.jpg", media.metadataID)
	assert.Equal(t, int64(4096), info.ByteSize)
}

func TestAssetInfoMissingRecord(t *testing.T) {
	repo := &stubRepo{findErr: repository.ErrNotFound}
	media := &stubMedia{}
	g := NewGallery(repo, media, 500)

	_, err := g.AssetInfo(context.Background(), "unknown")

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, media.metadataID)
}

func TestAssetInfoStorageFailure(t *testing.T) {
	repo := &stubRepo{findResult: &models.Image{AssetID: "gallery/gone.jpg"}}
	media := &stubMedia{metadataErr: errors.New("no such key")}
	g := NewGallery(repo, media, 500)

	_, err := g.AssetInfo(context.Background(), "656e1f77a3b9c2d4e5f60718")

	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrNotFound)
}

func TestTagsSorted(t *testing.T) {
	repo := &stubRepo{tags: []string{"sky", "architecture", "nature"}}
	g := NewGallery(repo, &stubMedia{}, 500)

	tags, err := g.Tags(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"architecture", "nature", "sky"}, tags)
}

func TestSyncUsesConfiguredCap(t *testing.T) {
	repo := &stubRepo{assetIDs: []string{"gallery/a", "gallery/b"}}
	media := &stubMedia{listed: []string{"gallery/b"}}
	g := NewGallery(repo, media, 250)

	report, err := g.Sync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(250), media.listedMax)
	assert.False(t, report.InSync)
	assert.Equal(t, 2, report.DatabaseCount)
	assert.Equal(t, 1, report.StorageCount)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, "asset gallery/a exists in database but not in storage", report.Discrepancies[0])
	assert.False(t, report.CheckedAt.IsZero())
}
