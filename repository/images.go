package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"gingallery/database"
	"gingallery/models"
)

// ErrNotFound covers both a malformed object id and a missing document.
var ErrNotFound = errors.New("image not found")

// ListFilter holds the optional predicates of a listing or search. The
// zero value matches everything.
type ListFilter struct {
	// Tags matches records carrying at least one of the given tags.
	Tags []string
	// IsPublic filters by visibility when set.
	IsPublic *bool
	// Search is a free-text query against the title+description text index.
	Search string
}

// ToBSON assembles the Mongo filter document.
func (f ListFilter) ToBSON() bson.M {
	filter := bson.M{}
	if len(f.Tags) > 0 {
		filter["tags"] = bson.M{"$in": f.Tags}
	}
	if f.IsPublic != nil {
		filter["is_public"] = *f.IsPublic
	}
	if f.Search != "" {
		filter["$text"] = bson.M{"$search": f.Search}
	}
	return filter
}

// AssetPatch carries the refreshed media metadata after an asset replace.
type AssetPatch struct {
	URL      string
	Format   string
	Width    int
	Height   int
	ByteSize int64
}

// UpdatePatch is an explicit partial update: nil fields are left untouched.
type UpdatePatch struct {
	Title       *string
	Description *string
	Tags        []string
	TagsSet     bool
	IsPublic    *bool
	Asset       *AssetPatch
}

// ToBSON assembles the $set document. updated_at is always refreshed.
func (p UpdatePatch) ToBSON(now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.TagsSet {
		set["tags"] = p.Tags
	}
	if p.IsPublic != nil {
		set["is_public"] = *p.IsPublic
	}
	if p.Asset != nil {
		set["asset_url"] = p.Asset.URL
		set["format"] = p.Asset.Format
		set["width"] = p.Asset.Width
		set["height"] = p.Asset.Height
		set["byte_size"] = p.Asset.ByteSize
	}
	return bson.M{"$set": set}
}

// sortFields maps the API sort keys onto document fields.
var sortFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
}

// SortField resolves an API sort key; unknown keys report false.
func SortField(key string) (string, bool) {
	f, ok := sortFields[key]
	return f, ok
}

// ImageRepository is the record store adapter over the images collection.
type ImageRepository struct {
	col *mongo.Collection
}

func NewImageRepository(db *mongo.Database) *ImageRepository {
	return &ImageRepository{col: db.Collection(database.ImagesCollection)}
}

func (r *ImageRepository) Insert(ctx context.Context, img *models.Image) (*models.Image, error) {
	res, err := r.col.InsertOne(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("insert image: %w", err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		img.ID = id
	}
	return img, nil
}

func (r *ImageRepository) FindByID(ctx context.Context, id string) (*models.Image, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var img models.Image
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&img)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find image %s: %w", id, err)
	}
	return &img, nil
}

// Find returns one page of records matching the filter plus the total match
// count. Text searches sort by the requested field first, relevance second.
func (r *ImageRepository) Find(ctx context.Context, f ListFilter, sortField string, desc bool, page, limit int) ([]models.Image, int64, error) {
	filter := f.ToBSON()

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count images: %w", err)
	}

	dir := 1
	if desc {
		dir = -1
	}
	sort := bson.D{{Key: sortField, Value: dir}}

	findOpts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	if f.Search != "" {
		sort = append(sort, bson.E{Key: "score", Value: bson.M{"$meta": "textScore"}})
		findOpts = findOpts.SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}})
	}
	findOpts = findOpts.SetSort(sort)

	cursor, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("find images: %w", err)
	}
	defer cursor.Close(ctx)

	images := make([]models.Image, 0, limit)
	if err := cursor.All(ctx, &images); err != nil {
		return nil, 0, fmt.Errorf("decode images: %w", err)
	}
	return images, total, nil
}

// Update applies the patch and returns the post-update document.
func (r *ImageRepository) Update(ctx context.Context, id string, patch UpdatePatch) (*models.Image, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var img models.Image
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, patch.ToBSON(time.Now().UTC()), opts).Decode(&img)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update image %s: %w", id, err)
	}
	return &img, nil
}

// Delete removes the record; reports true iff exactly one document went away.
func (r *ImageRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrNotFound
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("delete image %s: %w", id, err)
	}
	return res.DeletedCount == 1, nil
}

// DistinctTags returns every tag value in use, unordered.
func (r *ImageRepository) DistinctTags(ctx context.Context) ([]string, error) {
	var tags []string
	if err := r.col.Distinct(ctx, "tags", bson.M{}).Decode(&tags); err != nil {
		return nil, fmt.Errorf("distinct tags: %w", err)
	}
	return tags, nil
}

// AssetIDs loads only the asset_id of every record, for reconciliation.
func (r *ImageRepository) AssetIDs(ctx context.Context) ([]string, error) {
	findOpts := options.Find().SetProjection(bson.M{"asset_id": 1, "_id": 0})

	cursor, err := r.col.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list asset ids: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		AssetID string `bson:"asset_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode asset ids: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.AssetID)
	}
	return ids, nil
}

// Stats runs the aggregate over the whole collection.
func (r *ImageRepository) Stats(ctx context.Context) (*models.GalleryStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"total":      bson.M{"$sum": 1},
			"public":     bson.M{"$sum": bson.M{"$cond": bson.A{"$is_public", 1, 0}}},
			"totalBytes": bson.M{"$sum": "$byte_size"},
			"avgBytes":   bson.M{"$avg": "$byte_size"},
		}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total      int64   `bson:"total"`
		Public     int64   `bson:"public"`
		TotalBytes int64   `bson:"totalBytes"`
		AvgBytes   float64 `bson:"avgBytes"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}

	// Empty collection: $group emits nothing.
	if len(rows) == 0 {
		return &models.GalleryStats{}, nil
	}

	row := rows[0]
	return &models.GalleryStats{
		TotalImages:   row.Total,
		PublicImages:  row.Public,
		PrivateImages: row.Total - row.Public,
		TotalBytes:    row.TotalBytes,
		AverageBytes:  row.AvgBytes,
	}, nil
}
