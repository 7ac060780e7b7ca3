package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

const collectionDatasets = "datasets"

// datasetDocument is the stored shape: the domain record plus name_key, the
// case-folded name that carries the unique index.
type datasetDocument struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	NameKey     string    `bson:"name_key"`
	Description string    `bson:"description,omitempty"`
	Category    string    `bson:"category,omitempty"`
	Data        []string  `bson:"data"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
	CreatedBy   string    `bson:"created_by"`
}

func newDatasetDocument(d *domain.Dataset) datasetDocument {
	return datasetDocument{
		ID:          d.ID,
		Name:        d.Name,
		NameKey:     d.NameKey(),
		Description: d.Description,
		Category:    d.Category,
		Data:        d.Data,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		CreatedBy:   d.CreatedBy,
	}
}

func (doc datasetDocument) toDomain() *domain.Dataset {
	data := doc.Data
	if data == nil {
		data = []string{}
	}
	return &domain.Dataset{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Category:    doc.Category,
		Data:        data,
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
		CreatedBy:   doc.CreatedBy,
	}
}

// DatasetRepository implements ports.DatasetStore on a MongoDB collection.
type DatasetRepository struct {
	col *mongo.Collection
}

func NewDatasetRepository(db *mongo.Database) *DatasetRepository {
	return &DatasetRepository{col: db.Collection(collectionDatasets)}
}

func (r *DatasetRepository) Backend() string { return "mongo" }

func (r *DatasetRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.col.Database().Client().Ping(ctx, nil)
}

// Create inserts a new dataset document.
func (r *DatasetRepository) Create(ctx context.Context, d *domain.Dataset) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, newDatasetDocument(d))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("insert dataset: %w", err)
	}
	return nil
}

func (r *DatasetRepository) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc datasetDocument
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("find dataset: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns one page ordered by created_at desc, _id desc and the total
// number of matching documents.
func (r *DatasetRepository) List(ctx context.Context, f ports.ListDatasetsFilter) ([]*domain.Dataset, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := buildListFilter(f)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count datasets: %w", err)
	}

	opts := options.Find().
		SetSort(listSort).
		SetSkip(int64(f.Skip())).
		SetLimit(int64(f.Limit))

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find datasets: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]*domain.Dataset, 0, f.Limit)
	for cursor.Next(ctx) {
		var doc datasetDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode dataset: %w", err)
		}
		items = append(items, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate datasets: %w", err)
	}
	return items, total, nil
}

func (r *DatasetRepository) ListPublic(ctx context.Context) (map[string]domain.PublicDataset, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"name": 1, "name_key": 1, "description": 1, "data": 1})
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find datasets: %w", err)
	}
	defer cursor.Close(ctx)

	out := make(map[string]domain.PublicDataset)
	for cursor.Next(ctx) {
		var doc datasetDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode dataset: %w", err)
		}
		key := doc.NameKey
		if key == "" {
			key = domain.NameKey(doc.Name)
		}
		data := doc.Data
		if data == nil {
			data = []string{}
		}
		out[key] = domain.PublicDataset{Description: doc.Description, Data: data}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	return out, nil
}

func (r *DatasetRepository) Categories(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	values, err := r.col.Distinct(ctx, "category", bson.M{"category": bson.M{"$nin": bson.A{nil, ""}}})
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Update applies the supplied fields with $set and returns the updated document.
func (r *DatasetRepository) Update(ctx context.Context, id string, patch domain.DatasetPatch) (*domain.Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc datasetDocument
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, buildUpdate(patch), opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, domain.ErrDatasetNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, domain.ErrDuplicateName
		}
		return nil, fmt.Errorf("update dataset: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *DatasetRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrDatasetNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes the store relies on. name_key is unique
// so concurrent creates with names differing only in case race safely.
func (r *DatasetRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("name_key_unique"),
		},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}},
		{Keys: listSort},
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

var listSort = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// buildListFilter translates a list filter into a query document. Search
// text is escaped so it always matches literally.
func buildListFilter(f ports.ListDatasetsFilter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"description": re},
		}
	}
	return filter
}

func buildUpdate(p domain.DatasetPatch) bson.M {
	set := bson.M{"updated_at": p.UpdatedAt}
	if p.Name != nil {
		set["name"] = *p.Name
		set["name_key"] = domain.NameKey(*p.Name)
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Data != nil {
		set["data"] = *p.Data
	}
	return bson.M{"$set": set}
}
