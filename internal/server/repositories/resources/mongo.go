package resources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "resources"

type resourceDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	Description   string             `bson:"description"`
	Type          string             `bson:"type"`
	URL           string             `bson:"url"`
	CreatedBy     string             `bson:"createdBy"`
	AttachmentKey string             `bson:"attachmentKey,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d *resourceDoc) model() *models.Resource {
	return &models.Resource{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Description:   d.Description,
		Type:          models.ResourceType(d.Type),
		URL:           d.URL,
		CreatedBy:     d.CreatedBy,
		AttachmentKey: d.AttachmentKey,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type MongoRepository struct {
	c   *mongo.Collection
	now func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{c: db.Collection(CollectionName), now: time.Now}
}

// EnsureIndexes creates the createdAt index used by the newest-first listings.
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("created_at_desc"),
	})
	if err != nil {
		return fmt.Errorf("create resources index: %w", err)
	}
	return nil
}

func (m *MongoRepository) Create(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	now := m.now().UTC()
	doc := &resourceDoc{
		Title:       r.Title,
		Description: r.Description,
		Type:        string(r.Type),
		URL:         r.URL,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	res, err := m.c.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.model(), nil
}

func (m *MongoRepository) Get(ctx context.Context, id string) (*models.Resource, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}

	doc := &resourceDoc{}
	if err := m.c.FindOne(ctx, bson.M{"_id": oid}).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.model(), nil
}

func (m *MongoRepository) Update(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	oid, err := primitive.ObjectIDFromHex(r.ID)
	if err != nil {
		return nil, common.ErrorNotFound
	}

	doc := &resourceDoc{}
	err = m.c.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"title":       r.Title,
			"description": r.Description,
			"type":        string(r.Type),
			"url":         r.URL,
			"updatedAt":   m.now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.model(), nil
}

func (m *MongoRepository) SetAttachmentKey(ctx context.Context, id, key string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrorNotFound
	}

	res, err := m.c.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"attachmentKey": key, "updatedAt": m.now().UTC()}})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (m *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrorNotFound
	}

	res, err := m.c.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (m *MongoRepository) List(ctx context.Context) ([]*models.Resource, error) {
	return m.find(ctx, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
}

func (m *MongoRepository) Recent(ctx context.Context, limit int) ([]*models.Resource, error) {
	return m.find(ctx, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit)))
}

func (m *MongoRepository) find(ctx context.Context, opts *options.FindOptions) ([]*models.Resource, error) {
	cur, err := m.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	out := []*models.Resource{}
	for cur.Next(ctx) {
		doc := &resourceDoc{}
		if err := cur.Decode(doc); err != nil {
			return nil, fmt.Errorf("decode resource: %w", err)
		}
		out = append(out, doc.model())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (m *MongoRepository) Count(ctx context.Context) (int64, error) {
	n, err := m.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (m *MongoRepository) CountByType(ctx context.Context) ([]models.TypeCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$type", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cur, err := m.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.TypeCount{}
	for cur.Next(ctx) {
		var row struct {
			Type  string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode type count: %w", err)
		}
		out = append(out, models.TypeCount{Type: models.ResourceType(row.Type), Count: row.Count})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
