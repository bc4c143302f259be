package users

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

// CollectionName is the MongoDB collection holding user documents.
const CollectionName = "users"

type userDoc struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	Email               string             `bson:"email"`
	Password            string             `bson:"password,omitempty"`
	Name                string             `bson:"name,omitempty"`
	GitHubUsername      string             `bson:"githubUsername,omitempty"`
	MicrosoftLearnEmail string             `bson:"microsoftLearnEmail,omitempty"`
	CompletedPages      []int              `bson:"completedPages"`
	LastViewedPage      int                `bson:"lastViewedPage"`
	CompletedResources  []string           `bson:"completedResources"`
	Version             int64              `bson:"version"`
	CreatedAt           time.Time          `bson:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt"`
}

func (d *userDoc) model() *models.User {
	u := &models.User{
		ID:                  d.ID.Hex(),
		Email:               d.Email,
		PasswordHash:        d.Password,
		Name:                d.Name,
		GitHubUsername:      d.GitHubUsername,
		MicrosoftLearnEmail: d.MicrosoftLearnEmail,
		CompletedPages:      d.CompletedPages,
		LastViewedPage:      d.LastViewedPage,
		CompletedResources:  d.CompletedResources,
		Version:             d.Version,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
	if u.CompletedPages == nil {
		u.CompletedPages = []int{}
	}
	if u.CompletedResources == nil {
		u.CompletedResources = []string{}
	}
	if u.LastViewedPage == 0 {
		u.LastViewedPage = models.DefaultLastViewedPage
	}
	return u
}

type MongoRepository struct {
	c   *mongo.Collection
	now func() time.Time
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{c: db.Collection(CollectionName), now: time.Now}
}

// EnsureIndexes creates the unique email index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	now := r.now().UTC()
	doc := &userDoc{
		Email:              u.Email,
		Password:           u.PasswordHash,
		Name:               u.Name,
		CompletedPages:     []int{},
		LastViewedPage:     u.LastViewedPage,
		CompletedResources: []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	res, err := r.c.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.model(), nil
}

func (r *MongoRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"password": 0}))
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.User, error) {
	doc := &userDoc{}
	if err := r.c.FindOne(ctx, filter, opts...).Decode(doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.model(), nil
}

// versionFilter matches documents written before the version field existed
// as version 0.
func versionFilter(v int64) any {
	if v == 0 {
		return bson.M{"$in": bson.A{0, nil}}
	}
	return v
}

func (r *MongoRepository) UpdateProgress(ctx context.Context, u *models.User) error {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return common.ErrorNotFound
	}

	now := r.now().UTC()
	filter := bson.M{"_id": oid, "version": versionFilter(u.Version)}
	update := bson.M{"$set": bson.M{
		"githubUsername":      u.GitHubUsername,
		"microsoftLearnEmail": u.MicrosoftLearnEmail,
		"completedPages":      u.CompletedPages,
		"lastViewedPage":      u.LastViewedPage,
		"completedResources":  u.CompletedResources,
		"version":             u.Version + 1,
		"updatedAt":           now,
	}}

	res, err := r.c.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrVersionConflict
	}

	u.Version++
	u.UpdatedAt = now
	return nil
}

func (r *MongoRepository) SetPassword(ctx context.Context, id string, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrorNotFound
	}

	res, err := r.c.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"password":  passwordHash,
		"updatedAt": r.now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// completedResourceMatch matches a completion stored either as the hex
// string or, for documents written by other tools, as the ObjectID itself.
func completedResourceMatch(resourceID string) any {
	oid, err := primitive.ObjectIDFromHex(resourceID)
	if err != nil {
		return resourceID
	}
	return bson.M{"$in": bson.A{resourceID, oid}}
}

func (r *MongoRepository) PullCompletedResource(ctx context.Context, resourceID string) error {
	match := completedResourceMatch(resourceID)
	_, err := r.c.UpdateMany(ctx,
		bson.M{"completedResources": match},
		bson.M{
			"$pull": bson.M{"completedResources": match},
			"$inc":  bson.M{"version": 1},
		})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *MongoRepository) CompletionStats(ctx context.Context) (models.CompletionStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.M{
			"completedCount": bson.M{"$size": bson.M{"$ifNull": bson.A{"$completedResources", bson.A{}}}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":              nil,
			"totalCompletions": bson.M{"$sum": "$completedCount"},
			"avgCompletions":   bson.M{"$avg": "$completedCount"},
			"usersWithCompletions": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$gt": bson.A{"$completedCount", 0}}, 1, 0},
			}},
		}}},
	}

	cur, err := r.c.Aggregate(ctx, pipeline)
	if err != nil {
		return models.CompletionStats{}, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	var out struct {
		TotalCompletions     int64   `bson:"totalCompletions"`
		AvgCompletions       float64 `bson:"avgCompletions"`
		UsersWithCompletions int64   `bson:"usersWithCompletions"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&out); err != nil {
			return models.CompletionStats{}, fmt.Errorf("decode stats: %w", err)
		}
	}
	if err := cur.Err(); err != nil {
		return models.CompletionStats{}, fmt.Errorf("db error: %w", err)
	}

	return models.CompletionStats{
		TotalCompletions:     out.TotalCompletions,
		AvgCompletions:       out.AvgCompletions,
		UsersWithCompletions: out.UsersWithCompletions,
	}, nil
}
