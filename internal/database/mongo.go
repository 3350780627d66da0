package database

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/emilythestrangee/ystore/backend/internal/apperr"
	"github.com/emilythestrangee/ystore/backend/internal/config"
	"github.com/emilythestrangee/ystore/backend/internal/logger"
	"github.com/emilythestrangee/ystore/backend/internal/models"
)

const (
	commentsCollection = "comments"
	usersCollection    = "users"
)

type MongoStore struct {
	client   *mongo.Client
	db       *mongo.Database
	comments *mongo.Collection
	users    *mongo.Collection
}

func OpenMongo(ctx context.Context, cfg config.DatabaseConfig) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		return nil, errors.Wrap(err, "database:OpenMongo: Connect failed")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "database:OpenMongo: ping failed")
	}

	db := client.Database(cfg.MongoDB)
	logger.Infof("Connected to MongoDB database %s", cfg.MongoDB)
	return &MongoStore{
		client:   client,
		db:       db,
		comments: db.Collection(commentsCollection),
		users:    db.Collection(usersCollection),
	}, nil
}

func (s *MongoStore) Migrate(ctx context.Context) error {
	_, err := s.comments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "parent_id", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "database:Migrate: comment indexes")
	}

	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "database:Migrate: user indexes")
	}

	logger.Infof("MongoDB indexes ensured")
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, c *models.Comment) error {
	if _, err := s.comments.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrapf(apperr.ErrConflict, "database:Insert: comment %s", c.ID)
		}
		return errors.Wrap(err, "database:Insert: InsertOne failed")
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := s.comments.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(apperr.ErrNotFound, "database:FindByID: comment %s", id)
		}
		return nil, errors.Wrap(err, "database:FindByID: FindOne failed")
	}
	return &c, nil
}

func (s *MongoStore) FindBySubject(ctx context.Context, subjectID string) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.comments.Find(ctx, bson.M{"subject_id": subjectID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "database:FindBySubject: Find failed")
	}

	out := make([]models.Comment, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "database:FindBySubject: decode failed")
	}
	return out, nil
}

func (s *MongoStore) CountBySubject(ctx context.Context, subjectID string) (int64, error) {
	n, err := s.comments.CountDocuments(ctx, bson.M{"subject_id": subjectID})
	if err != nil {
		return 0, errors.Wrap(err, "database:CountBySubject: CountDocuments failed")
	}
	return n, nil
}

func (s *MongoStore) UpdateReactions(ctx context.Context, id string, reactions models.Reactions, reactorIDs []string, updatedAt time.Time) error {
	if reactorIDs == nil {
		reactorIDs = []string{}
	}
	res, err := s.comments.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"reactions":   reactions,
		"reactor_ids": reactorIDs,
		"updated_at":  updatedAt,
	}})
	if err != nil {
		return errors.Wrap(err, "database:UpdateReactions: UpdateOne failed")
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(apperr.ErrNotFound, "database:UpdateReactions: comment %s", id)
	}
	return nil
}

func (s *MongoStore) DeleteWithChildren(ctx context.Context, id string) (int64, error) {
	res, err := s.comments.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"_id": id},
		bson.M{"parent_id": id},
	}})
	if err != nil {
		return 0, errors.Wrap(err, "database:DeleteWithChildren: DeleteMany failed")
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrapf(apperr.ErrConflict, "database:CreateUser: email %s", u.Email)
		}
		return errors.Wrap(err, "database:CreateUser: InsertOne failed")
	}
	return nil
}

func (s *MongoStore) UserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(apperr.ErrNotFound, "database:findUser: %v", filter)
		}
		return nil, errors.Wrap(err, "database:findUser: FindOne failed")
	}
	return &u, nil
}

func (s *MongoStore) SaveUser(ctx context.Context, u *models.User) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
		"full_name":  u.FullName,
		"role":       u.Role,
		"updated_at": u.UpdatedAt,
	}})
	if err != nil {
		return errors.Wrap(err, "database:SaveUser: UpdateOne failed")
	}
	if res.MatchedCount == 0 {
		return errors.Wrapf(apperr.ErrNotFound, "database:SaveUser: user %s", u.ID)
	}
	return nil
}

func (s *MongoStore) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats := map[string]string{"driver": config.DriverMongo, "database": s.db.Name()}
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"
	return stats
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Infof("Disconnected from database: %s", s.db.Name())
	return s.client.Disconnect(ctx)
}
