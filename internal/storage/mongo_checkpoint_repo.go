package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig параметры подключения к MongoDB
type MongoConfig struct {
	URI        string // mongodb://localhost:27017
	Database   string
	Collection string
}

// MongoCheckpointRepo хранит точки сохранения как документы, _id - слот
type MongoCheckpointRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type checkpointDoc struct {
	Slot    string    `bson:"_id"`
	Map     string    `bson:"map"`
	Place   string    `bson:"place"`
	X       float64   `bson:"x"`
	Y       float64   `bson:"y"`
	Health  int       `bson:"health"`
	Tick    uint64    `bson:"tick"`
	SavedAt time.Time `bson:"saved_at"`
}

// NewMongoCheckpointRepo подключается к MongoDB и проверяет соединение
func NewMongoCheckpointRepo(ctx context.Context, cfg MongoConfig) (*MongoCheckpointRepo, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "overworld"
	}
	if cfg.Collection == "" {
		cfg.Collection = "checkpoints"
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoCheckpointRepo{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (m *MongoCheckpointRepo) Save(ctx context.Context, cp *Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}
	doc := checkpointDoc{
		Slot: cp.Slot, Map: cp.Map, Place: cp.Place,
		X: cp.Position.X, Y: cp.Position.Y,
		Health: cp.Health, Tick: cp.Tick, SavedAt: cp.SavedAt,
	}
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": cp.Slot}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", cp.Slot, err)
	}
	return nil
}

func (m *MongoCheckpointRepo) Load(ctx context.Context, slot string) (*Checkpoint, bool, error) {
	var doc checkpointDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": slot}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load checkpoint %s: %w", slot, err)
	}

	cp := &Checkpoint{
		Slot: doc.Slot, Map: doc.Map, Place: doc.Place,
		Health: doc.Health, Tick: doc.Tick, SavedAt: doc.SavedAt,
	}
	cp.Position.X, cp.Position.Y = doc.X, doc.Y
	return cp, true, nil
}

func (m *MongoCheckpointRepo) Delete(ctx context.Context, slot string) error {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": slot})
	if err != nil {
		return fmt.Errorf("delete checkpoint %s: %w", slot, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("checkpoint %s not found", slot)
	}
	return nil
}

func (m *MongoCheckpointRepo) Close() error {
	return m.client.Disconnect(context.Background())
}
