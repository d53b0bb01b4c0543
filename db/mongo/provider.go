package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jd-116/announcement-hub/db"
	"github.com/jd-116/announcement-hub/env"
	"github.com/jd-116/announcement-hub/types"
)

// collectionsName is the single MongoDB collection holding one document
// per record collection
const collectionsName = "collections"

// Provider stores each record collection as one document,
// {_id: <collection>, records: [...]}, replaced wholesale on save
type Provider struct {
	connectionURI string
	databaseName  string
	client        *mongo.Client
	logger        zerolog.Logger
}

// NewProvider creates a new provider and loads values in from the environment
func NewProvider(logger zerolog.Logger) (*Provider, error) {
	connectionURI, err := env.GetEnv("database connection URI", "MONGO_DB_URI")
	if err != nil {
		return nil, err
	}

	dbName, err := env.GetEnv("database name", "MONGO_DB_NAME")
	if err != nil {
		return nil, err
	}

	return &Provider{
		connectionURI: connectionURI,
		databaseName:  dbName,
		client:        nil,
		logger:        logger,
	}, nil
}

// Connect connects to and pings the database
func (p *Provider) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(p.connectionURI))
	if err != nil {
		return err
	}

	// Ping the primary
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return err
	}

	p.client = client
	p.logger.Info().Str("database", p.databaseName).Msg("connected to MongoDB record store")
	return nil
}

// Disconnect closes the client
func (p *Provider) Disconnect(ctx context.Context) error {
	if p.client == nil {
		return nil
	}

	return p.client.Disconnect(ctx)
}

func (p *Provider) collections() *mongo.Collection {
	return p.client.Database(p.databaseName).Collection(collectionsName)
}

// load decodes the named collection document into out,
// leaving out untouched if the document doesn't exist yet
func (p *Provider) load(ctx context.Context, name string, out interface{}) error {
	result := p.collections().FindOne(ctx, bson.D{{Key: "_id", Value: name}})
	if result.Err() == mongo.ErrNoDocuments {
		return nil
	}
	if result.Err() != nil {
		return errors.Wrapf(result.Err(), "reading collection %s", name)
	}

	if err := result.Decode(out); err != nil {
		return errors.Wrapf(err, "decoding collection %s", name)
	}

	return nil
}

// save replaces (or inserts) the named collection document;
// single-document writes are atomic in MongoDB
func (p *Provider) save(ctx context.Context, name string, records interface{}) error {
	filter := bson.D{{Key: "_id", Value: name}}
	document := bson.D{
		{Key: "_id", Value: name},
		{Key: "records", Value: records},
	}

	_, err := p.collections().ReplaceOne(ctx, filter, document, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrapf(err, "replacing collection %s", name)
	}

	return nil
}

type announcementsDocument struct {
	Records []types.Announcement `bson:"records"`
}

type audiencesDocument struct {
	Records []types.Audience `bson:"records"`
}

type acknowledgementsDocument struct {
	Records []types.Acknowledgement `bson:"records"`
}

// LoadAnnouncements reads the announcements collection
func (p *Provider) LoadAnnouncements(ctx context.Context) ([]types.Announcement, error) {
	var document announcementsDocument
	if err := p.load(ctx, db.AnnouncementsCollection, &document); err != nil {
		return nil, err
	}

	// Return non-nil slice so JSON serialization is nice
	if document.Records == nil {
		return []types.Announcement{}, nil
	}
	return document.Records, nil
}

// SaveAnnouncements overwrites the announcements collection
func (p *Provider) SaveAnnouncements(ctx context.Context, announcements []types.Announcement) error {
	if announcements == nil {
		announcements = []types.Announcement{}
	}
	return p.save(ctx, db.AnnouncementsCollection, announcements)
}

// LoadAudiences reads the audiences collection
func (p *Provider) LoadAudiences(ctx context.Context) ([]types.Audience, error) {
	var document audiencesDocument
	if err := p.load(ctx, db.AudiencesCollection, &document); err != nil {
		return nil, err
	}

	if document.Records == nil {
		return []types.Audience{}, nil
	}
	return document.Records, nil
}

// SaveAudiences overwrites the audiences collection
func (p *Provider) SaveAudiences(ctx context.Context, audiences []types.Audience) error {
	if audiences == nil {
		audiences = []types.Audience{}
	}
	return p.save(ctx, db.AudiencesCollection, audiences)
}

// LoadAcknowledgements reads the acknowledgements collection
func (p *Provider) LoadAcknowledgements(ctx context.Context) ([]types.Acknowledgement, error) {
	var document acknowledgementsDocument
	if err := p.load(ctx, db.AcknowledgementsCollection, &document); err != nil {
		return nil, err
	}

	if document.Records == nil {
		return []types.Acknowledgement{}, nil
	}
	return document.Records, nil
}

// SaveAcknowledgements overwrites the acknowledgements collection
func (p *Provider) SaveAcknowledgements(ctx context.Context, acknowledgements []types.Acknowledgement) error {
	if acknowledgements == nil {
		acknowledgements = []types.Acknowledgement{}
	}
	return p.save(ctx, db.AcknowledgementsCollection, acknowledgements)
}
