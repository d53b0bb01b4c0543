package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	// Registers the "postgres" driver
	_ "github.com/lib/pq"
	// Registers the "sqlite" driver
	_ "modernc.org/sqlite"

	"github.com/jd-116/announcement-hub/db"
	"github.com/jd-116/announcement-hub/env"
	"github.com/jd-116/announcement-hub/types"
)

// Supported database/sql driver names
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	payload TEXT NOT NULL
)`

// Provider stores each record collection as a JSON array
// in a single row of the collections table
type Provider struct {
	driver string
	dsn    string
	conn   *sql.DB
	logger zerolog.Logger
}

// NewProvider creates a provider for the given driver,
// loading the DSN from the environment
func NewProvider(driver string, logger zerolog.Logger) (*Provider, error) {
	dsn, err := env.GetEnv("SQL store DSN", "STORE_SQL_DSN")
	if err != nil {
		return nil, err
	}

	return NewProviderWithDSN(driver, dsn, logger)
}

// NewProviderWithDSN creates a provider for the given driver and DSN
func NewProviderWithDSN(driver string, dsn string, logger zerolog.Logger) (*Provider, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, db.NewUnknownDriverError(driver)
	}

	return &Provider{
		driver: driver,
		dsn:    dsn,
		logger: logger,
	}, nil
}

// Connect opens the database, pings it and creates the schema
func (p *Provider) Connect(ctx context.Context) error {
	conn, err := sql.Open(p.driver, p.dsn)
	if err != nil {
		return errors.Wrapf(err, "opening %s database", p.driver)
	}

	if p.driver == DriverSQLite {
		// SQLite allows a single writer
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return errors.Wrapf(err, "pinging %s database", p.driver)
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return errors.Wrap(err, "creating collections table")
	}

	p.conn = conn
	p.logger.Info().Str("driver", p.driver).Msg("connected to SQL record store")
	return nil
}

// Disconnect closes the database
func (p *Provider) Disconnect(ctx context.Context) error {
	if p.conn == nil {
		return nil
	}

	return p.conn.Close()
}

// placeholder returns the n-th bind parameter in the driver's syntax
func (p *Provider) placeholder(n int) string {
	if p.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (p *Provider) load(ctx context.Context, name string, out interface{}) error {
	query := "SELECT payload FROM collections WHERE name = " + p.placeholder(1)

	var payload string
	err := p.conn.QueryRowContext(ctx, query, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "reading collection %s", name)
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return errors.Wrapf(err, "parsing collection %s", name)
	}

	return nil
}

// save upserts the collection row; the single statement makes the
// replacement visible all at once
func (p *Provider) save(ctx context.Context, name string, records interface{}) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return errors.Wrapf(err, "encoding collection %s", name)
	}

	query := fmt.Sprintf(
		"INSERT INTO collections (name, payload) VALUES (%s, %s) "+
			"ON CONFLICT (name) DO UPDATE SET payload = excluded.payload",
		p.placeholder(1), p.placeholder(2))
	if _, err := p.conn.ExecContext(ctx, query, name, string(payload)); err != nil {
		return errors.Wrapf(err, "replacing collection %s", name)
	}

	return nil
}

// LoadAnnouncements reads the announcements collection
func (p *Provider) LoadAnnouncements(ctx context.Context) ([]types.Announcement, error) {
	announcements := []types.Announcement{}
	if err := p.load(ctx, db.AnnouncementsCollection, &announcements); err != nil {
		return nil, err
	}

	// Return non-nil slice so JSON serialization is nice
	if announcements == nil {
		return []types.Announcement{}, nil
	}
	return announcements, nil
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
	audiences := []types.Audience{}
	if err := p.load(ctx, db.AudiencesCollection, &audiences); err != nil {
		return nil, err
	}

	if audiences == nil {
		return []types.Audience{}, nil
	}
	return audiences, nil
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
	acknowledgements := []types.Acknowledgement{}
	if err := p.load(ctx, db.AcknowledgementsCollection, &acknowledgements); err != nil {
		return nil, err
	}

	if acknowledgements == nil {
		return []types.Acknowledgement{}, nil
	}
	return acknowledgements, nil
}

// SaveAcknowledgements overwrites the acknowledgements collection
func (p *Provider) SaveAcknowledgements(ctx context.Context, acknowledgements []types.Acknowledgement) error {
	if acknowledgements == nil {
		acknowledgements = []types.Acknowledgement{}
	}
	return p.save(ctx, db.AcknowledgementsCollection, acknowledgements)
}
