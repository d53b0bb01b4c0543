package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jd-116/announcement-hub/db"
	"github.com/jd-116/announcement-hub/env"
	"github.com/jd-116/announcement-hub/types"
)

// Provider stores each collection as a pretty-printed JSON array
// in its own file under a data directory
type Provider struct {
	dir    string
	logger zerolog.Logger

	// guards the rename so readers never observe a half-written file
	mu sync.RWMutex
}

// NewProvider creates a new provider and loads the data directory from the environment
func NewProvider(logger zerolog.Logger) *Provider {
	return NewProviderAt(env.GetEnvDefault("STORE_DATA_DIR", "data"), logger)
}

// NewProviderAt creates a new provider rooted at the given directory
func NewProviderAt(dir string, logger zerolog.Logger) *Provider {
	return &Provider{
		dir:    dir,
		logger: logger,
	}
}

// Connect ensures the data directory exists
func (p *Provider) Connect(ctx context.Context) error {
	if err := os.MkdirAll(p.dir, 0o750); err != nil {
		return errors.Wrapf(err, "creating data directory %s", p.dir)
	}

	p.logger.Info().Str("data_dir", p.dir).Msg("using file record store")
	return nil
}

// Disconnect is a no-op
func (p *Provider) Disconnect(ctx context.Context) error {
	return nil
}

func (p *Provider) path(collection string) string {
	return filepath.Join(p.dir, collection+".json")
}

// load decodes the collection file into out,
// leaving out untouched if the file doesn't exist yet
func (p *Provider) load(collection string, out interface{}) error {
	p.mu.RLock()
	data, err := os.ReadFile(p.path(collection))
	p.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "reading collection %s", collection)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "parsing collection %s", collection)
	}

	return nil
}

// save writes the collection to a temporary file and renames it into place
func (p *Provider) save(collection string, records interface{}) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding collection %s", collection)
	}

	if err := os.MkdirAll(p.dir, 0o750); err != nil {
		return errors.Wrapf(err, "creating data directory %s", p.dir)
	}

	tmp, err := os.CreateTemp(p.dir, collection+"-*.json.tmp")
	if err != nil {
		return errors.Wrapf(err, "saving collection %s", collection)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing collection %s", collection)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "writing collection %s", collection)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := os.Rename(tmpName, p.path(collection)); err != nil {
		return errors.Wrapf(err, "replacing collection %s", collection)
	}

	return nil
}

// LoadAnnouncements reads the announcements collection
func (p *Provider) LoadAnnouncements(ctx context.Context) ([]types.Announcement, error) {
	announcements := []types.Announcement{}
	if err := p.load(db.AnnouncementsCollection, &announcements); err != nil {
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
	return p.save(db.AnnouncementsCollection, announcements)
}

// LoadAudiences reads the audiences collection
func (p *Provider) LoadAudiences(ctx context.Context) ([]types.Audience, error) {
	audiences := []types.Audience{}
	if err := p.load(db.AudiencesCollection, &audiences); err != nil {
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
	return p.save(db.AudiencesCollection, audiences)
}

// LoadAcknowledgements reads the acknowledgements collection
func (p *Provider) LoadAcknowledgements(ctx context.Context) ([]types.Acknowledgement, error) {
	acknowledgements := []types.Acknowledgement{}
	if err := p.load(db.AcknowledgementsCollection, &acknowledgements); err != nil {
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
	return p.save(db.AcknowledgementsCollection, acknowledgements)
}
