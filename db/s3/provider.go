package s3

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jd-116/announcement-hub/db"
	"github.com/jd-116/announcement-hub/env"
	"github.com/jd-116/announcement-hub/types"
)

// Provider stores each record collection as one JSON object in an S3 bucket.
// PutObject replaces an object atomically, so readers see either
// the previous or the new collection
type Provider struct {
	session    *session.Session
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
	bucket     string
	prefix     string
	logger     zerolog.Logger
}

// NewProvider creates a new instance of a Provider
// and parses environment variables
func NewProvider(logger zerolog.Logger) (*Provider, error) {
	// Parse the S3 credentials from the environment
	awsRegion, err := env.GetEnv("store AWS region", "STORE_AWS_REGION")
	if err != nil {
		return nil, err
	}
	awsAccessKeyID, err := env.GetEnv("store AWS access key ID", "STORE_AWS_ACCESS_KEY_ID")
	if err != nil {
		return nil, err
	}
	awsSecretAccessKey, err := env.GetEnv("store AWS secret access key", "STORE_AWS_SECRET_ACCESS_KEY")
	if err != nil {
		return nil, err
	}

	// Get the bucket name from the environment
	s3Bucket, err := env.GetEnv("store S3 bucket", "STORE_S3_BUCKET")
	if err != nil {
		return nil, err
	}
	prefix := env.GetEnvDefault("STORE_S3_PREFIX", "")

	// Initialize the session
	sess, err := session.NewSession(&aws.Config{
		Region:      &awsRegion,
		Credentials: credentials.NewStaticCredentials(awsAccessKeyID, awsSecretAccessKey, ""),
	})
	if err != nil {
		return nil, err
	}

	return &Provider{
		session: sess,
		uploader: s3manager.NewUploader(sess, func(u *s3manager.Uploader) {
			u.LeavePartsOnError = false
		}),
		downloader: s3manager.NewDownloader(sess),
		bucket:     s3Bucket,
		prefix:     prefix,
		logger:     logger,
	}, nil
}

// Connect makes sure the bucket is reachable
func (p *Provider) Connect(ctx context.Context) error {
	_, err := s3.New(p.session).HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(p.bucket),
	})
	if err != nil {
		return errors.Wrapf(err, "checking bucket %s", p.bucket)
	}

	p.logger.Info().Str("bucket", p.bucket).Str("prefix", p.prefix).Msg("using S3 record store")
	return nil
}

// Disconnect is a no-op
func (p *Provider) Disconnect(ctx context.Context) error {
	return nil
}

func (p *Provider) key(collection string) string {
	return p.prefix + collection + ".json"
}

// load downloads and decodes a collection object,
// leaving out untouched if the object doesn't exist yet
func (p *Provider) load(ctx context.Context, collection string, out interface{}) error {
	buffer := aws.NewWriteAtBuffer(nil)
	_, err := p.downloader.DownloadWithContext(ctx, buffer, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(collection)),
	})
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == s3.ErrCodeNoSuchKey {
			return nil
		}
		return errors.Wrapf(err, "downloading collection %s", collection)
	}

	if err := json.Unmarshal(buffer.Bytes(), out); err != nil {
		return errors.Wrapf(err, "parsing collection %s", collection)
	}

	return nil
}

func (p *Provider) save(ctx context.Context, collection string, records interface{}) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding collection %s", collection)
	}

	result, err := p.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(p.key(collection)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return errors.Wrapf(err, "uploading collection %s", collection)
	}

	p.logger.Debug().Str("collection", collection).Str("location", result.Location).
		Msg("uploaded collection")
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
