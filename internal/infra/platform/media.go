package platform

import (
	"log/slog"

	"unimate/internal/infra/config"
	"unimate/internal/infra/storage/s3"
)

// Uploaders returns one storage per media bucket. Without S3_ENDPOINT both
// reject uploads.
func Uploaders(cfg config.Config, logger *slog.Logger) (listing, chat s3.Storage, err error) {
	if cfg.S3Endpoint == "" {
		logger.Warn("S3_ENDPOINT not set, media uploads are disabled")
		return s3.NoopUploader{}, s3.NoopUploader{}, nil
	}
	opts := func(bucket string) s3.Options {
		return s3.Options{
			Endpoint:      cfg.S3Endpoint,
			UseSSL:        cfg.S3UseSSL,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        bucket,
			PublicBaseURL: cfg.S3PublicEndpoint,
		}
	}
	listingClient, err := s3.NewClient(opts(cfg.S3ListingBucket), logger)
	if err != nil {
		return nil, nil, err
	}
	chatClient, err := s3.NewClient(opts(cfg.S3ChatBucket), logger)
	if err != nil {
		return nil, nil, err
	}
	return listingClient, chatClient, nil
}
