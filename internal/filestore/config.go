package filestore

import "time"

// Provider names a Store implementation.
type Provider string

const ProviderMinIO Provider = "minio"

// Config describes the snapshot store.
type Config struct {
	Provider  Provider
	Endpoint  string // host:port
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string // empty for MinIO

	// Bucket receives snapshots and is created on first export.
	Bucket string

	// PresignTTL is the lifetime of the download link returned by an
	// export. Zero disables the link.
	PresignTTL time.Duration
}

// DefaultConfig returns the settings of a local MinIO server.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:   ProviderMinIO,
		Endpoint:   endpoint,
		AccessKey:  accessKey,
		SecretKey:  secretKey,
		Bucket:     "snapshots",
		PresignTTL: 15 * time.Minute,
	}
}
