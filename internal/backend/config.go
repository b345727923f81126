package backend

import (
	"fmt"

	"rentaltax/internal/config"
)

// defaultCacheMaxBytes bounds the artifact cache by size as well as count.
const defaultCacheMaxBytes = 64 << 20

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Type:         BackendType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		SeedFile:     appConfig.SeedFile,

		Records:            RecordBackend(appConfig.RecordBackend),
		FirestoreProjectID: appConfig.FirestoreProjectID,

		Artifacts:          ArtifactBackend(appConfig.ArtifactBackend),
		ArtifactDir:        appConfig.ArtifactDir,
		GCSBucket:          appConfig.GCSBucket,
		GCSCredentialsFile: appConfig.GCSCredentialsFile,
		CacheEntries:       appConfig.ArtifactCacheSize,
		CacheTTL:           appConfig.ArtifactCacheTTL,
		CacheMaxBytes:      defaultCacheMaxBytes,

		BatchConcurrency: appConfig.BatchConcurrency,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}

	if !c.Records.IsValid() {
		return fmt.Errorf("invalid record backend: %s", c.Records)
	}
	if c.Records == FirestoreRecords && c.FirestoreProjectID == "" {
		return fmt.Errorf("Firestore project ID is required for firestore records")
	}

	if !c.Artifacts.IsValid() {
		return fmt.Errorf("invalid artifact backend: %s", c.Artifacts)
	}
	switch c.Artifacts {
	case LocalArtifacts:
		if c.ArtifactDir == "" {
			return fmt.Errorf("artifact directory is required for local artifacts")
		}
	case GCSArtifacts:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS bucket is required for gcs artifacts")
		}
	}

	if c.Publisher && c.AMQPURL == "" {
		return fmt.Errorf("AMQP URL is required when a publisher is requested")
	}
	return nil
}
