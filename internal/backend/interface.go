package backend

import (
	"context"
	"time"

	"rentaltax/internal/cache"
	"rentaltax/internal/ports"
	"rentaltax/internal/services"
)

// CleanupFunc releases resources opened by the factory.
type CleanupFunc func() error

// BackendResult is the wired report engine and everything around it.
type BackendResult struct {
	Service *services.ReportService
	// Publisher is nil unless a queue is configured and requested.
	Publisher ports.BatchJobPublisher
	// Janitor sweeps in-process caches; register extra cleaners before Start.
	Janitor *cache.Janitor
	Ready   func(context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	SQLiteDBPath string
	SeedFile     string

	Records            RecordBackend
	FirestoreProjectID string

	Artifacts          ArtifactBackend
	ArtifactDir        string
	GCSBucket          string
	GCSCredentialsFile string
	CacheEntries       int
	CacheTTL           time.Duration
	CacheMaxBytes      int64

	BatchConcurrency int

	// Publisher connects a batch job publisher when AMQPURL is set.
	Publisher    bool
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType selects where properties and ledger rows live.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// RecordBackend selects where report records live. Empty keeps them in the
// ledger backend.
type RecordBackend string

const (
	LedgerRecords    RecordBackend = ""
	FirestoreRecords RecordBackend = "firestore"
)

type ArtifactBackend string

const (
	MemoryArtifacts ArtifactBackend = "memory"
	LocalArtifacts  ArtifactBackend = "local"
	GCSArtifacts    ArtifactBackend = "gcs"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	return bt == SQLiteBackend || bt == MemoryBackend
}

func (rb RecordBackend) IsValid() bool {
	return rb == LedgerRecords || rb == FirestoreRecords
}

func (ab ArtifactBackend) IsValid() bool {
	switch ab {
	case MemoryArtifacts, LocalArtifacts, GCSArtifacts:
		return true
	default:
		return false
	}
}
