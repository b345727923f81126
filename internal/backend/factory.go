package backend

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"rentaltax/internal/amqp"
	"rentaltax/internal/blob"
	"rentaltax/internal/cache"
	"rentaltax/internal/log"
	"rentaltax/internal/ports"
	"rentaltax/internal/render"
	"rentaltax/internal/services"
	"rentaltax/internal/storage"
	firestorestore "rentaltax/internal/storage/firestore"
	"rentaltax/internal/storage/memory"
	"rentaltax/internal/storage/seed"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Wrap(nil, log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// ledger is what both ledger backends provide.
type ledger interface {
	ports.PropertyLookup
	ports.LedgerReader
	ports.ReportRecordStore
	seed.Writer
}

// cleanups runs registered closers in reverse order.
type cleanups []CleanupFunc

func (c *cleanups) add(f CleanupFunc) { *c = append(*c, f) }

func (c cleanups) run() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (result *BackendResult, err error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var closers cleanups
	defer func() {
		if err != nil {
			_ = closers.run()
		}
	}()

	store, ready, err := f.createLedger(ctx, config, &closers)
	if err != nil {
		return nil, err
	}

	records, err := f.createRecords(ctx, config, store, &closers)
	if err != nil {
		return nil, err
	}

	janitor := cache.NewJanitor()
	artifacts, err := f.createArtifacts(ctx, config, janitor, &closers)
	if err != nil {
		return nil, err
	}

	svc := services.NewReportService(services.Deps{
		Properties: store,
		Ledger:     store,
		Renderer:   render.New(),
		Artifacts:  artifacts,
		Records:    records,
	},
		services.WithConcurrency(config.BatchConcurrency),
		services.WithLogger(f.logger.WithComponent(log.ComponentReport)),
	)

	var publisher ports.BatchJobPublisher
	if config.Publisher {
		publisher = f.createPublisher(config, &closers)
	}

	f.logger.Info("Initialized report backend",
		"data_backend", config.Type,
		"record_backend", recordName(config.Records),
		"artifact_backend", config.Artifacts,
		"artifact_cache_entries", config.CacheEntries,
		"batch_concurrency", config.BatchConcurrency,
		"async_batches", publisher != nil)

	return &BackendResult{
		Service:   svc,
		Publisher: publisher,
		Janitor:   janitor,
		Ready:     ready,
		Cleanup:   closers.run,
	}, nil
}

func (f *DefaultFactory) createLedger(ctx context.Context, config Config, closers *cleanups) (ledger, func(context.Context) error, error) {
	var store ledger
	ready := func(context.Context) error { return nil }

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		closers.add(repo.Close)
		store, ready = repo, repo.Ping
		f.logger.Info("Initialized SQLite ledger", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		store = memory.New()
		f.logger.Info("Initialized memory ledger")
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if config.SeedFile != "" {
		counts, err := seed.LoadFile(ctx, config.SeedFile, store)
		if err != nil {
			return nil, nil, fmt.Errorf("seed ledger from %s: %w", config.SeedFile, err)
		}
		f.logger.Info("Seeded ledger",
			"file", config.SeedFile,
			"properties", counts.Properties,
			"expenses", counts.Expenses,
			"income", counts.Income)
	}
	return store, ready, nil
}

func (f *DefaultFactory) createRecords(ctx context.Context, config Config, store ledger, closers *cleanups) (ports.ReportRecordStore, error) {
	if config.Records != FirestoreRecords {
		return store, nil
	}

	var opts []option.ClientOption
	if config.GCSCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.GCSCredentialsFile))
	}
	client, err := firestore.NewClient(ctx, config.FirestoreProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firestore client: %w", err)
	}
	closers.add(client.Close)
	f.logger.Info("Initialized Firestore report records", "project_id", config.FirestoreProjectID)
	return firestorestore.NewRecordStore(client), nil
}

func (f *DefaultFactory) createArtifacts(ctx context.Context, config Config, janitor *cache.Janitor, closers *cleanups) (ports.ArtifactStore, error) {
	var base ports.ArtifactStore
	switch config.Artifacts {
	case MemoryArtifacts:
		base = blob.NewMemoryStore()
	case LocalArtifacts:
		local, err := blob.NewLocalStore(config.ArtifactDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local artifact store: %w", err)
		}
		base = local
	case GCSArtifacts:
		gcs, err := blob.NewGCSStore(ctx, config.GCSBucket, config.GCSCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS artifact store: %w", err)
		}
		closers.add(gcs.Close)
		base = gcs
	default:
		return nil, fmt.Errorf("unsupported artifact backend: %s", config.Artifacts)
	}

	// memory blobs are already in process
	if config.CacheEntries <= 0 || config.Artifacts == MemoryArtifacts {
		return base, nil
	}
	lru := cache.NewLRU[[]byte](config.CacheEntries, config.CacheTTL,
		cache.WithMaxWeight(config.CacheMaxBytes, func(b []byte) int64 { return int64(len(b)) }))
	janitor.Register(lru)
	return blob.NewCachedStore(base, lru), nil
}

// createPublisher connects to the broker. A broker that cannot be reached is
// logged and batches then run inline.
func (f *DefaultFactory) createPublisher(config Config, closers *cleanups) ports.BatchJobPublisher {
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, batches will run inline", "error", err)
		return nil
	}
	closers.add(client.Close)
	f.logger.Info("Initialized AMQP publisher",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

func recordName(r RecordBackend) string {
	if r == LedgerRecords {
		return "ledger"
	}
	return string(r)
}
