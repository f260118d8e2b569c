package cmd

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"merchingest/internal/config"
	"merchingest/internal/db"
	"merchingest/internal/logger"
	"merchingest/internal/objectstore"
	"merchingest/internal/publisher"
	"merchingest/internal/repository"
	"merchingest/internal/supabase"
)

// backends are the publisher collaborators selected by the configuration.
type backends struct {
	store    publisher.DataStore
	objects  publisher.ObjectStore
	identity publisher.IdentityProvider
	ledger   publisher.Ledger

	closers []func() error
}

// openBackends builds clients without contacting any service.
func openBackends(cfg *config.Config, log logger.Logger) (*backends, error) {
	b := &backends{}

	var sb *supabase.Client
	if cfg.StoreBackend == config.BackendSupabase || cfg.ObjectBackend == config.BackendSupabase {
		sb = supabase.New(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket).SetLogger(log)
	}

	switch cfg.StoreBackend {
	case config.BackendSupabase:
		b.store, b.identity = sb, sb
	case config.BackendPostgres:
		conn, err := db.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		b.closers = append(b.closers, conn.Close)
		b.store = &repository.PostgresStore{DB: conn}
		b.identity = &repository.AccountRepository{DB: conn}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.ObjectBackend {
	case config.BackendSupabase:
		b.objects = sb
	case config.BackendMinio:
		store, err := objectstore.New(minioConfig(cfg))
		if err != nil {
			b.Close()
			return nil, err
		}
		b.objects = store
	default:
		b.Close()
		return nil, fmt.Errorf("unknown OBJECT_STORE %q", cfg.ObjectBackend)
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		b.closers = append(b.closers, client.Close)
		b.ledger = &repository.Ledger{Client: client}
	}
	return b, nil
}

func (b *backends) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func minioConfig(cfg *config.Config) objectstore.Config {
	return objectstore.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		PublicURL: cfg.MinioPublicURL,
	}
}
