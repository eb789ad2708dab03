package repository

import (
	"context"
	"fmt"

	"github.com/debemdeboas/inkpot/internal/clock"
	"github.com/debemdeboas/inkpot/internal/config"
	"github.com/debemdeboas/inkpot/internal/db"
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/debemdeboas/inkpot/internal/util/compression"
)

// Open builds the backing selected by storage.backend. The memory backing is
// seeded with the demo posts when seed.enabled is set.
func Open(ctx context.Context, cfg *config.Config, c clock.Clock) (BlogRepository, error) {
	storage := cfg.Storage

	repoLogger.Info().Str("backend", storage.Backend).Msg("Opening blog repository")

	switch storage.Backend {
	case "memory":
		repo := NewMemoryBlogRepository(c)
		if cfg.Seed.Enabled {
			repo.Seed(model.UserID(cfg.Auth.DemoUserID))
		}
		return repo, nil

	case "sqlite":
		compressor, err := compression.ByName(storage.Compression)
		if err != nil {
			return nil, err
		}
		database := db.NewSQLite(storage.SQLite.Driver, storage.SQLite.Path)
		if err := database.InitDB(); err != nil {
			return nil, err
		}
		return NewDBBlogRepository(database, compressor, c), nil

	case "badger":
		bdb, err := OpenBadger(storage.Badger.Path)
		if err != nil {
			return nil, err
		}
		return NewBadgerBlogRepository(bdb, c), nil

	case "s3":
		client, err := NewS3Client(ctx, storage.S3)
		if err != nil {
			return nil, err
		}
		return NewS3BlogRepository(client, storage.S3.Bucket, storage.S3.Prefix, c), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", storage.Backend)
	}
}
