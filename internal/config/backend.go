package config

import (
	"fmt"

	"go-catalogue-ws/internal/remote"
	"go-catalogue-ws/internal/repository"
	"go-catalogue-ws/pkg/database"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cachePrefix = "catalogue:"

// RowService builds the row service of the selected backend, wrapped in
// the redis cache when REDIS_ADDR is set. An unconfigured backend yields
// remote.Unconfigured. The returned func releases connections.
func (c Config) RowService(log *zap.Logger) (remote.RowService, func(), error) {
	if log == nil {
		log = zap.NewNop()
	}
	noop := func() {}
	if !c.Configured() {
		return remote.Unconfigured{}, noop, nil
	}

	var (
		rs      remote.RowService
		closers []func()
	)
	switch c.RowBackend {
	case BackendFacade:
		rs = remote.NewFacadeClient(c.Facade, log)
	case BackendSheets:
		rs = remote.NewSheetsClient(c.Sheets, log)
	case BackendPostgres, BackendSQLite:
		var (
			db  *gorm.DB
			err error
		)
		if c.RowBackend == BackendPostgres {
			db, err = database.ConnectPostgres(c.Database)
		} else {
			db, err = database.OpenSQLite(c.SQLitePath)
		}
		if err != nil {
			return nil, noop, err
		}
		repo := repository.NewSheetRowRepo(db)
		if err := repo.Migrate(); err != nil {
			return nil, noop, fmt.Errorf("failed to migrate sheet rows: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, func() { _ = sqlDB.Close() })
		}
		rs = remote.NewTableStore(repo)
	default:
		return remote.Unconfigured{}, noop, nil
	}

	if c.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		closers = append(closers, func() { _ = client.Close() })
		rs = remote.NewCachedService(rs, client, cachePrefix, c.CacheTTL, log)
		log.Info("row cache enabled", zap.String("addr", c.RedisAddr), zap.Duration("ttl", c.CacheTTL))
	}

	return rs, func() {
		for _, fn := range closers {
			fn()
		}
	}, nil
}
