package app

import (
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/eduportal/internal/store"
	"github.com/shrimpsizemoose/eduportal/internal/store/bolt"
	"github.com/shrimpsizemoose/eduportal/internal/store/postgres"
	"github.com/shrimpsizemoose/eduportal/internal/store/redis"
	"github.com/shrimpsizemoose/eduportal/internal/store/sqlite"
)

const boltScheme = "bolt://"

// DatabaseType picks the backend from the shape of the DSN.
func DatabaseType(dsn string) store.DatabaseType {
	switch {
	case strings.HasPrefix(dsn, "postgres"):
		return store.DBTypePostgres
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return store.DBTypeRedis
	case strings.HasPrefix(dsn, boltScheme):
		return store.DBTypeBolt
	default:
		return store.DBTypeSQLite
	}
}

func NewStore(config *Config) (store.DocumentStore, error) {
	dbConfig := &store.DBConfig{
		DSN:           config.Database.DSN,
		Type:          DatabaseType(config.Database.DSN),
		MigrationsDir: config.Database.MigrationsDir,
		DocumentKey:   config.Database.DocumentKey,
	}

	switch dbConfig.Type {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dbConfig)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(dbConfig)
	case store.DBTypeRedis:
		return redis.NewRedisStore(dbConfig)
	case store.DBTypeBolt:
		dbConfig.DSN = strings.TrimPrefix(dbConfig.DSN, boltScheme)
		return bolt.NewBoltStore(dbConfig)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", config.Database.DSN)
	}
}
