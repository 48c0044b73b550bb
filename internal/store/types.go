package store

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
	DBTypeBolt     DatabaseType = "bolt"
	DBTypeRedis    DatabaseType = "redis"
)

const DefaultDocumentKey = "eduPortalData"

type DBConfig struct {
	DSN           string
	Type          DatabaseType
	MigrationsDir string
	DocumentKey   string
}

func (c *DBConfig) Key() string {
	if c.DocumentKey == "" {
		return DefaultDocumentKey
	}
	return c.DocumentKey
}
