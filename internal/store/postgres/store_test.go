package postgres

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shrimpsizemoose/eduportal/internal/models"
	"github.com/shrimpsizemoose/eduportal/internal/store"
)

// setupTestDB starts a throwaway Postgres container and applies migrations
func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	ctx := context.Background()

	container, err := tcpostgres.Run(
		ctx,
		"postgres:16-alpine",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(&store.DBConfig{
		DSN:           dsn,
		MigrationsDir: "../../../migrations",
	})
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		s.Close()
		container.Terminate(ctx)
	}

	return s, cleanup
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		log.Println("Skipping Postgres integration tests. Use -short=false to run them.")
		os.Exit(0)
	}
	log.Println("Starting Postgres store tests...")
	code := m.Run()
	log.Println("Finished Postgres store tests")
	os.Exit(code)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "SELECT $1, $2", rebind("SELECT ?, ?"))
}

func TestSaveAndLoadDocument(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("missing document", func(t *testing.T) {
		_, err := s.Load(ctx)
		assert.ErrorIs(t, err, store.ErrNoDocument)
	})

	teacherID := 2
	doc := models.NewDocument()
	doc.Users = append(doc.Users,
		models.User{ID: 1, Name: "Administrator", Email: "admin@school.edu", Password: "admin123", Type: models.RoleAdmin},
		models.User{ID: 2, Name: "Sarah Wilson", Email: "sarah@school.edu", Password: "pw", Type: models.RoleTeacher},
	)
	doc.Courses = append(doc.Courses, models.Course{ID: 1, Name: "Algebra", TeacherID: &teacherID, Students: []int{}})

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, doc))
		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	})

	t.Run("upsert keeps one row", func(t *testing.T) {
		doc.Courses[0].Students = []int{2}
		require.NoError(t, s.Save(ctx, doc))

		var rows int
		require.NoError(t, s.DB.Get(&rows, "SELECT COUNT(*) FROM documents"))
		assert.Equal(t, 1, rows)
	})
}
