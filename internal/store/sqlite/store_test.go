// internal/store/sqlite/store_test.go
package sqlite

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/eduportal/internal/models"
	"github.com/shrimpsizemoose/eduportal/internal/store"
)

// setupTestDB creates an in-memory SQLite database and initializes schema
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	s, err := NewSQLiteStore(&store.DBConfig{
		DSN:           ":memory:",
		MigrationsDir: "../../../migrations",
		DocumentKey:   "testData",
	})
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

func sampleDocument() *models.Document {
	teacherID := 2
	gradedAt := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	return &models.Document{
		Users: []models.User{
			{ID: 1, Name: "Administrator", Email: "admin@school.edu", Password: "admin123", Type: models.RoleAdmin},
			{ID: 2, Name: "Sarah Wilson", Email: "sarah@school.edu", Password: "pw", Type: models.RoleTeacher, Subject: "Math"},
			{ID: 3, Name: "John Doe", Email: "john@school.edu", Password: "pw", Type: models.RoleStudent, Grade: "10"},
			{ID: 4, Name: "Jane Doe", Email: "jane@school.edu", Password: "pw", Type: models.RoleParent, Children: []int{3}},
		},
		Courses: []models.Course{
			{ID: 1, Name: "Algebra", Teacher: "Sarah Wilson", TeacherID: &teacherID, Grade: "10", Students: []int{3}},
		},
		Assignments: []models.Assignment{
			{ID: 1, CourseID: 1, Title: "Quadratics", Type: models.KindHomework, DueDate: "2024-01-10", MaxGrade: 100},
		},
		Grades: []models.Grade{
			{ID: 1, StudentID: 3, CourseID: 1, AssignmentID: 1, Score: 85, MaxGrade: 100, Comments: "good", GradedAt: &gradedAt},
		},
		News: []models.News{
			{ID: 1, Title: "Welcome", Content: "Hello", Author: "Administration", Date: "2024-01-01"},
		},
		Communications: []models.Message{},
		Sequences:      map[string]int{models.CollectionUsers: 4},
	}
}

func TestMain(m *testing.M) {
	log.Println("Starting SQLite store tests...")
	code := m.Run()
	log.Println("Finished SQLite store tests")
	os.Exit(code)
}

func TestLoadMissingDocument(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	doc, err := s.Load(context.Background())
	assert.ErrorIs(t, err, store.ErrNoDocument)
	assert.Nil(t, doc)
}

func TestSaveAndLoadDocument(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	doc := sampleDocument()

	t.Run("save document", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, doc))
	})

	t.Run("load is the identity", func(t *testing.T) {
		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	})

	t.Run("save overwrites", func(t *testing.T) {
		doc.News = append(doc.News, models.News{ID: 2, Title: "Exams", Content: "Soon", Author: "Office", Date: "2024-02-01"})
		require.NoError(t, s.Save(ctx, doc))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, got.News, 2)

		var rows int
		require.NoError(t, s.DB.Get(&rows, "SELECT COUNT(*) FROM documents"))
		assert.Equal(t, 1, rows)
	})
}
