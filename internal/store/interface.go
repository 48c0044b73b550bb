package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/eduportal/internal/models"
)

// ErrNoDocument is returned by Load when nothing has been saved under the key yet.
var ErrNoDocument = errors.New("document not found")

// DocumentStore keeps the whole domain store as one JSON value under one key.
// Every Save overwrites the previous value: there is no concurrency control
// between processes sharing a key.
type DocumentStore interface {
	Close() error
	Load(ctx context.Context) (*models.Document, error)
	Save(ctx context.Context, doc *models.Document) error
}

func Encode(doc *models.Document) ([]byte, error) {
	doc.Normalize()
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

func Decode(data []byte) (*models.Document, error) {
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	doc.Normalize()
	return &doc, nil
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
	Key       string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory in name order,
// translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) Load(ctx context.Context) (*models.Document, error) {
	var body string
	query := s.Converter(`
		SELECT body
		FROM documents
		WHERE doc_key = ?
	`)

	err := s.DB.GetContext(ctx, &body, query, s.Key)
	if err == sql.ErrNoRows {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", s.Key, err)
	}
	return Decode([]byte(body))
}

func (s *BaseStore) Save(ctx context.Context, doc *models.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	query := s.Converter(`
		INSERT INTO documents (doc_key, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(doc_key) DO UPDATE SET
		body = excluded.body,
		updated_at = excluded.updated_at
	`)
	if _, err := s.DB.ExecContext(ctx, query, s.Key, string(data), time.Now().UTC().Unix()); err != nil {
		return fmt.Errorf("failed to save document %s: %w", s.Key, err)
	}
	return nil
}
