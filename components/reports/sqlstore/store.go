// Package sqlstore persists report templates and viewer selections in SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-reports/components/reports"

	_ "modernc.org/sqlite" // SQLite driver.
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store keeps each template as a JSON document keyed by id.
type Store struct {
	db *sql.DB
}

var (
	_ reports.TemplateStore  = (*Store)(nil)
	_ reports.SelectionStore = (*Store)(nil)
)

// Open opens or creates the SQLite database at path and applies migrations.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// in-memory databases are per connection
	db.SetMaxOpenConns(1)
	store, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing handle and applies migrations.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlstore: db is required")
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS report_templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			document TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS report_selections (
			user_id TEXT NOT NULL,
			template_id TEXT NOT NULL,
			element_id TEXT NOT NULL,
			PRIMARY KEY (user_id, template_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_report_templates_created_at ON report_templates(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a new template. The id must be unused.
func (s *Store) Create(ctx context.Context, tpl reports.Template) (reports.Template, error) {
	if strings.TrimSpace(tpl.ID) == "" {
		return reports.Template{}, errors.New("sqlstore: template id is required")
	}
	doc, err := json.Marshal(tpl)
	if err != nil {
		return reports.Template{}, fmt.Errorf("sqlstore: encode %s: %w", tpl.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO report_templates (id, name, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		tpl.ID, tpl.Name, string(doc), formatTime(tpl.CreatedAt), formatTime(tpl.UpdatedAt),
	)
	if err != nil {
		return reports.Template{}, fmt.Errorf("sqlstore: insert %s: %w", tpl.ID, err)
	}
	return tpl, nil
}

// Get loads a template by id.
func (s *Store) Get(ctx context.Context, id string) (reports.Template, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM report_templates WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return reports.Template{}, fmt.Errorf("%w: %s", reports.ErrTemplateNotFound, id)
	}
	if err != nil {
		return reports.Template{}, fmt.Errorf("sqlstore: get %s: %w", id, err)
	}
	return decodeTemplate(doc)
}

// Update replaces the stored document.
func (s *Store) Update(ctx context.Context, tpl reports.Template) (reports.Template, error) {
	doc, err := json.Marshal(tpl)
	if err != nil {
		return reports.Template{}, fmt.Errorf("sqlstore: encode %s: %w", tpl.ID, err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE report_templates SET name = ?, document = ?, updated_at = ? WHERE id = ?`,
		tpl.Name, string(doc), formatTime(tpl.UpdatedAt), tpl.ID,
	)
	if err != nil {
		return reports.Template{}, fmt.Errorf("sqlstore: update %s: %w", tpl.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return reports.Template{}, fmt.Errorf("%w: %s", reports.ErrTemplateNotFound, tpl.ID)
	}
	return tpl, nil
}

// Delete removes a template and every selection pointing at it.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM report_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", reports.ErrTemplateNotFound, id)
	}
	s.ClearTemplate(ctx, id)
	return nil
}

// List returns templates ordered by creation time, then id.
func (s *Store) List(ctx context.Context) ([]reports.Template, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document FROM report_templates ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list: %w", err)
	}
	defer rows.Close()

	var out []reports.Template
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		tpl, err := decodeTemplate(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

// Selection returns the element selected by viewer on templateID, or "".
func (s *Store) Selection(ctx context.Context, viewer reports.ViewerContext, templateID string) (string, error) {
	if viewer.UserID == "" {
		return "", nil
	}
	var elementID string
	err := s.db.QueryRowContext(ctx,
		`SELECT element_id FROM report_selections WHERE user_id = ? AND template_id = ?`,
		viewer.UserID, templateID,
	).Scan(&elementID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlstore: selection: %w", err)
	}
	return elementID, nil
}

// SaveSelection stores the viewer's selection. An empty elementID clears it.
func (s *Store) SaveSelection(ctx context.Context, viewer reports.ViewerContext, templateID, elementID string) error {
	if viewer.UserID == "" {
		return errors.New("sqlstore: viewer user id is required")
	}
	var err error
	if elementID == "" {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM report_selections WHERE user_id = ? AND template_id = ?`,
			viewer.UserID, templateID)
	} else {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO report_selections (user_id, template_id, element_id) VALUES (?, ?, ?)
			 ON CONFLICT(user_id, template_id) DO UPDATE SET element_id = excluded.element_id`,
			viewer.UserID, templateID, elementID)
	}
	if err != nil {
		return fmt.Errorf("sqlstore: save selection: %w", err)
	}
	return nil
}

// ClearTemplate forgets every viewer selection on templateID.
func (s *Store) ClearTemplate(ctx context.Context, templateID string) {
	_, _ = s.db.ExecContext(ctx, `DELETE FROM report_selections WHERE template_id = ?`, templateID)
}

func decodeTemplate(doc string) (reports.Template, error) {
	var tpl reports.Template
	if err := json.Unmarshal([]byte(doc), &tpl); err != nil {
		return reports.Template{}, fmt.Errorf("sqlstore: decode: %w", err)
	}
	if tpl.Elements == nil {
		tpl.Elements = []reports.Element{}
	}
	return tpl, nil
}

// timeLayout keeps every fraction digit so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
