package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-reports/components/reports"
)

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tpl := reports.Template{
		ID:           "tpl-1",
		Name:         "Weekly",
		PageSettings: reports.DefaultPageSettings(),
		Elements: []reports.Element{
			{ID: "m", Kind: reports.KindMetric, Title: "Revenue", Config: map[string]any{"format": "currency"}, Position: reports.GridPosition{X: 2, Y: 1}, Size: reports.Size{Width: 3, Height: 2}},
		},
		CreatedAt: at,
		UpdatedAt: at,
	}
	_, err := store.Create(ctx, tpl)
	require.NoError(t, err)

	got, err := store.Get(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "Weekly", got.Name)
	require.Len(t, got.Elements, 1)
	assert.Equal(t, reports.GridPosition{X: 2, Y: 1}, got.Elements[0].Position)
	assert.Equal(t, "currency", got.Elements[0].Config["format"])
	assert.True(t, got.CreatedAt.Equal(at))

	got.Name = "Monthly"
	got.Elements = nil
	_, err = store.Update(ctx, got)
	require.NoError(t, err)
	again, err := store.Get(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "Monthly", again.Name)
	assert.NotNil(t, again.Elements)
	assert.Empty(t, again.Elements)

	_, err = store.Create(ctx, tpl)
	assert.Error(t, err, "duplicate ids must be rejected")

	require.NoError(t, store.Delete(ctx, "tpl-1"))
	_, err = store.Get(ctx, "tpl-1")
	assert.ErrorIs(t, err, reports.ErrTemplateNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "tpl-1"), reports.ErrTemplateNotFound)
	_, err = store.Update(ctx, tpl)
	assert.ErrorIs(t, err, reports.ErrTemplateNotFound)
}

func TestStoreListOrdersByCreation(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		_, err := store.Create(ctx, reports.Template{ID: id, Name: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	list, err := store.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, tpl := range list {
		ids = append(ids, tpl.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestStoreListOrdersWithinSameSecond(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	whole := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	_, err := store.Create(ctx, reports.Template{ID: "second", Name: "second", CreatedAt: whole.Add(500 * time.Millisecond)})
	require.NoError(t, err)
	_, err = store.Create(ctx, reports.Template{ID: "first", Name: "first", CreatedAt: whole})
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].ID)
	assert.Equal(t, "second", list[1].ID)
}

func TestFormatTimeIsFixedWidth(t *testing.T) {
	whole := formatTime(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	frac := formatTime(time.Date(2024, 1, 1, 10, 0, 0, 500_000_000, time.UTC))
	assert.Len(t, frac, len(whole))
	assert.Less(t, whole, frac)
	assert.Equal(t, "2024-01-01T10:00:00.000000000Z", whole)
}

func TestStoreSelections(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	alice := reports.ViewerContext{UserID: "alice"}

	id, err := store.Selection(ctx, alice, "tpl")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, store.SaveSelection(ctx, alice, "tpl", "e1"))
	require.NoError(t, store.SaveSelection(ctx, alice, "tpl", "e2"))
	id, _ = store.Selection(ctx, alice, "tpl")
	assert.Equal(t, "e2", id)

	require.NoError(t, store.SaveSelection(ctx, alice, "tpl", ""))
	id, _ = store.Selection(ctx, alice, "tpl")
	assert.Empty(t, id)

	require.NoError(t, store.SaveSelection(ctx, alice, "tpl", "e3"))
	store.ClearTemplate(ctx, "tpl")
	id, _ = store.Selection(ctx, alice, "tpl")
	assert.Empty(t, id)

	assert.Error(t, store.SaveSelection(ctx, reports.ViewerContext{}, "tpl", "e1"))
}

func TestStoreBacksService(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "nested", "reports.db"))
	require.NoError(t, err)
	defer store.Close()

	svc := reports.NewService(reports.Options{
		Store:      store,
		Selections: store,
		IDs:        &reports.SequenceGenerator{Prefix: "id-"},
	})
	ctx := context.Background()
	tpl, err := svc.CreateTemplate(ctx, reports.CreateTemplateRequest{GalleryID: "gallery.kpi_scorecard"})
	require.NoError(t, err)
	el, err := svc.AddElement(ctx, reports.AddElementRequest{TemplateID: tpl.ID, Kind: reports.KindText, Drop: reports.PixelPoint{X: 10, Y: 510}})
	require.NoError(t, err)
	assert.Equal(t, reports.GridPosition{X: 0, Y: 10}, el.Position)

	viewer := reports.ViewerContext{UserID: "u"}
	require.NoError(t, svc.SelectElement(ctx, viewer, tpl.ID, el.ID))
	selected, ok, err := svc.Selection(ctx, viewer, tpl.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, el.ID, selected.ID)

	stored, err := svc.GetTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Elements, len(tpl.Elements)+1)
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS report_templates").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS report_selections").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_report_templates_created_at").WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := New(db)
	require.NoError(t, err)
	return store, mock
}

func TestStoreWrapsDriverErrors(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT document FROM report_templates WHERE id = ?`)).
		WithArgs("tpl").
		WillReturnError(errors.New("disk I/O error"))

	_, err := store.Get(context.Background(), "tpl")
	require.Error(t, err)
	assert.NotErrorIs(t, err, reports.ErrTemplateNotFound)
	assert.Contains(t, err.Error(), "sqlstore: get tpl")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreMissingRowIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT document FROM report_templates WHERE id = ?`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"document"}))

	_, err := store.Get(context.Background(), "missing")
	assert.True(t, reports.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreListDecodeFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT document FROM report_templates ORDER BY created_at, id`)).
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(`{"id":"ok","name":"ok"}`).AddRow(`not json`))

	_, err := store.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlstore: decode")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewFailsWhenMigrationFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS report_templates").WillReturnError(errors.New("read-only"))
	_, err = New(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlstore: migrate")
	_, err = New(nil)
	assert.Error(t, err)
}
