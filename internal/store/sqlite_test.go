package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cvedash/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cvedash.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []model.VulnerabilityRecord {
	return []model.VulnerabilityRecord{
		model.FromMap(map[string]interface{}{
			"cveId": "CVE-2024-0001", "bulletinType": "Alerte", "title": "Foo RCE",
			"publicationDate": "2024-01-02", "cvssScore": "9.8", "epssScore": "0.91",
			"vendor": "Foo", "product": "Bar", "affectedVersions": "1.0, 1.1",
			"cweType": "CWE-79", "description": "Remote code execution",
		}),
		model.FromMap(map[string]interface{}{
			"cveId": "CVE-2024-0002", "bulletinType": "Avis", "title": "Baz XSS",
			"publicationDate": "2024-01-03", "cvssScore": "n/a", "epssScore": "n/a",
			"vendor": "n/a", "product": "n/a", "affectedVersions": "n/a",
		}),
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	info, err := s.SaveRecords(ctx, "snapshot.json", sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, info.RecordCount)
	assert.Equal(t, "snapshot.json", info.Origin)

	stored, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, info.ID, stored.ID)
	assert.Equal(t, 2, stored.RecordCount)
	assert.True(t, stored.ImportedAt.Equal(info.ImportedAt))

	records, err := s.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "CVE-2024-0001", first.CVEID)
	assert.Equal(t, model.BulletinAlerte, first.BulletinType)
	assert.Equal(t, model.ValidScore(9.8), first.CVSS)
	assert.Equal(t, model.ValidScore(0.91), first.EPSS)
	assert.Equal(t, []string{"1.0", "1.1"}, first.AffectedVersions)
	assert.Equal(t, "CWE-79", first.CWEType)
	assert.Equal(t, "Remote code execution", first.Description)

	second := records[1]
	assert.False(t, second.CVSS.Valid)
	assert.Empty(t, second.Vendor)
	assert.Empty(t, second.AffectedVersions)
}

func TestSQLiteStore_SaveReplacesPreviousSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveRecords(ctx, "first", sampleRecords())
	require.NoError(t, err)
	_, err = s.SaveRecords(ctx, "second", sampleRecords()[:1])
	require.NoError(t, err)

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", info.Origin)

	records, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSQLiteStore_EmptySnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveRecords(ctx, "empty", nil)
	require.NoError(t, err)

	records, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteStore_NoSnapshot(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Info(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = s.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestNewSQLiteStore_BadPath(t *testing.T) {
	_, err := NewSQLiteStore(filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	assert.Error(t, err)
}

func TestSQLiteStore_Errors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	store := &SQLiteStore{db: db, now: time.Now}
	ctx := context.Background()

	t.Run("Begin Error", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("locked"))

		_, err := store.SaveRecords(ctx, "x", sampleRecords())
		assert.ErrorContains(t, err, "begin import")
	})

	t.Run("Insert Record Error Rolls Back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM records").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM snapshots").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO snapshots").
			WithArgs("x", 2, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectPrepare("INSERT INTO records").
			ExpectExec().
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := store.SaveRecords(ctx, "x", sampleRecords())
		assert.ErrorContains(t, err, "disk full")
	})

	t.Run("Info Query Error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, origin, record_count, imported_at FROM snapshots").
			WillReturnError(errors.New("query error"))

		_, err := store.Info(ctx)
		assert.ErrorContains(t, err, "query error")
		assert.NotErrorIs(t, err, ErrNoSnapshot)
	})

	t.Run("Fetch Scan Error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, origin, record_count, imported_at FROM snapshots").
			WillReturnRows(sqlmock.NewRows([]string{"id", "origin", "record_count", "imported_at"}).
				AddRow(1, "x", 1, time.Now()))
		mock.ExpectQuery("SELECT title, bulletin_type").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow("only one column"))

		_, err := store.Fetch(ctx)
		assert.ErrorContains(t, err, "scan record")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
