package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, &Record{
			ID:           fmt.Sprintf("scan-%d", i),
			UserID:       "user-1",
			ProductName:  fmt.Sprintf("Biscoito %d", i),
			OverallScore: 3 + i,
			RiskLevel:    "high",
			ImageHash:    "abc",
			Provider:     "claude",
			Data:         json.RawMessage(`{"product_name":"Biscoito"}`),
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.Save(ctx, &Record{ID: "other", UserID: "user-2", ProductName: "Shampoo", CreatedAt: base}))

	t.Run("newest first", func(t *testing.T) {
		records, err := store.ListByUser(ctx, "user-1", 0)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "scan-2", records[0].ID)
		assert.Equal(t, "scan-0", records[2].ID)
		assert.Equal(t, 5, records[0].OverallScore)
		assert.JSONEq(t, `{"product_name":"Biscoito"}`, string(records[0].Data))
		assert.True(t, records[0].CreatedAt.Equal(base.Add(2*time.Minute)))
	})

	t.Run("limit", func(t *testing.T) {
		records, err := store.ListByUser(ctx, "user-1", 2)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("empty data defaults to object", func(t *testing.T) {
		records, err := store.ListByUser(ctx, "user-2", 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.JSONEq(t, `{}`, string(records[0].Data))
	})

	t.Run("unknown user", func(t *testing.T) {
		records, err := store.ListByUser(ctx, "nobody", 10)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("requires ids", func(t *testing.T) {
		assert.Error(t, store.Save(ctx, &Record{UserID: "user-1"}))
		assert.Error(t, store.Save(ctx, &Record{ID: "x"}))
	})
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, MaxLimit, ClampLimit(0))
	assert.Equal(t, MaxLimit, ClampLimit(-1))
	assert.Equal(t, MaxLimit, ClampLimit(500))
	assert.Equal(t, 10, ClampLimit(10))
}

func withPostgresMock(t *testing.T, fn func(*SQLStore, sqlmock.Sqlmock)) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS scan_history").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_scan_history_user").WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewSQLStore(context.Background(), db, "postgresql")
	require.NoError(t, err)
	fn(store, mock)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save uses numbered placeholders", func(t *testing.T) {
		withPostgresMock(t, func(store *SQLStore, mock sqlmock.Sqlmock) {
			mock.ExpectExec(`INSERT INTO scan_history .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10\)`).
				WithArgs("scan-1", "user-1", "Biscoito X", 3, "high", "hash", "", "openai", `{"a":1}`, sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(1, 1))

			err := store.Save(ctx, &Record{
				ID: "scan-1", UserID: "user-1", ProductName: "Biscoito X", OverallScore: 3,
				RiskLevel: "high", ImageHash: "hash", Provider: "openai", Data: json.RawMessage(`{"a":1}`),
			})
			assert.NoError(t, err)
		})
	})

	t.Run("save error", func(t *testing.T) {
		withPostgresMock(t, func(store *SQLStore, mock sqlmock.Sqlmock) {
			mock.ExpectExec("INSERT INTO scan_history").WillReturnError(errors.New("insert error"))
			assert.Error(t, store.Save(ctx, &Record{ID: "x", UserID: "u"}))
		})
	})

	t.Run("list", func(t *testing.T) {
		withPostgresMock(t, func(store *SQLStore, mock sqlmock.Sqlmock) {
			now := time.Now().UTC()
			rows := sqlmock.NewRows([]string{"id", "user_id", "product_name", "overall_score", "risk_level",
				"image_hash", "image_url", "provider", "data", "created_at"}).
				AddRow("scan-1", "user-1", "Biscoito X", 3, "high", "hash", "", "claude", `{}`, now)

			mock.ExpectQuery(`SELECT .* FROM scan_history WHERE user_id = \$1 .* LIMIT \$2`).
				WithArgs("user-1", MaxLimit).
				WillReturnRows(rows)

			records, err := store.ListByUser(ctx, "user-1", 1000)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "Biscoito X", records[0].ProductName)
		})
	})

	t.Run("list error", func(t *testing.T) {
		withPostgresMock(t, func(store *SQLStore, mock sqlmock.Sqlmock) {
			mock.ExpectQuery("SELECT").WillReturnError(errors.New("query error"))
			_, err := store.ListByUser(ctx, "user-1", 5)
			assert.Error(t, err)
		})
	})
}

func TestMigrateColumnTypes(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql"} {
		t.Run(driver, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec(`(?s)CREATE TABLE IF NOT EXISTS scan_history .*product_name TEXT NOT NULL.*image_url TEXT NOT NULL`).
				WillReturnResult(sqlmock.NewResult(0, 0))
			if driver == "postgres" {
				mock.ExpectExec("CREATE INDEX IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
			}

			_, err = NewSQLStore(context.Background(), db, driver)
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSaveLongValues(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	name := strings.Repeat("Biscoito recheado sabor morango ", 20)
	require.NoError(t, store.Save(ctx, &Record{ID: "long", UserID: "user-1", ProductName: name}))

	records, err := store.ListByUser(ctx, "user-1", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, name, records[0].ProductName)

	err = store.Save(ctx, &Record{ID: "x", UserID: strings.Repeat("u", MaxUserIDLength+1)})
	assert.ErrorContains(t, err, "user_id exceeds")
}

func TestNewSQLStoreUnknownDriver(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLStore(context.Background(), db, "oracle")
	assert.Error(t, err)
}
