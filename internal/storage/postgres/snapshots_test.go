package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSnapshotStore(t *testing.T) (*SnapshotStore, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return NewSnapshotStore(db), mock, db
}

func TestSnapshotStore_Upsert(t *testing.T) {
	store, mock, db := setupSnapshotStore(t)
	defer db.Close()

	t.Run("writes payload and returns the row", func(t *testing.T) {
		asOf := time.Date(2024, 6, 15, 3, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`INSERT INTO report_snapshots`).
			WithArgs(
				sqlmock.AnyArg(), // id (UUID)
				"executive",
				sqlmock.AnyArg(), // as_of
				sqlmock.AnyArg(), // payload JSONB
			).
			WillReturnRows(sqlmock.NewRows([]string{"id", "as_of", "created_at", "updated_at"}).
				AddRow("uuid-123", asOf, time.Now(), time.Now()))

		snap, err := store.Upsert(context.Background(), "executive", asOf, map[string]int{"total": 7})
		require.NoError(t, err)
		assert.Equal(t, "uuid-123", snap.ID)
		assert.Equal(t, "executive", snap.Scope)
		assert.JSONEq(t, `{"total":7}`, string(snap.Payload))

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an unmarshalable payload", func(t *testing.T) {
		_, err := store.Upsert(context.Background(), "executive", time.Now(), make(chan int))
		assert.Error(t, err)
	})
}

func TestSnapshotStore_Latest(t *testing.T) {
	store, mock, db := setupSnapshotStore(t)
	defer db.Close()

	t.Run("returns the newest snapshot", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, scope, as_of, payload`).
			WithArgs("executive").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "scope", "as_of", "payload", "created_at", "updated_at",
			}).AddRow("uuid-1", "executive", time.Now(), []byte(`{"total":3}`), time.Now(), time.Now()))

		snap, err := store.Latest(context.Background(), "executive")
		require.NoError(t, err)
		assert.Equal(t, "uuid-1", snap.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps no rows onto ErrSnapshotNotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, scope, as_of, payload`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := store.Latest(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSnapshotStore_List(t *testing.T) {
	store, mock, db := setupSnapshotStore(t)
	defer db.Close()

	t.Run("clamps unreasonable limits to the default", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, scope, as_of, payload`).
			WithArgs("executive", 30).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "scope", "as_of", "payload", "created_at", "updated_at",
			}))

		out, err := store.List(context.Background(), "executive", -5)
		require.NoError(t, err)
		assert.Empty(t, out)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("passes a sane limit through", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, scope, as_of, payload`).
			WithArgs("executive", 7).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "scope", "as_of", "payload", "created_at", "updated_at",
			}).
				AddRow("uuid-2", "executive", time.Now(), []byte(`{}`), time.Now(), time.Now()).
				AddRow("uuid-1", "executive", time.Now().AddDate(0, 0, -1), []byte(`{}`), time.Now(), time.Now()))

		out, err := store.List(context.Background(), "executive", 7)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "uuid-2", out[0].ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
