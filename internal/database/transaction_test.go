package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (DB, sqlmock.Sqlmock) {
	t.Helper()

	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	log := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewDatabaseInstance(sqlx.NewDb(raw, "postgres"), log), mock
}

// writeMatch mirrors the repository write idiom: open via GetTx, defer the
// rollback, commit on success.
func writeMatch(ctx context.Context, db DB) error {
	ctx, tx, err := db.GetTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.ExecContext(ctx, "INSERT INTO matches (id) VALUES ($1)", "m1"); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func TestGetTxRollsBackOnWriteError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO matches").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := writeMatch(context.Background(), db)
	require.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTxCommitsOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO matches").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, writeMatch(context.Background(), db))

	// the deferred rollback after a successful commit must not reach the store
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTxRollsBackOnCommitError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO matches").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := writeMatch(context.Background(), db)
	require.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTxNestedCallerCannotClose(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	ctx, outer, err := db.GetTx(context.Background(), nil)
	require.NoError(t, err)

	nestedCtx, nested, err := db.GetTx(ctx, nil)
	require.NoError(t, err)

	// a joiner's commit and rollback leave the opener's transaction untouched
	require.NoError(t, nested.Commit(nestedCtx))
	require.NoError(t, nested.Rollback(nestedCtx))
	assert.True(t, outer.IsOpen())

	require.NoError(t, outer.Commit(ctx))
	assert.False(t, outer.IsOpen())

	assert.NoError(t, mock.ExpectationsWereMet())
}
