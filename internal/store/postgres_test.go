package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	t.Parallel()
	st, mock := newTestPostgres(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sessions").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSession(t *testing.T) {
	t.Parallel()
	st, mock := newTestPostgres(t)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(pgxmock.AnyArg(), "comlex2", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sess, err := st.SaveSession(context.Background(), testEnvelope("comlex2"))
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "comlex2", sess.Exam)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSession(t *testing.T) {
	t.Parallel()
	st, mock := newTestPostgres(t)

	env := testEnvelope("step2")
	envJSON, err := json.Marshal(env)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, exam, envelope, created_at FROM sessions WHERE").
		WithArgs("abc-123").
		WillReturnRows(pgxmock.NewRows([]string{"id", "exam", "envelope", "created_at"}).
			AddRow("abc-123", "step2", envJSON, now))

	got, err := st.GetSession(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", got.ID)
	assert.Equal(t, "step2", got.Envelope.Exam)
	require.Len(t, got.Envelope.Rows, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSessionMissing(t *testing.T) {
	t.Parallel()
	st, mock := newTestPostgres(t)

	mock.ExpectQuery("SELECT id, exam, envelope, created_at FROM sessions WHERE").
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"id", "exam", "envelope", "created_at"}))

	_, err := st.GetSession(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
}

func TestPostgresStore_ListSessions(t *testing.T) {
	t.Parallel()
	st, mock := newTestPostgres(t)

	env := testEnvelope("comlex2")
	envJSON, err := json.Marshal(env)
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, exam, envelope, created_at FROM sessions WHERE exam").
		WithArgs("comlex2", 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "exam", "envelope", "created_at"}).
			AddRow("id-1", "comlex2", envJSON, now).
			AddRow("id-2", "comlex2", envJSON, now.Add(-time.Hour)))

	sessions, err := st.ListSessions(context.Background(), SessionFilter{Exam: "comlex2", Limit: 10})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "id-1", sessions[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteSession(t *testing.T) {
	t.Parallel()
	st, mock := newTestPostgres(t)

	mock.ExpectExec("DELETE FROM sessions").
		WithArgs("id-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, st.DeleteSession(context.Background(), "id-1"))

	mock.ExpectExec("DELETE FROM sessions").
		WithArgs("gone").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	err := st.DeleteSession(context.Background(), "gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
	require.NoError(t, mock.ExpectationsWereMet())
}
