package translation

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO messages (text, language)")).
		WithArgs("Bonjour", "fr").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := NewRepo(db).Create(context.Background(), "Bonjour", "fr")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoCreateReportsSQLState(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO messages")).
		WillReturnError(&pq.Error{Code: "22001", Message: "value too long"})

	_, err = NewRepo(db).Create(context.Background(), "Bonjour", "fra")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlstate 22001")
}

func TestRepoList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, text, language")).
		WithArgs("fr", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "text", "language"}).
			AddRow(2, "Merci", "fr").
			AddRow(1, "Bonjour", "fr"))

	msgs, err := NewRepo(db).List(context.Background(), "fr", 2)
	require.NoError(t, err)
	assert.Equal(t, []Message{{2, "Merci", "fr"}, {1, "Bonjour", "fr"}}, msgs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS messages")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, EnsureSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
