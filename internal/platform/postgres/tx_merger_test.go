package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/handset/internal/contacts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxMergerCommitsEachContact(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewTxMerger(db, discardLogger())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM contacts`)).
		WillReturnRows(sqlmock.NewRows(contactRowColumns))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO contacts`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := m.Import(context.Background(), contacts.Contact{Name: "Ada Lovelace", Tel: []string{"+442079460001"}})
	require.NoError(t, err)
	assert.False(t, result.Merged)
	assert.NotZero(t, result.Contact.ID)
}

func TestTxMergerRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewTxMerger(db, discardLogger())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM contacts`)).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := m.Import(context.Background(), contacts.Contact{Tel: []string{"555"}})
	assert.ErrorContains(t, err, "find duplicate")
}

func TestTxMergerRejectsEmptyContactInsideTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewTxMerger(db, discardLogger())

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := m.Import(context.Background(), contacts.Contact{})
	assert.ErrorIs(t, err, contacts.ErrContactEmpty)
}
