package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toshahriar/documenter/internal/model"
)

func newDocMock(t *testing.T) (*DocumentRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDocumentRepo(db), mock
}

func TestCreateWithSignersTransaction(t *testing.T) {
	repo, mock := newDocMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_signers").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_signers").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_activities").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc := &model.Document{Title: "NDA", UserID: "u-1"}
	signers := []model.DocumentSigner{
		{Name: "Ada", Email: "ada@example.com", Order: 1},
		{Name: "Grace", Email: "grace@example.com", Order: 2},
	}
	require.NoError(t, repo.CreateWithSigners(context.Background(), doc, signers))

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, model.StatusCreated, doc.Metadata.Status)
	require.Len(t, doc.Signers, 2)
	assert.Equal(t, model.StatusPending, doc.Signers[0].Status)
	assert.Equal(t, doc.ID, doc.Signers[0].DocumentID)
	// Exactly one activity for the whole batch, not one per signer.
	require.Len(t, doc.Activities, 1)
	assert.Equal(t, "Document created with 2 signers", doc.Activities[0].Metadata["message"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithSignersRollsBackOnSignerError(t *testing.T) {
	repo, mock := newDocMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_signers").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	doc := &model.Document{Title: "NDA", UserID: "u-1"}
	err := repo.CreateWithSigners(context.Background(), doc,
		[]model.DocumentSigner{{Name: "Ada", Email: "ada@example.com", Order: 1}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithSignersReplacesSignerSet(t *testing.T) {
	repo, mock := newDocMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM document_signers WHERE document_id=\\?").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE documents SET title=").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_signers").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_activities").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc := &model.Document{ID: "doc-1", Title: "NDA v2", UserID: "u-1",
		Metadata: model.Metadata{Status: model.StatusCreated}}
	err := repo.UpdateWithSigners(context.Background(), doc,
		[]model.DocumentSigner{{Name: "Ada", Email: "ada@example.com", Order: 1}})
	require.NoError(t, err)
	assert.Len(t, doc.Signers, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithSignersUnknownDocument(t *testing.T) {
	repo, mock := newDocMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM document_signers").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE documents SET title=").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	doc := &model.Document{ID: "missing", Title: "x"}
	err := repo.UpdateWithSigners(context.Background(), doc, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalytics(t *testing.T) {
	repo, mock := newDocMock(t)

	rows := sqlmock.NewRows([]string{"total", "total_sent", "total_signed", "total_declined", "total_completed"}).
		AddRow(10, 4, 2, 1, 3)
	mock.ExpectQuery("SELECT\\s+COUNT\\(\\*\\) AS total").
		WithArgs("u-1").
		WillReturnRows(rows)

	a, err := repo.Analytics(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, model.DocumentAnalytics{Total: 10, TotalSent: 4, TotalSigned: 2, TotalDeclined: 1, TotalCompleted: 3}, a)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingDocument(t *testing.T) {
	repo, mock := newDocMock(t)

	mock.ExpectExec("DELETE FROM documents WHERE id=\\?").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
