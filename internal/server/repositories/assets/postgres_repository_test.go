package assets

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var columns = []string{"id", "vault_id", "storage_path", "salt", "nonce", "checksum", "size_bytes", "category",
	"format", "chunk_size", "superseded_at", "created_at"}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+encrypted_assets.*RETURNING\s+id,\s*created_at`).
		WithArgs("v-1", "assets/a/b", []byte("s"), []byte("n"), "abc", int64(42), "document", "aead-v1", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("a-1", now))

	got, err := repo.Create(context.Background(), &models.EncryptedAsset{
		VaultID: "v-1", StoragePath: "assets/a/b", Salt: []byte("s"), Nonce: []byte("n"),
		Checksum: "abc", SizeBytes: 42, Category: "document", Format: "aead-v1",
	})
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.ID)
}

func TestSupersede(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	q := `(?s)^UPDATE\s+encrypted_assets\s+SET\s+superseded_at\s*=\s*\$3.*superseded_at\s+IS\s+NULL$`

	t.Run("ok", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WithArgs("a-1", "v-1", at).WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Supersede(context.Background(), "a-1", "v-1", at))
	})

	t.Run("already superseded or foreign vault", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WithArgs("a-1", "v-2", at).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Supersede(context.Background(), "a-1", "v-2", at), common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(q).WillReturnError(errors.New("db down"))
		assert.ErrorContains(t, repo.Supersede(context.Background(), "a-1", "v-1", at), "db error")
	})
}

func TestListCurrent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(columns).
		AddRow("a-1", "v-1", "assets/a/b", []byte("s"), []byte("n"), "abc", int64(10), "photo", "segmented-v1", 1048576, nil, now)

	mock.ExpectQuery(`(?s)FROM\s+encrypted_assets\s+WHERE\s+vault_id\s*=\s*\$1\s+AND\s+superseded_at\s+IS\s+NULL`).
		WithArgs("v-1").
		WillReturnRows(rows)

	got, err := repo.ListCurrent(context.Background(), "v-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1048576, got[0].ChunkSize)
	assert.Nil(t, got[0].SupersededAt)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+encrypted_assets\s+WHERE\s+id\s*=\s*\$1`).WithArgs("x").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
