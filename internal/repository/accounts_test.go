package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertAccount = `INSERT INTO auth_accounts (id, email, display_name) VALUES ($1, $2, $3) RETURNING id`
	findAccount   = `SELECT id FROM auth_accounts WHERE email = $1`
)

func TestAccountRepository_CreateAccount(t *testing.T) {
	db, mock := newMock(t)
	repo := &AccountRepository{DB: db}

	mock.ExpectQuery(insertAccount).
		WithArgs(sqlmock.AnyArg(), "bot@infit.app", "InFit_Official").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("acc-1"))

	id, err := repo.CreateAccount(context.Background(), "bot@infit.app", "InFit_Official")

	require.NoError(t, err)
	assert.Equal(t, "acc-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_ExistingEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := &AccountRepository{DB: db}

	mock.ExpectQuery(insertAccount).
		WithArgs(sqlmock.AnyArg(), "bot@infit.app", "InFit_Official").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})
	mock.ExpectQuery(findAccount).
		WithArgs("bot@infit.app").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("acc-existing"))

	id, err := repo.CreateAccount(context.Background(), "bot@infit.app", "InFit_Official")

	require.NoError(t, err)
	assert.Equal(t, "acc-existing", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_OtherErrors(t *testing.T) {
	db, mock := newMock(t)
	repo := &AccountRepository{DB: db}

	mock.ExpectQuery(insertAccount).
		WithArgs(sqlmock.AnyArg(), "bot@infit.app", "InFit_Official").
		WillReturnError(&pq.Error{Code: "42P01", Message: "relation does not exist"})

	_, err := repo.CreateAccount(context.Background(), "bot@infit.app", "InFit_Official")

	assert.ErrorContains(t, err, "relation does not exist")
	assert.NoError(t, mock.ExpectationsWereMet())
}
