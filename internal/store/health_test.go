package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_NilStoresAreUnhealthy(t *testing.T) {
	h := Check(context.Background(), nil, nil)
	assert.False(t, h.DB)
	assert.False(t, h.Redis)
	assert.False(t, h.OK())
}

func TestDBHealthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	assert.True(t, (&DB{Client: db}).Healthy(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBHealthy_ClosedConnection(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectClose()
	require.NoError(t, db.Close())

	assert.False(t, (&DB{Client: db}).Healthy(context.Background()))
}
