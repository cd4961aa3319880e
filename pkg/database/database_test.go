package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{User: "crm", Password: "s3cret", Host: "db:5432", Name: "crm"}
	assert.Equal(t, "postgres://crm:s3cret@db:5432/crm?sslmode=require&timezone=utc", cfg.DSN())

	cfg.DisableTLS = true
	cfg.ApplicationName = "leads-api"
	assert.Equal(t, "postgres://crm:s3cret@db:5432/crm?application_name=leads-api&sslmode=disable&timezone=utc", cfg.DSN())
}

func TestStatusCheck(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer raw.Close()

	mock.ExpectPing()
	mock.ExpectQuery(`SELECT true`).WillReturnRows(sqlmock.NewRows([]string{"bool"}).AddRow(true))

	db := sqlx.NewDb(raw, "postgres")
	require.NoError(t, StatusCheck(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusCheckCancelled(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer raw.Close()

	mock.ExpectPing().WillReturnError(assert.AnError)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	db := sqlx.NewDb(raw, "postgres")
	assert.ErrorIs(t, StatusCheck(ctx, db), context.Canceled)
}
