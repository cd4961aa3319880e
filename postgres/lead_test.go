package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/phbpx/minicrm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*LeadStore, sqlmock.Sqlmock) {
	t.Helper()

	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	store := NewLeadStore(sqlx.NewDb(raw, "postgres"))
	store.now = func() time.Time { return fixedNow }
	return store, mock
}

func leadRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "phone", "company", "assigned_to", "status", "follow_ups", "created_at", "modified_at",
	})
}

func TestLeadStore_ListAll(t *testing.T) {
	store, mock := newMockStore(t)

	older := fixedNow.Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM leads ORDER BY created_at DESC`)).
		WillReturnRows(leadRows().
			AddRow("b", "B", "b@x.com", "2", "", "", "New", []byte(`[]`), fixedNow, fixedNow).
			AddRow("a", "A", "a@x.com", "1", "Acme", "ann", "Converted",
				[]byte(`[{"id":"f1","date":"2024-01-01T00:00:00Z","notes":"call","isCompleted":false}]`), older, older))

	leads, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "b", leads[0].ID)
	assert.Empty(t, leads[0].FollowUps)
	assert.NotNil(t, leads[0].FollowUps)

	assert.Equal(t, minicrm.StatusConverted, leads[1].Status)
	require.Len(t, leads[1].FollowUps, 1)
	assert.Equal(t, "call", leads[1].FollowUps[0].Notes)
	assert.False(t, leads[1].FollowUps[0].IsCompleted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadStore_GetByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM leads WHERE id = $1`)).
		WithArgs("0b7b4c1e-8e0e-4a8e-9b8e-6d6c1c7f3a11").
		WillReturnRows(leadRows())

	_, err := store.GetByID(context.Background(), "0b7b4c1e-8e0e-4a8e-9b8e-6d6c1c7f3a11")
	assert.ErrorIs(t, err, minicrm.ErrLeadNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadStore_GetByIDMalformedID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM leads WHERE id = $1`)).
		WithArgs("nope").
		WillReturnError(&pq.Error{Code: invalidTextRepresentation, Message: "invalid input syntax for type uuid"})

	_, err := store.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, minicrm.ErrLeadNotFound)
}

func TestLeadStore_Create(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(sqlmock.AnyArg(), "A", "a@x.com", "1", "", "", "New", "[]", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	lead, err := store.Create(context.Background(), minicrm.NewLead{Name: "A", Email: "a@x.com", Phone: "1"})
	require.NoError(t, err)

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, minicrm.StatusNew, lead.Status)
	assert.Empty(t, lead.FollowUps)
	assert.Equal(t, fixedNow, lead.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadStore_CreateErrors(t *testing.T) {
	store, mock := newMockStore(t)

	_, err := store.Create(context.Background(), minicrm.NewLead{Name: "A"})
	assert.ErrorIs(t, err, minicrm.ErrInvalidLead)

	mock.ExpectExec(`INSERT INTO leads`).
		WillReturnError(&pq.Error{Code: checkViolation, Message: "violates check constraint"})

	_, err = store.Create(context.Background(), minicrm.NewLead{Name: "A", Email: "a@x.com", Phone: "1"})
	assert.ErrorIs(t, err, minicrm.ErrInvalidLead)

	mock.ExpectExec(`INSERT INTO leads`).WillReturnError(assert.AnError)

	_, err = store.Create(context.Background(), minicrm.NewLead{Name: "A", Email: "a@x.com", Phone: "1"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, minicrm.ErrInvalidLead)
}

func TestLeadStore_UpdateFields(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE leads SET assigned_to = $2, status = $3, modified_at = $4 WHERE id = $1 RETURNING`)).
		WithArgs("a", "bob", "Contacted", fixedNow).
		WillReturnRows(leadRows().
			AddRow("a", "A", "a@x.com", "1", "", "bob", "Contacted", []byte(`[]`), fixedNow.Add(-time.Hour), fixedNow))

	contacted := minicrm.StatusContacted
	bob := "bob"
	lead, err := store.UpdateFields(context.Background(), "a", minicrm.LeadUpdate{AssignedTo: &bob, Status: &contacted})
	require.NoError(t, err)

	assert.Equal(t, "bob", lead.AssignedTo)
	assert.Equal(t, minicrm.StatusContacted, lead.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadStore_UpdateFieldsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE leads SET`).WillReturnRows(leadRows())

	lost := minicrm.StatusLost
	_, err := store.UpdateFields(context.Background(), "a", minicrm.LeadUpdate{Status: &lost})
	assert.ErrorIs(t, err, minicrm.ErrLeadNotFound)
}

func TestLeadStore_UpdateFieldsEmptyReadsLead(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM leads WHERE id = $1`)).
		WithArgs("a").
		WillReturnRows(leadRows().AddRow("a", "A", "a@x.com", "1", "", "", "New", []byte(`[]`), fixedNow, fixedNow))

	lead, err := store.UpdateFields(context.Background(), "a", minicrm.LeadUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "A", lead.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadStore_AppendFollowUp(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`follow_ups = follow_ups || jsonb_build_array($2::jsonb)`)).
		WithArgs("a", sqlmock.AnyArg(), fixedNow).
		WillReturnRows(leadRows().AddRow("a", "A", "a@x.com", "1", "", "", "New",
			[]byte(`[{"id":"f1","date":"2024-01-01T00:00:00Z","notes":"call","isCompleted":false}]`), fixedNow, fixedNow))

	lead, err := store.AppendFollowUp(context.Background(), "a", minicrm.FollowUpInput{
		Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Notes: "call",
	})
	require.NoError(t, err)
	require.Len(t, lead.FollowUps, 1)
	assert.False(t, lead.FollowUps[0].IsCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadStore_AppendFollowUpNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE leads`).WillReturnRows(leadRows())

	_, err := store.AppendFollowUp(context.Background(), "a", minicrm.FollowUpInput{Date: fixedNow, Notes: "call"})
	assert.ErrorIs(t, err, minicrm.ErrLeadNotFound)
}

func TestLeadStore_CompleteFollowUp(t *testing.T) {
	completeQuery := regexp.QuoteMeta(`jsonb_set(f, '{isCompleted}', 'true'::jsonb)`)
	existsQuery := regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`)

	t.Run("completed", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(completeQuery).
			WithArgs("a", "f1", fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.CompleteFollowUp(context.Background(), "a", "f1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("follow-up missing", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(completeQuery).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(existsQuery).WithArgs("a").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		assert.ErrorIs(t, store.CompleteFollowUp(context.Background(), "a", "nope"), minicrm.ErrFollowUpNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lead missing", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(completeQuery).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(existsQuery).WithArgs("a").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		assert.ErrorIs(t, store.CompleteFollowUp(context.Background(), "a", "f1"), minicrm.ErrLeadNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store failure", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(completeQuery).WillReturnError(assert.AnError)

		err := store.CompleteFollowUp(context.Background(), "a", "f1")
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestFollowUpsValue(t *testing.T) {
	v, err := followUps(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var f followUps
	require.NoError(t, f.Scan(nil))
	assert.NotNil(t, f)
	assert.Error(t, f.Scan(42))
}
