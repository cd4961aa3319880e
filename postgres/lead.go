package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/phbpx/minicrm"
	"github.com/phbpx/minicrm/pkg/database"
)

// lib/pq errorCodeNames
// https://github.com/lib/pq/blob/master/error.go#L178
const (
	notNullViolation          = "23502"
	checkViolation            = "23514"
	invalidTextRepresentation = "22P02"
)

const leadColumns = `id, name, email, phone, company, assigned_to, status, follow_ups, created_at, modified_at`

// completeFollowUp flips isCompleted on the matching array element in a
// single statement, so concurrent completions on one lead never overwrite
// each other. Rows where the follow-up id is absent are not touched.
const completeFollowUp = `
	UPDATE leads
	SET follow_ups = (
		SELECT jsonb_agg(
			CASE WHEN f->>'id' = $2
				THEN jsonb_set(f, '{isCompleted}', 'true'::jsonb)
				ELSE f
			END ORDER BY ord)
		FROM jsonb_array_elements(follow_ups) WITH ORDINALITY AS t(f, ord)
	),
	modified_at = $3
	WHERE id = $1
	AND follow_ups @> jsonb_build_array(jsonb_build_object('id', $2::text))`

var _ minicrm.LeadStore = (*LeadStore)(nil)

type LeadStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewLeadStore(db *sqlx.DB) *LeadStore {
	return &LeadStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *LeadStore) ListAll(ctx context.Context) ([]minicrm.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC`

	var rows []leadRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("selecting leads: %w", err)
	}

	leads := make([]minicrm.Lead, len(rows))
	for i, r := range rows {
		leads[i] = r.lead()
	}
	return leads, nil
}

func (s *LeadStore) GetByID(ctx context.Context, id string) (minicrm.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	var row leadRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		return minicrm.Lead{}, translate(err, "selecting lead")
	}
	return row.lead(), nil
}

func (s *LeadStore) Create(ctx context.Context, nl minicrm.NewLead) (minicrm.Lead, error) {
	if err := nl.Validate(); err != nil {
		return minicrm.Lead{}, err
	}

	lead := nl.Lead(uuid.NewString(), s.now())

	query := `
	INSERT INTO leads (
		id, name, email, phone, company, assigned_to, status, follow_ups, created_at, modified_at
	) VALUES (
		:id, :name, :email, :phone, :company, :assigned_to, :status, :follow_ups, :created_at, :modified_at
	)`

	if _, err := s.db.NamedExecContext(ctx, query, toRow(lead)); err != nil {
		return minicrm.Lead{}, translate(err, "inserting lead")
	}
	return lead, nil
}

func (s *LeadStore) UpdateFields(ctx context.Context, id string, lu minicrm.LeadUpdate) (minicrm.Lead, error) {
	if err := lu.Validate(); err != nil {
		return minicrm.Lead{}, err
	}
	if lu.Empty() {
		return s.GetByID(ctx, id)
	}

	args := []interface{}{id}
	var sets []string
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if lu.Name != nil {
		set("name", *lu.Name)
	}
	if lu.Email != nil {
		set("email", *lu.Email)
	}
	if lu.Phone != nil {
		set("phone", *lu.Phone)
	}
	if lu.Company != nil {
		set("company", *lu.Company)
	}
	if lu.AssignedTo != nil {
		set("assigned_to", *lu.AssignedTo)
	}
	if lu.Status != nil {
		set("status", string(*lu.Status))
	}
	set("modified_at", s.now())

	query := fmt.Sprintf(`UPDATE leads SET %s WHERE id = $1 RETURNING %s`, strings.Join(sets, ", "), leadColumns)

	var row leadRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return minicrm.Lead{}, translate(err, "updating lead")
	}
	return row.lead(), nil
}

func (s *LeadStore) AppendFollowUp(ctx context.Context, id string, in minicrm.FollowUpInput) (minicrm.Lead, error) {
	raw, err := json.Marshal(in.FollowUp(uuid.NewString()))
	if err != nil {
		return minicrm.Lead{}, err
	}

	query := `
	UPDATE leads
	SET follow_ups = follow_ups || jsonb_build_array($2::jsonb), modified_at = $3
	WHERE id = $1
	RETURNING ` + leadColumns

	var row leadRow
	if err := s.db.GetContext(ctx, &row, query, id, string(raw), s.now()); err != nil {
		return minicrm.Lead{}, translate(err, "appending follow-up")
	}
	return row.lead(), nil
}

func (s *LeadStore) CompleteFollowUp(ctx context.Context, leadID, followUpID string) error {
	res, err := s.db.ExecContext(ctx, completeFollowUp, leadID, followUpID, s.now())
	if err != nil {
		return translate(err, "completing follow-up")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: tell a missing lead apart from a missing follow-up.
	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, leadID); err != nil {
		return translate(err, "checking lead")
	}
	if !exists {
		return minicrm.ErrLeadNotFound
	}
	return minicrm.ErrFollowUpNotFound
}

func (s *LeadStore) StatusCheck(ctx context.Context) error {
	return database.StatusCheck(ctx, s.db)
}

// translate maps driver errors onto the domain errors.
func translate(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return minicrm.ErrLeadNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case notNullViolation, checkViolation:
			return fmt.Errorf("%w: %s", minicrm.ErrInvalidLead, pqErr.Message)
		case invalidTextRepresentation:
			// Not a uuid, so no lead can have it.
			return minicrm.ErrLeadNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

type leadRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	Phone      string    `db:"phone"`
	Company    string    `db:"company"`
	AssignedTo string    `db:"assigned_to"`
	Status     string    `db:"status"`
	FollowUps  followUps `db:"follow_ups"`
	CreatedAt  time.Time `db:"created_at"`
	ModifiedAt time.Time `db:"modified_at"`
}

func toRow(l minicrm.Lead) leadRow {
	return leadRow{
		ID:         l.ID,
		Name:       l.Name,
		Email:      l.Email,
		Phone:      l.Phone,
		Company:    l.Company,
		AssignedTo: l.AssignedTo,
		Status:     string(l.Status),
		FollowUps:  followUps(l.FollowUps),
		CreatedAt:  l.CreatedAt,
		ModifiedAt: l.ModifiedAt,
	}
}

func (r leadRow) lead() minicrm.Lead {
	fus := []minicrm.FollowUp(r.FollowUps)
	if fus == nil {
		fus = []minicrm.FollowUp{}
	}
	return minicrm.Lead{
		ID:         r.ID,
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		Company:    r.Company,
		AssignedTo: r.AssignedTo,
		Status:     minicrm.Status(r.Status),
		FollowUps:  fus,
		CreatedAt:  r.CreatedAt.UTC(),
		ModifiedAt: r.ModifiedAt.UTC(),
	}
}

// followUps is the JSONB representation of a lead's follow-up list.
type followUps []minicrm.FollowUp

func (f *followUps) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*f = followUps{}
		return nil
	default:
		return fmt.Errorf("follow_ups: unsupported type %T", src)
	}
	return json.Unmarshal(raw, (*[]minicrm.FollowUp)(f))
}

// Value is sent as text; lib/pq would encode a []byte as bytea.
func (f followUps) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]minicrm.FollowUp(f))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
