package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"leadflow_backend/internal/activity"
	"leadflow_backend/internal/workflow/domain"
	"leadflow_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	constraintActiveOrderIndex = "step_master_active_order_idx"
	constraintLeadStepUnique   = "lead_steps_lead_id_step_id_key"
)

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	runner   *db.TxRunner
	activity *activity.Writer
}

// NewPostgresStore creates a store running transactions through runner.
func NewPostgresStore(runner *db.TxRunner, writer *activity.Writer) *PostgresStore {
	return &PostgresStore{runner: runner, activity: writer}
}

// WithTx implements Store.
func (s *PostgresStore) WithTx(ctx context.Context, op string, fn func(ctx context.Context, tx Tx) error) error {
	return s.runner.Serializable(ctx, op, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx, activity: s.activity})
	})
}

type pgTx struct {
	tx       pgx.Tx
	activity *activity.Writer
}

// =============================================================================
// Step templates
// =============================================================================

const templateColumns = `id, name, order_index, allowed_roles, remarks_required, attachments_allowed, customer_upload, is_active, created_at, updated_at`

func scanTemplate(row pgx.Row) (domain.StepTemplate, error) {
	var t domain.StepTemplate
	var roles []string
	if err := row.Scan(&t.ID, &t.Name, &t.OrderIndex, &roles, &t.RemarksRequired, &t.AttachmentsAllowed,
		&t.CustomerUpload, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return domain.StepTemplate{}, err
	}
	t.AllowedRoles = make([]domain.Role, 0, len(roles))
	for _, r := range roles {
		t.AllowedRoles = append(t.AllowedRoles, domain.Role(r))
	}
	return t, nil
}

func roleStrings(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func (p *pgTx) ListTemplates(ctx context.Context, includeInactive bool) ([]domain.StepTemplate, error) {
	rows, err := p.tx.Query(ctx, `
		SELECT `+templateColumns+`
		FROM step_master
		WHERE is_active OR $1
		ORDER BY is_active DESC, order_index ASC, created_at ASC
	`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]domain.StepTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return templates, nil
}

func (p *pgTx) GetTemplate(ctx context.Context, id uuid.UUID) (domain.StepTemplate, error) {
	t, err := scanTemplate(p.tx.QueryRow(ctx, `
		SELECT `+templateColumns+`
		FROM step_master
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StepTemplate{}, ErrNotFound
	}
	return t, err
}

func (p *pgTx) InsertTemplate(ctx context.Context, t domain.StepTemplate) error {
	_, err := p.tx.Exec(ctx, `
		INSERT INTO step_master (
			id,
			name,
			order_index,
			allowed_roles,
			remarks_required,
			attachments_allowed,
			customer_upload,
			is_active,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, t.Name, t.OrderIndex, roleStrings(t.AllowedRoles), t.RemarksRequired, t.AttachmentsAllowed,
		t.CustomerUpload, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if db.IsUniqueViolation(err, constraintActiveOrderIndex) {
		return ErrOrderIndexTaken
	}
	return err
}

func (p *pgTx) UpdateTemplate(ctx context.Context, t domain.StepTemplate) error {
	tag, err := p.tx.Exec(ctx, `
		UPDATE step_master
		SET name = $2,
			order_index = $3,
			allowed_roles = $4,
			remarks_required = $5,
			attachments_allowed = $6,
			customer_upload = $7,
			is_active = $8,
			updated_at = $9
		WHERE id = $1
	`, t.ID, t.Name, t.OrderIndex, roleStrings(t.AllowedRoles), t.RemarksRequired, t.AttachmentsAllowed,
		t.CustomerUpload, t.IsActive, t.UpdatedAt)
	if db.IsUniqueViolation(err, constraintActiveOrderIndex) {
		return ErrOrderIndexTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgTx) SetOrderIndexes(ctx context.Context, indexes map[uuid.UUID]int) error {
	if len(indexes) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(indexes))
	values := make([]int32, 0, len(indexes))
	for id, idx := range indexes {
		ids = append(ids, id)
		values = append(values, int32(idx))
	}

	// Park every affected row on a distinct negative index first so the
	// partial unique index never sees two active rows on one value.
	if _, err := p.tx.Exec(ctx, `
		UPDATE step_master
		SET order_index = -order_index - 1
		WHERE id = ANY($1)
	`, ids); err != nil {
		if db.IsUniqueViolation(err, constraintActiveOrderIndex) {
			return ErrOrderIndexTaken
		}
		return err
	}

	tag, err := p.tx.Exec(ctx, `
		UPDATE step_master s
		SET order_index = v.idx, updated_at = now()
		FROM unnest($1::uuid[], $2::int[]) AS v(id, idx)
		WHERE s.id = v.id
	`, ids, values)
	if db.IsUniqueViolation(err, constraintActiveOrderIndex) {
		return ErrOrderIndexTaken
	}
	if err != nil {
		return err
	}
	if int(tag.RowsAffected()) != len(ids) {
		return ErrNotFound
	}
	return nil
}

func (p *pgTx) LockRegistry(ctx context.Context) error {
	_, err := p.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('step_master'))`)
	return err
}

// =============================================================================
// Leads
// =============================================================================

const leadColumns = `id, status, created_by, customer_account_id, installer_id, source, name, phone, email, notes, created_at, updated_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var l domain.Lead
	var status, source string
	if err := row.Scan(&l.ID, &status, &l.CreatedBy, &l.CustomerAccountID, &l.InstallerID, &source,
		&l.Name, &l.Phone, &l.Email, &l.Notes, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return domain.Lead{}, err
	}
	l.Status = domain.LeadStatus(status)
	l.Source = domain.LeadSource(source)
	return l, nil
}

func (p *pgTx) GetLead(ctx context.Context, id uuid.UUID, forUpdate bool) (domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	l, err := scanLead(p.tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return l, err
}

func (p *pgTx) InsertLead(ctx context.Context, l domain.Lead) error {
	_, err := p.tx.Exec(ctx, `
		INSERT INTO leads (
			id,
			status,
			created_by,
			customer_account_id,
			installer_id,
			source,
			name,
			phone,
			email,
			notes,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, l.ID, string(l.Status), l.CreatedBy, l.CustomerAccountID, l.InstallerID, string(l.Source),
		l.Name, l.Phone, l.Email, l.Notes, l.CreatedAt, l.UpdatedAt)
	return err
}

func (p *pgTx) UpdateLead(ctx context.Context, l domain.Lead) error {
	tag, err := p.tx.Exec(ctx, `
		UPDATE leads
		SET status = $2,
			customer_account_id = $3,
			installer_id = $4,
			updated_at = $5
		WHERE id = $1
	`, l.ID, string(l.Status), l.CustomerAccountID, l.InstallerID, l.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgTx) FindUnlinkedLeadByPhone(ctx context.Context, phone string) (domain.Lead, error) {
	l, err := scanLead(p.tx.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE phone = $1 AND customer_account_id IS NULL
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE
	`, phone))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return l, err
}

func (p *pgTx) LockPhone(ctx context.Context, phone string) error {
	_, err := p.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "lead-phone:"+phone)
	return err
}

// =============================================================================
// Lead steps
// =============================================================================

const stepColumns = `id, lead_id, step_id, status, completed_by, completed_at, remarks, attachments, created_at, updated_at`

func scanStep(row pgx.Row) (domain.LeadStep, error) {
	var s domain.LeadStep
	var status string
	var remarks, attachments []byte
	if err := row.Scan(&s.ID, &s.LeadID, &s.StepID, &status, &s.CompletedBy, &s.CompletedAt,
		&remarks, &attachments, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return domain.LeadStep{}, err
	}
	s.Status = domain.StepStatus(status)

	parsed, err := domain.ParseRemarks(remarks)
	if err != nil {
		return domain.LeadStep{}, fmt.Errorf("decode remarks of step %s: %w", s.ID, err)
	}
	s.Remarks = parsed

	s.Attachments = []domain.Attachment{}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &s.Attachments); err != nil {
			return domain.LeadStep{}, fmt.Errorf("decode attachments of step %s: %w", s.ID, err)
		}
	}
	return s, nil
}

func encodeStepPayload(s domain.LeadStep) (remarks []byte, attachments []byte, err error) {
	if s.Remarks != nil {
		remarks, err = json.Marshal(s.Remarks)
		if err != nil {
			return nil, nil, err
		}
	}
	list := s.Attachments
	if list == nil {
		list = []domain.Attachment{}
	}
	attachments, err = json.Marshal(list)
	return remarks, attachments, err
}

func (p *pgTx) ListLeadSteps(ctx context.Context, leadID uuid.UUID) ([]domain.LeadStep, error) {
	rows, err := p.tx.Query(ctx, `
		SELECT `+stepColumns+`
		FROM lead_steps
		WHERE lead_id = $1
		ORDER BY created_at ASC, id
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := make([]domain.LeadStep, 0)
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return steps, nil
}

func (p *pgTx) GetLeadStep(ctx context.Context, leadID, stepID uuid.UUID, forUpdate bool) (domain.LeadStep, error) {
	query := `SELECT ` + stepColumns + ` FROM lead_steps WHERE lead_id = $1 AND step_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	s, err := scanStep(p.tx.QueryRow(ctx, query, leadID, stepID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LeadStep{}, ErrNotFound
	}
	return s, err
}

func (p *pgTx) InsertLeadSteps(ctx context.Context, steps []domain.LeadStep) error {
	if len(steps) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range steps {
		remarks, attachments, err := encodeStepPayload(s)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO lead_steps (
				id,
				lead_id,
				step_id,
				status,
				completed_by,
				completed_at,
				remarks,
				attachments,
				created_at,
				updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, s.ID, s.LeadID, s.StepID, string(s.Status), s.CompletedBy, s.CompletedAt, remarks, attachments, s.CreatedAt, s.UpdatedAt)
	}

	results := p.tx.SendBatch(ctx, batch)
	defer results.Close()

	for range steps {
		if _, err := results.Exec(); err != nil {
			if db.IsUniqueViolation(err, constraintLeadStepUnique) {
				return ErrStepExists
			}
			return err
		}
	}
	return nil
}

func (p *pgTx) UpdateLeadStep(ctx context.Context, s domain.LeadStep) error {
	remarks, attachments, err := encodeStepPayload(s)
	if err != nil {
		return err
	}

	tag, err := p.tx.Exec(ctx, `
		UPDATE lead_steps
		SET status = $2,
			completed_by = $3,
			completed_at = $4,
			remarks = $5,
			attachments = $6,
			updated_at = $7
		WHERE id = $1
	`, s.ID, string(s.Status), s.CompletedBy, s.CompletedAt, remarks, attachments, s.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// Activity
// =============================================================================

func (p *pgTx) RecordActivity(ctx context.Context, entry activity.Entry) (activity.Entry, error) {
	return p.activity.Record(ctx, p.tx, entry)
}

func (p *pgTx) ListActivity(ctx context.Context, leadID uuid.UUID) ([]activity.Entry, error) {
	return p.activity.ListForLead(ctx, p.tx, leadID)
}
