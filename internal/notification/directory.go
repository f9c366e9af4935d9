package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrLeadNotFound is returned when the lead of a notification no longer exists.
var ErrLeadNotFound = errors.New("lead not found")

// LeadParties are the users directly attached to a lead.
type LeadParties struct {
	Name      string
	CreatedBy uuid.UUID
	Customer  *uuid.UUID
	Installer *uuid.UUID
	// CustomerEmail is empty when no customer account is linked.
	CustomerEmail string
}

// Directory resolves notification recipients.
type Directory interface {
	UsersWithRoles(ctx context.Context, roles []string) ([]uuid.UUID, error)
	LeadParties(ctx context.Context, leadID uuid.UUID) (LeadParties, error)
}

// PgDirectory reads recipients from the users and leads tables.
type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

func (d *PgDirectory) UsersWithRoles(ctx context.Context, roles []string) ([]uuid.UUID, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	rows, err := d.pool.Query(ctx, `
		SELECT id FROM users
		WHERE role = ANY($1) AND status = 'active'
		ORDER BY id
	`, roles)
	if err != nil {
		return nil, fmt.Errorf("query users by role: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan users by role: %w", err)
	}
	return ids, nil
}

func (d *PgDirectory) LeadParties(ctx context.Context, leadID uuid.UUID) (LeadParties, error) {
	var p LeadParties
	err := d.pool.QueryRow(ctx, `
		SELECT l.name, l.created_by, l.customer_account_id, l.installer_id, COALESCE(u.email, '')
		FROM leads l
		LEFT JOIN users u ON u.id = l.customer_account_id
		WHERE l.id = $1
	`, leadID).Scan(&p.Name, &p.CreatedBy, &p.Customer, &p.Installer, &p.CustomerEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeadParties{}, ErrLeadNotFound
	}
	if err != nil {
		return LeadParties{}, fmt.Errorf("query lead parties: %w", err)
	}
	return p, nil
}
