// Package leadstore persists consented leads in PostgreSQL.
package leadstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	leadx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/lead"
)

var ErrLeadNotFound = contractx.ErrLeadNotFound

const (
	DefaultListLimit = 50
	maxListLimit     = 500
)

type Config struct {
	DSN     string
	Timeout time.Duration `default:"5s"`
}

// Row is the leads table. One row per session, overwritten on every
// consented turn.
type Row struct {
	bun.BaseModel `bun:"table:leads,alias:l" json:"-"`

	SessionID      string            `bun:"session_id,pk" json:"session_id"`
	Stage          string            `bun:"stage,notnull" json:"stage"`
	Percent        int               `bun:"percent,notnull" json:"percent"`
	Name           string            `bun:"name" json:"name"`
	Phone          string            `bun:"phone" json:"phone"`
	Email          string            `bun:"email" json:"email"`
	DocumentType   string            `bun:"document_type" json:"document_type"`
	DocumentNumber string            `bun:"document_number" json:"document_number"`
	PropertyType   string            `bun:"property_type" json:"property_type"`
	District       string            `bun:"district" json:"district"`
	Zone           string            `bun:"zone" json:"zone"`
	ProjectID      string            `bun:"project_id" json:"project_id"`
	AreaM2         int               `bun:"area_m2" json:"area_m2"`
	Rooms          int               `bun:"rooms" json:"rooms"`
	BudgetMin      int64             `bun:"budget_min" json:"budget_min"`
	BudgetMax      int64             `bun:"budget_max" json:"budget_max"`
	BudgetCurrency string            `bun:"budget_currency" json:"budget_currency"`
	Timeline       string            `bun:"timeline" json:"timeline"`
	ConsentAt      time.Time         `bun:"consent_at,notnull" json:"consent_at"`
	Provenance     map[string]string `bun:"provenance,type:jsonb" json:"provenance"`

	CreatedAt         time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt         time.Time `bun:"updated_at,notnull" json:"updated_at"`
	LastInteractionAt time.Time `bun:"last_interaction_at,notnull" json:"last_interaction_at"`
}

// upsertColumns are refreshed on conflict; created_at is kept.
var upsertColumns = []string{
	"stage", "percent",
	"name", "phone", "email", "document_type", "document_number",
	"property_type", "district", "zone", "project_id",
	"area_m2", "rooms", "budget_min", "budget_max", "budget_currency", "timeline",
	"consent_at", "provenance", "updated_at", "last_interaction_at",
}

// RowFrom converts a consented lead. Leads without consent have no row.
func RowFrom(sessionID string, d leadx.Data) (*Row, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: empty session id", contractx.ErrValidation)
	}
	if !d.ConsentGranted() {
		return nil, fmt.Errorf("%w: lead %s has no consent", contractx.ErrConsentViolation, sessionID)
	}

	prov := make(map[string]string, len(d.Provenance))
	for k, p := range d.Provenance {
		prov[string(k)] = string(p)
	}
	completeness := d.Completeness()

	return &Row{
		SessionID:         sessionID,
		Stage:             string(d.Stage()),
		Percent:           completeness.Percent,
		Name:              d.Name,
		Phone:             d.Phone,
		Email:             d.Email,
		DocumentType:      d.DocumentType,
		DocumentNumber:    d.DocumentNumber,
		PropertyType:      d.PropertyType,
		District:          d.District,
		Zone:              d.Zone,
		ProjectID:         d.ProjectID,
		AreaM2:            d.AreaM2,
		Rooms:             d.Rooms,
		BudgetMin:         d.BudgetMin,
		BudgetMax:         d.BudgetMax,
		BudgetCurrency:    d.BudgetCurrency,
		Timeline:          d.Timeline,
		ConsentAt:         d.ConsentAt.UTC(),
		Provenance:        prov,
		CreatedAt:         d.CreatedAt.UTC(),
		UpdatedAt:         d.UpdatedAt.UTC(),
		LastInteractionAt: d.LastInteractionAt.UTC(),
	}, nil
}

// Lead converts the row back to the lead record.
func (r *Row) Lead() leadx.Data {
	consentAt := r.ConsentAt.UTC()
	d := leadx.Data{
		Name:              r.Name,
		Phone:             r.Phone,
		Email:             r.Email,
		DocumentType:      r.DocumentType,
		DocumentNumber:    r.DocumentNumber,
		PropertyType:      r.PropertyType,
		District:          r.District,
		Zone:              r.Zone,
		ProjectID:         r.ProjectID,
		AreaM2:            r.AreaM2,
		Rooms:             r.Rooms,
		BudgetMin:         r.BudgetMin,
		BudgetMax:         r.BudgetMax,
		BudgetCurrency:    r.BudgetCurrency,
		Timeline:          r.Timeline,
		Consent:           leadx.ConsentGranted,
		ConsentAt:         &consentAt,
		Provenance:        make(map[fieldx.Kind]leadx.Provenance, len(r.Provenance)),
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
		LastInteractionAt: r.LastInteractionAt.UTC(),
	}
	for k, p := range r.Provenance {
		d.Provenance[fieldx.Kind(k)] = leadx.Provenance(p)
	}
	return d
}

// Store is the bun-backed lead repository.
type Store struct {
	db      *bun.DB
	timeout time.Duration
}

// Open connects to PostgreSQL with pgdriver. The connection is lazy; call
// Ping or CreateSchema to check it.
func Open(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("lead store dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return New(bun.NewDB(sqldb, pgdialect.New()), cfg.Timeout), nil
}

func New(db *bun.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{db: db, timeout: timeout}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *Store) CreateSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.NewCreateTable().Model((*Row)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create leads table: %w", err)
	}
	_, err := s.db.NewCreateIndex().
		Model((*Row)(nil)).
		Index("leads_stage_updated_idx").
		IfNotExists().
		Column("stage", "updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create leads index: %w", err)
	}
	return nil
}

// SaveLead upserts the consented snapshot of a session's lead.
func (s *Store) SaveLead(ctx context.Context, sessionID string, lead leadx.Data) error {
	row, err := RowFrom(sessionID, lead)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.upsertQuery(row).Exec(ctx); err != nil {
		return fmt.Errorf("upsert lead %s: %w", sessionID, err)
	}
	return nil
}

func (s *Store) upsertQuery(row *Row) *bun.InsertQuery {
	q := s.db.NewInsert().Model(row).On("CONFLICT (session_id) DO UPDATE")
	for _, col := range upsertColumns {
		q = q.Set("? = EXCLUDED.?", bun.Ident(col), bun.Ident(col))
	}
	return q
}

func (s *Store) GetLead(ctx context.Context, sessionID string) (leadx.Data, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := new(Row)
	err := s.getQuery(row, sessionID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return leadx.Data{}, fmt.Errorf("%w: %s", ErrLeadNotFound, sessionID)
	}
	if err != nil {
		return leadx.Data{}, fmt.Errorf("get lead %s: %w", sessionID, err)
	}
	return row.Lead(), nil
}

func (s *Store) getQuery(row *Row, sessionID string) *bun.SelectQuery {
	return s.db.NewSelect().Model(row).Where("? = ?", bun.Ident("session_id"), sessionID).Limit(1)
}

// ListLeads returns rows newest first. A non-positive limit means
// DefaultListLimit.
func (s *Store) ListLeads(ctx context.Context, limit, offset int) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []Row
	if err := s.listQuery(&rows, limit, offset).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return rows, nil
}

func (s *Store) listQuery(rows *[]Row, limit, offset int) *bun.SelectQuery {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.db.NewSelect().Model(rows).OrderExpr("? DESC", bun.Ident("updated_at")).Limit(limit).Offset(offset)
}
