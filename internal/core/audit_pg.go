package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// auditSchema is applied by EnsureSchema. Statements are idempotent.
const auditSchema = `
CREATE TABLE IF NOT EXISTS console_audit_log (
	id          UUID PRIMARY KEY,
	action      TEXT NOT NULL,
	severity    TEXT NOT NULL,
	resource    TEXT NOT NULL,
	record_id   TEXT,
	user_id     TEXT,
	user_email  TEXT,
	role        TEXT,
	ip_address  INET,
	user_agent  TEXT,
	changes     JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS console_audit_log_created_at_idx ON console_audit_log (created_at DESC);
CREATE INDEX IF NOT EXISTS console_audit_log_resource_idx ON console_audit_log (resource, created_at DESC);
`

const auditColumns = `id, action, severity, resource, record_id, user_id, user_email,
	role, ip_address, user_agent, changes, created_at`

// PGAuditStore is an AuditLog backed by PostgreSQL.
type PGAuditStore struct {
	db DBTX
}

// NewPGAuditStore wraps db. Call EnsureSchema before first use.
func NewPGAuditStore(db DBTX) *PGAuditStore {
	return &PGAuditStore{db: db}
}

// EnsureSchema creates the audit table and indexes if missing.
func (s *PGAuditStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Record inserts entry.
func (s *PGAuditStore) Record(ctx context.Context, entry AuditEntry) error {
	id, err := uuid.Parse(entry.ID)
	if err != nil {
		id = uuid.New()
	}

	var changes []byte
	if entry.Changes != nil {
		changes, err = json.Marshal(entry.Changes)
		if err != nil {
			changes = nil
		}
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO console_audit_log (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		pgtype.UUID{Bytes: id, Valid: true},
		string(entry.Action),
		string(entry.Severity),
		entry.Resource,
		toPgText(entry.RecordID),
		toPgText(entry.UserID),
		toPgText(entry.UserEmail),
		toPgText(entry.Role),
		parseIP(entry.IPAddress),
		toPgText(entry.UserAgent),
		changes,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns matching entries, newest first.
func (s *PGAuditStore) List(ctx context.Context, filter AuditFilter) ([]AuditEntry, error) {
	query, args := buildAuditQuery(filter)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]AuditEntry, 0)
	for rows.Next() {
		entry, err := scanAuditRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return entries, nil
}

// Purge deletes entries created before cutoff.
func (s *PGAuditStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM console_audit_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge audit log: %w", err)
	}
	return tag.RowsAffected(), nil
}

// whereBuilder accumulates AND-ed equality and range conditions.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereBuilder) build() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func buildAuditQuery(filter AuditFilter) (string, []any) {
	var wb whereBuilder
	if filter.Resource != "" {
		wb.add("resource = $%d", filter.Resource)
	}
	if filter.Action != "" {
		wb.add("action = $%d", string(filter.Action))
	}
	if !filter.Since.IsZero() {
		wb.add("created_at >= $%d", filter.Since)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}

	query := "SELECT " + auditColumns + " FROM console_audit_log" + wb.build() +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(wb.args)+1)
	return query, append(wb.args, limit)
}

// scanAuditRow scans a single row from console_audit_log into an AuditEntry.
func scanAuditRow(rows pgx.Rows) (AuditEntry, error) {
	var (
		id        pgtype.UUID
		action    string
		severity  string
		resource  string
		recordID  pgtype.Text
		userID    pgtype.Text
		userEmail pgtype.Text
		role      pgtype.Text
		ipAddress *netip.Addr
		userAgent pgtype.Text
		changes   []byte
		createdAt pgtype.Timestamptz
	)

	err := rows.Scan(
		&id, &action, &severity, &resource, &recordID, &userID, &userEmail,
		&role, &ipAddress, &userAgent, &changes, &createdAt,
	)
	if err != nil {
		return AuditEntry{}, fmt.Errorf("scan audit row: %w", err)
	}

	entry := AuditEntry{
		Action:    AuditAction(action),
		Severity:  AuditSeverity(severity),
		Resource:  resource,
		RecordID:  recordID.String,
		UserID:    userID.String,
		UserEmail: userEmail.String,
		Role:      role.String,
		UserAgent: userAgent.String,
		CreatedAt: createdAt.Time,
	}
	if id.Valid {
		entry.ID = uuid.UUID(id.Bytes).String()
	}
	if ipAddress != nil {
		entry.IPAddress = ipAddress.String()
	}
	if changes != nil {
		_ = json.Unmarshal(changes, &entry.Changes)
	}
	return entry, nil
}

func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// parseIP strips a port and parses the address. Unparseable input is stored
// as NULL.
func parseIP(s string) *netip.Addr {
	if s == "" {
		return nil
	}
	host := s
	if h, _, err := net.SplitHostPort(s); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil
	}
	return &addr
}
