package core

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/salvationministries/console/internal/session"
	"github.com/salvationministries/console/internal/table"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID        string         `json:"id"`
	Action    AuditAction    `json:"action"`
	Severity  AuditSeverity  `json:"severity"`
	Resource  string         `json:"resource"`
	RecordID  string         `json:"recordId,omitempty"`
	UserID    string         `json:"userId,omitempty"`
	UserEmail string         `json:"userEmail,omitempty"`
	Role      string         `json:"role,omitempty"`
	IPAddress string         `json:"ipAddress,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	Changes   map[string]any `json:"changes,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// AuditFilter narrows an audit query. Zero values match everything.
type AuditFilter struct {
	Resource string
	Action   AuditAction
	Since    time.Time
	Limit    int
}

// DefaultAuditLimit bounds audit queries without an explicit limit.
const DefaultAuditLimit = 1000

// AuditLog persists and queries audit entries.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
	// Purge deletes entries created before cutoff and returns how many.
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// determineSeverity returns the severity for an action on a resource group.
func determineSeverity(action AuditAction, group string) AuditSeverity {
	finance := group == session.GroupFinance
	switch {
	case action == ActionDelete && finance:
		return SeverityCritical
	case action == ActionDelete, finance:
		return SeverityHigh
	case action == ActionUpdate:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// newAuditEntry fills identity and client details from ctx.
func newAuditEntry(ctx context.Context, action AuditAction, def ResourceDefinition, recordID string, changes map[string]any) AuditEntry {
	sess := session.Current(ctx)
	client := ClientInfoFromContext(ctx)
	return AuditEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Severity:  determineSeverity(action, def.Info.Group),
		Resource:  def.Info.Key,
		RecordID:  recordID,
		UserID:    sess.UserID,
		UserEmail: sess.Email,
		Role:      string(sess.Role),
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Changes:   changes,
		CreatedAt: time.Now().UTC(),
	}
}

// Record converts the entry to a table record for the audit log screen.
func (e AuditEntry) Record() table.Record {
	return table.Record{
		"id":        e.ID,
		"createdAt": e.CreatedAt.Format(time.RFC3339),
		"action":    string(e.Action),
		"severity":  string(e.Severity),
		"resource":  e.Resource,
		"recordId":  e.RecordID,
		"userEmail": e.UserEmail,
		"userId":    e.UserID,
		"role":      e.Role,
		"ipAddress": e.IPAddress,
		"changes":   e.Changes,
	}
}

// AuditDefinition describes the audit log screen with the same field specs
// resources use. It is not registered as a backend resource.
func AuditDefinition() ResourceDefinition {
	return ResourceDefinition{
		Info:    ResourceInfo{Key: "audit-log", Group: session.GroupAudit, Label: "Audit Log", Subject: "Audit Log"},
		IDField: "id",
		Fields: []FieldSpec{
			{Name: "createdAt", Label: "When", Type: FieldDate, Sortable: true},
			{Name: "action", Label: "Action", Type: FieldEnum, Sortable: true, Filterable: true, Searchable: true,
				EnumValues: []string{string(ActionCreate), string(ActionUpdate), string(ActionDelete)}},
			{Name: "severity", Label: "Severity", Type: FieldEnum, Sortable: true, Filterable: true,
				EnumValues: []string{string(SeverityLow), string(SeverityMedium), string(SeverityHigh), string(SeverityCritical)}},
			{Name: "resource", Label: "Resource", Type: FieldText, Sortable: true, Searchable: true},
			{Name: "recordId", Label: "Record", Type: FieldText, Searchable: true},
			{Name: "userEmail", Label: "User", Type: FieldText, Sortable: true, Searchable: true},
			{Name: "role", Label: "Role", Type: FieldText, Sortable: true},
			{Name: "ipAddress", Label: "IP", Type: FieldText, Hidden: true},
			{Name: "changes", Label: "Changes", Type: FieldLongText, Hidden: true},
		},
		DefaultSort:  "createdAt",
		DefaultOrder: table.Desc,
	}
}

// ----------------------------------------------------------------------------
// In-memory audit log
// ----------------------------------------------------------------------------

// DefaultMemoryAuditSize is the entry bound of a MemoryAuditLog.
const DefaultMemoryAuditSize = 5000

// MemoryAuditLog keeps the most recent entries in memory and writes each one
// to the structured log. It is used when no audit database is configured.
type MemoryAuditLog struct {
	mu      sync.RWMutex
	entries []AuditEntry
	max     int
	logger  *slog.Logger
}

// NewMemoryAuditLog keeps at most max entries. A nil logger uses slog.Default.
func NewMemoryAuditLog(max int, logger *slog.Logger) *MemoryAuditLog {
	if max <= 0 {
		max = DefaultMemoryAuditSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryAuditLog{max: max, logger: logger}
}

// Record stores entry, dropping the oldest entry when full.
func (m *MemoryAuditLog) Record(ctx context.Context, entry AuditEntry) error {
	m.logger.InfoContext(ctx, "audit",
		"action", entry.Action,
		"severity", entry.Severity,
		"resource", entry.Resource,
		"record_id", entry.RecordID,
		"user_id", entry.UserID,
		"role", entry.Role,
		"ip", entry.IPAddress,
	)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	if over := len(m.entries) - m.max; over > 0 {
		m.entries = slices.Delete(m.entries, 0, over)
	}
	return nil
}

// List returns matching entries, newest first.
func (m *MemoryAuditLog) List(_ context.Context, filter AuditFilter) ([]AuditEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []AuditEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.entries[i]
		if filter.Resource != "" && !strings.EqualFold(e.Resource, filter.Resource) {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if !filter.Since.IsZero() && e.CreatedAt.Before(filter.Since) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Purge drops entries created before cutoff.
func (m *MemoryAuditLog) Purge(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.entries)
	m.entries = slices.DeleteFunc(m.entries, func(e AuditEntry) bool {
		return e.CreatedAt.Before(cutoff)
	})
	return int64(before - len(m.entries)), nil
}
