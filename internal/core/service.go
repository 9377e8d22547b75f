package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/salvationministries/console/internal/api"
	"github.com/salvationministries/console/internal/cache"
	"github.com/salvationministries/console/internal/export"
	"github.com/salvationministries/console/internal/logging"
	"github.com/salvationministries/console/internal/session"
	"github.com/salvationministries/console/internal/table"
)

// Backend performs one request against the church REST backend.
// Satisfied by *api.Client.
type Backend interface {
	Do(ctx context.Context, ep api.Endpoint, params map[string]string, body, out any) error
}

// CurrentUserEndpoint resolves a session token to the signed-in staff member.
var CurrentUserEndpoint = api.Get("/current-user", "user")

// Service provides the console's operations over backend resources.
type Service struct {
	backend Backend
	cache   *cache.Cache
	audit   AuditLog

	pageSize  int
	pageSizes []int
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPageSizes sets the default page size and the allowed choices.
func WithPageSizes(pageSize int, sizes []int) Option {
	return func(s *Service) {
		if pageSize > 0 {
			s.pageSize = pageSize
		}
		if len(sizes) > 0 {
			s.pageSizes = sizes
		}
	}
}

// WithClock overrides the clock used for export filenames, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service. A nil audit log keeps entries in memory.
func NewService(backend Backend, c *cache.Cache, audit AuditLog, opts ...Option) *Service {
	if c == nil {
		c = cache.New(cache.Options{})
	}
	if audit == nil {
		audit = NewMemoryAuditLog(0, nil)
	}
	s := &Service{
		backend:   backend,
		cache:     c,
		audit:     audit,
		pageSize:  table.DefaultPageSize,
		pageSizes: []int{10, 20, 50},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resources returns the definitions the session may view.
func (s *Service) Resources(ctx context.Context) []ResourceDefinition {
	sess := session.Current(ctx)
	var out []ResourceDefinition
	for _, def := range All() {
		if sess.CanView(def.Info.Group) {
			out = append(out, def)
		}
	}
	return out
}

// Resource returns the definition for key if the session may view it.
func (s *Service) Resource(ctx context.Context, key string) (ResourceDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return ResourceDefinition{}, fmt.Errorf("%w: %s", ErrUnknownResource, key)
	}
	if !session.Current(ctx).CanView(def.Info.Group) {
		return ResourceDefinition{}, fmt.Errorf("view %s: %w", key, ErrPermissionDenied)
	}
	return def, nil
}

// Defaults returns the table state bounds for def.
func (s *Service) Defaults(def ResourceDefinition) table.Defaults {
	return def.Defaults(s.pageSize, s.pageSizes)
}

// ParseState reads list state from query values for def.
func (s *Service) ParseState(def ResourceDefinition, values url.Values) table.State {
	return table.ParseState(values, s.Defaults(def))
}

// List returns the resource's whole collection, from the cache when fresh.
func (s *Service) List(ctx context.Context, key string) ([]table.Record, cache.Result, error) {
	def, err := s.Resource(ctx, key)
	if err != nil {
		return nil, cache.Result{}, err
	}
	return s.list(ctx, def)
}

func (s *Service) list(ctx context.Context, def ResourceDefinition) ([]table.Record, cache.Result, error) {
	ep := def.Endpoints.List
	key := cache.Key{Resource: def.Info.Key, Endpoint: ep.Name}

	return cache.Get(ctx, s.cache, key, func(ctx context.Context) ([]table.Record, error) {
		var records []table.Record
		if err := s.backend.Do(ctx, ep, nil, nil, &records); err != nil {
			return nil, err
		}
		if records == nil {
			records = []table.Record{}
		}
		return records, nil
	})
}

// ResourceView is one rendered list screen.
type ResourceView struct {
	Def       ResourceDefinition
	View      table.View[table.Record]
	FetchedAt time.Time
	Cached    bool
	CanMutate bool
}

// View fetches the collection and derives the page for st.
func (s *Service) View(ctx context.Context, key string, st table.State) (ResourceView, error) {
	def, err := s.Resource(ctx, key)
	if err != nil {
		return ResourceView{}, err
	}
	records, res, err := s.list(ctx, def)
	if err != nil {
		return ResourceView{}, err
	}
	return ResourceView{
		Def:       def,
		View:      table.Compute(records, st, def.Schema()),
		FetchedAt: res.FetchedAt,
		Cached:    res.Hit,
		CanMutate: session.Current(ctx).CanMutate(def.Info.Group),
	}, nil
}

// Find returns one record of the resource. The backend has no single-record
// endpoints, so the record is located in the cached collection.
func (s *Service) Find(ctx context.Context, key, id string) (table.Record, error) {
	def, err := s.Resource(ctx, key)
	if err != nil {
		return nil, err
	}
	records, _, err := s.list(ctx, def)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if def.RecordID(rec) == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("%s %s: %w", key, id, api.ErrNotFound)
}

// mutable returns def when the session may mutate it and ep is offered.
func (s *Service) mutable(ctx context.Context, key string, pick func(Endpoints) api.Endpoint) (ResourceDefinition, api.Endpoint, error) {
	def, err := s.Resource(ctx, key)
	if err != nil {
		return ResourceDefinition{}, api.Endpoint{}, err
	}
	if !session.Current(ctx).CanMutate(def.Info.Group) {
		return ResourceDefinition{}, api.Endpoint{}, fmt.Errorf("modify %s: %w", key, ErrPermissionDenied)
	}
	ep := pick(def.Endpoints)
	if ep.Path == "" {
		return ResourceDefinition{}, api.Endpoint{}, fmt.Errorf("%s: %w", key, ErrNotSupported)
	}
	return def, ep, nil
}

// Create validates form and creates a record. The resource's cached
// collection is invalidated once the backend confirms.
func (s *Service) Create(ctx context.Context, key string, form url.Values) error {
	def, ep, err := s.mutable(ctx, key, func(e Endpoints) api.Endpoint { return e.Create })
	if err != nil {
		return err
	}
	body, err := ConvertForm(def, form)
	if err != nil {
		return err
	}

	err = s.cache.Mutate(ctx, []string{def.Info.Key}, func(ctx context.Context) error {
		return s.backend.Do(ctx, ep, nil, body, nil)
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}

	s.recordAudit(ctx, newAuditEntry(ctx, ActionCreate, def, "", body))
	return nil
}

// Update validates form and replaces the editable fields of record id.
func (s *Service) Update(ctx context.Context, key, id string, form url.Values) error {
	def, ep, err := s.mutable(ctx, key, func(e Endpoints) api.Endpoint { return e.Update })
	if err != nil {
		return err
	}
	body, err := ConvertForm(def, form)
	if err != nil {
		return err
	}

	err = s.cache.Mutate(ctx, []string{def.Info.Key}, func(ctx context.Context) error {
		return s.backend.Do(ctx, ep, map[string]string{"id": id}, body, nil)
	})
	if err != nil {
		return fmt.Errorf("update %s %s: %w", key, id, err)
	}

	s.recordAudit(ctx, newAuditEntry(ctx, ActionUpdate, def, id, body))
	return nil
}

// Delete removes record id. Deletes are destructive and must be confirmed.
func (s *Service) Delete(ctx context.Context, key, id string, confirmed bool) error {
	def, ep, err := s.mutable(ctx, key, func(e Endpoints) api.Endpoint { return e.Delete })
	if err != nil {
		return err
	}
	if !confirmed {
		return fmt.Errorf("delete %s %s: %w", key, id, ErrConfirmationRequired)
	}

	// Snapshot for the audit trail; a miss is not an error.
	var snapshot map[string]any
	if rec, err := s.Find(ctx, key, id); err == nil {
		snapshot = rec
	}

	err = s.cache.Mutate(ctx, []string{def.Info.Key}, func(ctx context.Context) error {
		return s.backend.Do(ctx, ep, map[string]string{"id": id}, nil, nil)
	})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", key, id, err)
	}

	s.recordAudit(ctx, newAuditEntry(ctx, ActionDelete, def, id, snapshot))
	return nil
}

// recordAudit stores entry. A failure is logged, never returned: the
// mutation already happened.
func (s *Service) recordAudit(ctx context.Context, entry AuditEntry) {
	if err := s.audit.Record(ctx, entry); err != nil {
		logging.FromContext(ctx).Error("audit record failed",
			"error", err,
			"action", entry.Action,
			"resource", entry.Resource,
			"record_id", entry.RecordID,
		)
	}
}

// Export writes the filtered and sorted collection for st as CSV and returns
// the download filename.
func (s *Service) Export(ctx context.Context, key string, st table.State, w io.Writer) (string, error) {
	rv, err := s.View(ctx, key, st)
	if err != nil {
		return "", err
	}
	if err := export.Write(w, rv.Def.ExportColumns(), rv.View.Filtered, table.RecordField); err != nil {
		return "", fmt.Errorf("export %s: %w", key, err)
	}
	return export.Filename(rv.Def.Info.Subject, s.now()), nil
}

// AuditView derives the audit log screen for st.
func (s *Service) AuditView(ctx context.Context, st table.State) (ResourceView, error) {
	def := AuditDefinition()
	if !session.Current(ctx).CanView(def.Info.Group) {
		return ResourceView{}, fmt.Errorf("view audit log: %w", ErrPermissionDenied)
	}

	entries, err := s.audit.List(ctx, AuditFilter{})
	if err != nil {
		return ResourceView{}, fmt.Errorf("list audit log: %w", err)
	}
	records := make([]table.Record, len(entries))
	for i, e := range entries {
		records[i] = e.Record()
	}

	return ResourceView{
		Def:       def,
		View:      table.Compute(records, st, def.Schema()),
		FetchedAt: s.now(),
	}, nil
}

// ExportAudit writes the filtered audit log for st as CSV.
func (s *Service) ExportAudit(ctx context.Context, st table.State, w io.Writer) (string, error) {
	rv, err := s.AuditView(ctx, st)
	if err != nil {
		return "", err
	}
	if err := export.Write(w, rv.Def.ExportColumns(), rv.View.Filtered, table.RecordField); err != nil {
		return "", fmt.Errorf("export audit log: %w", err)
	}
	return export.Filename(rv.Def.Info.Subject, s.now()), nil
}

// CurrentUser resolves a backend session token. Results are cached briefly
// per token so each page view does not cost a backend round trip.
func (s *Service) CurrentUser(ctx context.Context, token string) (session.Session, error) {
	if token == "" {
		return session.Anonymous(), api.ErrUnauthorized
	}
	ctx = session.WithSession(ctx, session.Session{Token: token})
	key := cache.Key{Resource: "session", Endpoint: CurrentUserEndpoint.Name, Args: map[string]string{"token": token}}

	user, _, err := cache.Get(ctx, s.cache, key, func(ctx context.Context) (table.Record, error) {
		var rec table.Record
		err := s.backend.Do(ctx, CurrentUserEndpoint, nil, nil, &rec)
		return rec, err
	})
	if err != nil {
		if !errors.Is(err, api.ErrUnauthorized) {
			slog.Warn("resolve session failed", "error", err)
		}
		return session.Anonymous(), err
	}

	sess := session.Session{
		Token:  token,
		UserID: user.ID("_id"),
		Email:  table.Text(user["email"]),
		Name:   firstText(user, "name", "fullName", "firstName"),
		Role:   session.ParseRole(table.Text(user["role"])),
	}
	if !sess.Authenticated() {
		return session.Anonymous(), fmt.Errorf("%s: %w", CurrentUserEndpoint.Name, api.ErrUnauthorized)
	}
	return sess, nil
}

// ForgetSession drops the cached user for token.
func (s *Service) ForgetSession() {
	s.cache.Invalidate("session")
}

func firstText(rec table.Record, fields ...string) string {
	for _, f := range fields {
		if v, ok := table.RecordField(rec, f); ok {
			if t := table.Text(v); t != "" {
				return t
			}
		}
	}
	return ""
}
