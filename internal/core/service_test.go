package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/salvationministries/console/internal/api"
	"github.com/salvationministries/console/internal/cache"
	"github.com/salvationministries/console/internal/session"
	"github.com/salvationministries/console/internal/table"
)

// fakeBackend answers list endpoints from canned JSON and records mutations.
type fakeBackend struct {
	mu       sync.Mutex
	lists    map[string]string // endpoint name -> JSON array
	errs     map[string]error  // endpoint name -> error to return
	calls    map[string]int
	requests []fakeRequest
}

type fakeRequest struct {
	Endpoint string
	Params   map[string]string
	Body     any
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		lists: make(map[string]string),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *fakeBackend) Do(ctx context.Context, ep api.Endpoint, params map[string]string, body, out any) error {
	f.mu.Lock()
	f.calls[ep.Name]++
	f.requests = append(f.requests, fakeRequest{Endpoint: ep.Name, Params: params, Body: body})
	err := f.errs[ep.Name]
	raw, ok := f.lists[ep.Name]
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if out == nil || !ok {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(out)
}

func (f *fakeBackend) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) lastRequest() fakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func registerTestResources(t *testing.T) {
	t.Helper()
	Clear()
	t.Cleanup(Clear)

	Register(ResourceDefinition{
		Info: ResourceInfo{Key: "tithes", Group: session.GroupFinance, Label: "Tithes", Subject: "Tithe Report"},
		Fields: []FieldSpec{
			{Name: "name", Label: "Member", Type: FieldText, Searchable: true, Sortable: true, Editable: true, Required: true},
			{Name: "month", Label: "Month", Type: FieldEnum, Filterable: true, Editable: true, EnumValues: []string{"January", "February"}},
			{Name: "amount", Label: "Amount", Type: FieldMoney, Sortable: true, Editable: true, Required: true},
			{Name: "currency", Label: "Currency", Type: FieldText, Hidden: true},
		},
		Endpoints: Endpoints{
			List:   api.List("/all-tithe", "tithes"),
			Create: api.Create("/create-tithe", "tithe"),
			Update: api.Update("/update-tithe/:id", "tithe"),
			Delete: api.Delete("/delete-tithe/:id"),
		},
	})
	Register(ResourceDefinition{
		Info: ResourceInfo{Key: "sermons", Group: session.GroupContent, Label: "Sermons"},
		Fields: []FieldSpec{
			{Name: "title", Type: FieldText, Searchable: true, Sortable: true, Editable: true, Required: true},
		},
		Endpoints: Endpoints{List: api.List("/all-sermon", "sermons")},
	})
}

const tithesJSON = `[
	{"_id":"1","name":"Ada","month":"January","amount":2500.50,"currency":"NGN"},
	{"_id":"2","name":"Bola","month":"February","amount":1000,"currency":"NGN"},
	{"_id":"3","name":"Chidi","month":"January","amount":"₦1,200.25"},
	{"_id":"4","name":"Dayo","month":"January","amount":50,"currency":"usd"}
]`

func asRole(role session.Role) context.Context {
	return session.WithSession(context.Background(), session.Session{
		Token: "tok", UserID: "u-" + string(role), Email: string(role) + "@church.test", Role: role,
	})
}

func newTestService(t *testing.T) (*Service, *fakeBackend, *MemoryAuditLog) {
	t.Helper()
	registerTestResources(t)
	backend := newFakeBackend()
	backend.lists["all-tithe"] = tithesJSON
	backend.lists["all-sermon"] = `[{"_id":"s1","title":"Grace"}]`
	audit := NewMemoryAuditLog(100, nil)
	clock := func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	svc := NewService(backend, cache.New(cache.Options{TTL: time.Minute}), audit, WithClock(clock))
	return svc, backend, audit
}

func TestService_ViewFiltersSortsPaginates(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := asRole(session.RoleFinance)

	def, err := svc.Resource(ctx, "tithes")
	if err != nil {
		t.Fatalf("Resource() error = %v", err)
	}
	st := svc.ParseState(def, url.Values{
		"filter[month]": {"January"},
		"sort":          {"name"},
		"dir":           {"desc"},
		"size":          {"10"},
	})

	rv, err := svc.View(ctx, "tithes", st)
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}

	var names []string
	for _, rec := range rv.View.Records {
		names = append(names, table.Text(rec["name"]))
	}
	if diff := cmp.Diff([]string{"Dayo", "Chidi", "Ada"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if rv.View.Total != 3 || !rv.CanMutate {
		t.Errorf("Total = %d, CanMutate = %v", rv.View.Total, rv.CanMutate)
	}
}

func TestService_ListIsCached(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := asRole(session.RoleFinance)

	for range 3 {
		if _, _, err := svc.List(ctx, "tithes"); err != nil {
			t.Fatalf("List() error = %v", err)
		}
	}
	if n := backend.callCount("all-tithe"); n != 1 {
		t.Errorf("backend list calls = %d, want 1", n)
	}
}

func TestService_PermissionChecks(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.View(asRole(session.RoleMedia), "tithes", table.NewState(10)); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("media viewing tithes: error = %v, want ErrPermissionDenied", err)
	}
	err := svc.Create(asRole(session.RoleAdmin), "tithes", url.Values{"name": {"Ada"}, "amount": {"1"}})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("admin creating tithe: error = %v, want ErrPermissionDenied", err)
	}
	if _, err := svc.View(asRole(session.RoleFinance), "widgets", table.NewState(10)); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("unknown resource: error = %v", err)
	}
	if err := svc.Create(asRole(session.RoleMedia), "sermons", url.Values{"title": {"x"}}); !errors.Is(err, ErrNotSupported) {
		t.Errorf("create without endpoint: error = %v, want ErrNotSupported", err)
	}
}

func TestService_Resources(t *testing.T) {
	svc, _, _ := newTestService(t)

	var keys []string
	for _, def := range svc.Resources(asRole(session.RoleMedia)) {
		keys = append(keys, def.Info.Key)
	}
	if diff := cmp.Diff([]string{"sermons"}, keys); diff != "" {
		t.Errorf("media resources mismatch (-want +got):\n%s", diff)
	}
	if got := svc.Resources(context.Background()); len(got) != 0 {
		t.Errorf("anonymous sees %d resources, want 0", len(got))
	}
}

func TestService_CreateInvalidatesAndAudits(t *testing.T) {
	svc, backend, audit := newTestService(t)
	ctx := ContextWithClientInfo(asRole(session.RoleFinance), ClientInfo{IPAddress: "10.0.0.5", UserAgent: "test"})

	if _, _, err := svc.List(ctx, "tithes"); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	form := url.Values{"name": {"Efe"}, "month": {"february"}, "amount": {"₦3,000.10"}}
	if err := svc.Create(ctx, "tithes", form); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	req := backend.lastRequest()
	if req.Endpoint != "create-tithe" {
		t.Fatalf("last endpoint = %q", req.Endpoint)
	}
	wantBody := map[string]any{"name": "Efe", "month": "February", "amount": json.Number("3000.1")}
	if diff := cmp.Diff(wantBody, req.Body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}

	if _, _, err := svc.List(ctx, "tithes"); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if n := backend.callCount("all-tithe"); n != 2 {
		t.Errorf("list calls after mutation = %d, want 2 (re-fetch)", n)
	}

	entries, _ := audit.List(ctx, AuditFilter{})
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Action != ActionCreate || e.Severity != SeverityHigh || e.UserID != "u-finance" || e.IPAddress != "10.0.0.5" {
		t.Errorf("audit entry = %+v", e)
	}
}

func TestService_CreateValidationFailsBeforeBackend(t *testing.T) {
	svc, backend, audit := newTestService(t)
	ctx := asRole(session.RoleFinance)

	err := svc.Create(ctx, "tithes", url.Values{"month": {"March"}, "amount": {"abc"}})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Create() error = %v, want ValidationErrors", err)
	}
	want := map[string]string{"name": "is required", "month": "invalid choice", "amount": "invalid number"}
	if diff := cmp.Diff(want, verrs.ByField()); diff != "" {
		t.Errorf("validation mismatch (-want +got):\n%s", diff)
	}
	if n := backend.callCount("create-tithe"); n != 0 {
		t.Errorf("backend called %d times for invalid form", n)
	}
	if entries, _ := audit.List(ctx, AuditFilter{}); len(entries) != 0 {
		t.Errorf("audit recorded %d entries for failed create", len(entries))
	}
}

func TestService_UpdateSendsID(t *testing.T) {
	svc, backend, _ := newTestService(t)
	ctx := asRole(session.RoleSuperAdmin)

	if err := svc.Update(ctx, "tithes", "2", url.Values{"name": {"Bola A."}, "amount": {"1000"}}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	req := backend.lastRequest()
	if req.Endpoint != "update-tithe" || req.Params["id"] != "2" {
		t.Errorf("request = %+v", req)
	}
}

func TestService_DeleteRequiresConfirmation(t *testing.T) {
	svc, backend, audit := newTestService(t)
	ctx := asRole(session.RoleFinance)

	err := svc.Delete(ctx, "tithes", "1", false)
	if !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("Delete(unconfirmed) error = %v, want ErrConfirmationRequired", err)
	}
	if n := backend.callCount("delete-tithe"); n != 0 {
		t.Fatalf("backend delete called without confirmation")
	}

	if err := svc.Delete(ctx, "tithes", "1", true); err != nil {
		t.Fatalf("Delete(confirmed) error = %v", err)
	}
	entries, _ := audit.List(ctx, AuditFilter{Action: ActionDelete})
	if len(entries) != 1 {
		t.Fatalf("delete audit entries = %d, want 1", len(entries))
	}
	if entries[0].Severity != SeverityCritical || table.Text(entries[0].Changes["name"]) != "Ada" {
		t.Errorf("delete audit = %+v", entries[0])
	}
}

func TestService_FailedMutationKeepsCacheAndSkipsAudit(t *testing.T) {
	svc, backend, audit := newTestService(t)
	ctx := asRole(session.RoleFinance)
	backend.errs["delete-tithe"] = &api.Error{Endpoint: "delete-tithe", Status: 500}

	svc.List(ctx, "tithes")
	err := svc.Delete(ctx, "tithes", "1", true)
	if !errors.Is(err, api.ErrUnavailable) {
		t.Fatalf("Delete() error = %v, want ErrUnavailable", err)
	}
	svc.List(ctx, "tithes")
	if n := backend.callCount("all-tithe"); n != 1 {
		t.Errorf("list calls = %d, want 1 (cache kept)", n)
	}
	if entries, _ := audit.List(ctx, AuditFilter{}); len(entries) != 0 {
		t.Errorf("audit recorded a failed delete")
	}
}

func TestService_Find(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := asRole(session.RoleFinance)

	rec, err := svc.Find(ctx, "tithes", "3")
	if err != nil || table.Text(rec["name"]) != "Chidi" {
		t.Errorf("Find(3) = %v, %v", rec, err)
	}
	if _, err := svc.Find(ctx, "tithes", "99"); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("Find(99) error = %v, want ErrNotFound", err)
	}
}

func TestService_ExportUsesFilteredSet(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := asRole(session.RoleFinance)

	st := table.NewState(1).WithFilter("month", "February")
	var buf bytes.Buffer
	name, err := svc.Export(ctx, "tithes", st, &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if name != "tithe-report_2024-03-01.csv" {
		t.Errorf("filename = %q", name)
	}
	want := "Member,Month,Amount,Currency\nBola,February,1000,NGN\n"
	if buf.String() != want {
		t.Errorf("csv = %q, want %q", buf.String(), want)
	}
}

func TestService_FinanceSummary(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := asRole(session.RoleFinance)

	sum, err := svc.FinanceSummary(ctx, "tithes", table.NewState(1).WithFilter("month", "January"))
	if err != nil {
		t.Fatalf("FinanceSummary() error = %v", err)
	}
	if sum.Records != 3 || sum.Skipped != 0 {
		t.Errorf("Records = %d, Skipped = %d", sum.Records, sum.Skipped)
	}
	if len(sum.Totals) != 2 {
		t.Fatalf("Totals = %+v, want NGN and USD", sum.Totals)
	}
	ngn, usd := sum.Totals[0], sum.Totals[1]
	if ngn.Currency != "NGN" || !ngn.Total.Equal(decimal.RequireFromString("3700.75")) || ngn.Count != 2 {
		t.Errorf("NGN total = %+v", ngn)
	}
	if usd.Currency != "USD" || !usd.Total.Equal(decimal.NewFromInt(50)) {
		t.Errorf("USD total = %+v", usd)
	}

	if _, err := svc.FinanceSummary(asRole(session.RoleMedia), "sermons", table.NewState(10)); !errors.Is(err, ErrNotSupported) {
		t.Errorf("summary of non-finance resource: error = %v", err)
	}
}

func TestService_Dashboard(t *testing.T) {
	svc, backend, _ := newTestService(t)
	backend.errs["all-sermon"] = &api.Error{Endpoint: "all-sermon", Status: 503}

	cards := svc.Dashboard(asRole(session.RoleSuperAdmin))
	if len(cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(cards))
	}
	byKey := make(map[string]DashboardCard)
	for _, c := range cards {
		byKey[c.Def.Info.Key] = c
	}
	if c := byKey["tithes"]; c.Err != nil || c.Count != 4 {
		t.Errorf("tithes card = %+v", c)
	}
	if c := byKey["sermons"]; c.Err == nil {
		t.Error("sermons card should carry the fetch error")
	}
}

func TestService_AuditView(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := asRole(session.RoleSuperAdmin)

	svc.Create(ctx, "tithes", url.Values{"name": {"Efe"}, "amount": {"5"}})
	svc.Delete(ctx, "tithes", "1", true)

	st := table.NewState(10).WithFilter("action", "delete")
	rv, err := svc.AuditView(ctx, st)
	if err != nil {
		t.Fatalf("AuditView() error = %v", err)
	}
	if rv.View.Total != 1 || table.Text(rv.View.Records[0]["resource"]) != "tithes" {
		t.Errorf("audit view = %+v", rv.View.Records)
	}

	if _, err := svc.AuditView(asRole(session.RoleMedia), st); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("media audit view error = %v", err)
	}
}

func TestService_CurrentUser(t *testing.T) {
	svc, backend, _ := newTestService(t)
	backend.lists[CurrentUserEndpoint.Name] = `{"_id":"u1","email":"pastor@church.test","fullName":"Pastor D","role":"Admin"}`

	sess, err := svc.CurrentUser(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	want := session.Session{Token: "tok-1", UserID: "u1", Email: "pastor@church.test", Name: "Pastor D", Role: session.RoleAdmin}
	if sess != want {
		t.Errorf("session = %+v, want %+v", sess, want)
	}

	svc.CurrentUser(context.Background(), "tok-1")
	if n := backend.callCount(CurrentUserEndpoint.Name); n != 1 {
		t.Errorf("current-user calls = %d, want 1 (cached)", n)
	}

	if _, err := svc.CurrentUser(context.Background(), ""); !errors.Is(err, api.ErrUnauthorized) {
		t.Errorf("empty token error = %v", err)
	}
}

func TestService_RetentionJob(t *testing.T) {
	svc, _, audit := newTestService(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	audit.Record(ctx, AuditEntry{ID: "old", CreatedAt: now.AddDate(0, 0, -40)})
	audit.Record(ctx, AuditEntry{ID: "new", CreatedAt: now.AddDate(0, 0, -5)})

	purged := svc.runRetentionJob(ctx, RetentionConfig{RetentionDays: 30}.withDefaults(), now)
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
	entries, _ := audit.List(ctx, AuditFilter{})
	if len(entries) != 1 || entries[0].ID != "new" {
		t.Errorf("remaining = %+v", entries)
	}
}
