package web

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/export"
	"github.com/salvationministries/console/internal/table"
	"github.com/salvationministries/console/internal/web/templates"
)

// handleList renders a resource's list screen. HTMX requests receive only
// the table region.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := resourceKey(r)

	def, err := s.service.Resource(ctx, key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	st := s.service.ParseState(def, r.URL.Query())

	rv, err := s.service.View(ctx, key, st)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data := templates.ListData{
		Resource:  rv,
		BasePath:  listPath(key),
		PageSizes: s.service.Defaults(def).PageSizes,
	}
	if def.IsFinance() {
		if sum, err := s.service.FinanceSummary(ctx, key, st); err == nil {
			data.Summary = &sum
		}
	}

	if isHTMX(r) {
		render(w, r, templates.ListTable(data))
		return
	}
	page := s.pageData(w, r, def.Info.Label, key)
	render(w, r, templates.Layout(page, templates.ListPage(data)))
}

// handleSort toggles the sort on {field} and redirects back to the list,
// staying on the current page. Unsortable fields leave the state unchanged.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	key := resourceKey(r)
	def, err := s.service.Resource(r.Context(), key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	st := s.service.ParseState(def, r.URL.Query())
	if field := chi.URLParam(r, "field"); def.Schema().Sortable(field) {
		st = st.ToggleSort(field)
	}

	to := listPath(key)
	if q := st.Encode(); q != "" {
		to += "?" + q
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// handleExport downloads the filtered and sorted collection as CSV. The
// page parameters are ignored: every matching record is exported.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := resourceKey(r)

	def, err := s.service.Resource(ctx, key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	st := s.service.ParseState(def, r.URL.Query())

	var buf bytes.Buffer
	filename, err := s.service.Export(ctx, key, st, &buf)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	export.SetHeaders(w, filename)
	if _, err := buf.WriteTo(w); err != nil && !errors.Is(err, ctx.Err()) {
		logError(r, err)
	}
}

// handleSummary returns the finance totals of the filtered records as JSON.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := resourceKey(r)

	def, err := s.service.Resource(ctx, key)
	if err != nil {
		respondJSONError(w, r, err)
		return
	}

	sum, err := s.service.FinanceSummary(ctx, key, s.service.ParseState(def, r.URL.Query()))
	if err != nil {
		respondJSONError(w, r, err)
		return
	}
	writeJSON(w, r, sum)
}

// ViewResponse is the JSON form of one list view.
type ViewResponse struct {
	Resource   string         `json:"resource"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
	Total      int            `json:"total"`
	Records    []table.Record `json:"records"`
	FetchedAt  time.Time      `json:"fetchedAt"`
	Cached     bool           `json:"cached"`
}

// handleAPIView returns the same view as the list screen, as JSON.
func (s *Server) handleAPIView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := resourceKey(r)

	def, err := s.service.Resource(ctx, key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rv, err := s.service.View(ctx, key, s.service.ParseState(def, r.URL.Query()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, newViewResponse(rv))
}

func newViewResponse(rv core.ResourceView) ViewResponse {
	records := rv.View.Records
	if records == nil {
		records = []table.Record{}
	}
	return ViewResponse{
		Resource:   rv.Def.Info.Key,
		Page:       rv.View.Page.Page,
		PageSize:   rv.View.PageSize,
		TotalPages: rv.View.TotalPages,
		Total:      rv.View.Total,
		Records:    records,
		FetchedAt:  rv.FetchedAt,
		Cached:     rv.Cached,
	}
}
