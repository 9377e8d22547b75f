package web

import (
	"net/http"

	"github.com/salvationministries/console/internal/api"
	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/session"
	"github.com/salvationministries/console/internal/web/templates"
)

// handleDashboard renders the landing page with one card per visible
// resource. A failed fetch only marks its own card.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	cards := s.service.Dashboard(r.Context())
	page := s.pageData(w, r, "Dashboard", "")
	render(w, r, templates.Layout(page, templates.Dashboard(cards)))
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status    string             `json:"status"`
	Resources int                `json:"resources"`
	Backend   *api.LimiterStatus `json:"backend,omitempty"`
}

// handleHealth reports liveness and backend request slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Resources: core.Count()}
	if s.deps.Limiter != nil {
		st := s.deps.Limiter.Status()
		resp.Backend = &st
	}
	writeJSON(w, r, resp)
}

// handleLogout drops the cached session and the session cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.service.ForgetSession()
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Backend.SessionCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	redirect(w, r, "/")
}

// FieldResponse describes one field in the resource catalog.
type FieldResponse struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	Type       string   `json:"type"`
	Searchable bool     `json:"searchable,omitempty"`
	Sortable   bool     `json:"sortable,omitempty"`
	Filterable bool     `json:"filterable,omitempty"`
	Editable   bool     `json:"editable,omitempty"`
	Required   bool     `json:"required,omitempty"`
	EnumValues []string `json:"enumValues,omitempty"`
}

// ResourceResponse describes one resource in the catalog.
type ResourceResponse struct {
	Key       string          `json:"key"`
	Group     string          `json:"group"`
	Label     string          `json:"label"`
	CanCreate bool            `json:"canCreate"`
	CanUpdate bool            `json:"canUpdate"`
	CanDelete bool            `json:"canDelete"`
	Fields    []FieldResponse `json:"fields"`
}

// handleListResources returns the resources the session may view, with what
// it may do to each.
func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	sess := session.Current(r.Context())
	defs := s.service.Resources(r.Context())

	out := make([]ResourceResponse, 0, len(defs))
	for _, def := range defs {
		mutate := sess.CanMutate(def.Info.Group)
		rr := ResourceResponse{
			Key:       def.Info.Key,
			Group:     def.Info.Group,
			Label:     def.Info.Label,
			CanCreate: mutate && def.CanCreate(),
			CanUpdate: mutate && def.CanUpdate(),
			CanDelete: mutate && def.CanDelete(),
		}
		for _, f := range def.Fields {
			rr.Fields = append(rr.Fields, FieldResponse{
				Name:       f.Name,
				Label:      f.Label,
				Type:       f.Type.String(),
				Searchable: f.Searchable,
				Sortable:   f.Sortable,
				Filterable: f.Filterable,
				Editable:   f.Editable,
				Required:   f.Required,
				EnumValues: f.EnumValues,
			})
		}
		out = append(out, rr)
	}
	writeJSON(w, r, out)
}
