package web

// handlers_common.go contains shared utilities used across handlers.

import (
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/salvationministries/console/internal/logging"
	"github.com/salvationministries/console/internal/session"
	"github.com/salvationministries/console/internal/web/templates"
)

// maxFormBytes bounds submitted create and edit forms.
const maxFormBytes = 1 << 20

// resourceKey returns the {resource} route parameter.
func resourceKey(r *http.Request) string {
	return chi.URLParam(r, "resource")
}

// recordID returns the unescaped {id} route parameter.
func recordID(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if u, err := url.PathUnescape(id); err == nil {
		return u
	}
	return id
}

// listPath is the list screen of a resource.
func listPath(key string) string {
	return "/r/" + key
}

// pageData builds the layout state of a full page and consumes the flash.
func (s *Server) pageData(w http.ResponseWriter, r *http.Request, title, active string) templates.PageData {
	ctx := r.Context()
	return templates.PageData{
		Title: title,
		Nav:   templates.NewNav(s.service.Resources(ctx), active, session.Current(ctx)),
		Flash: takeFlash(w, r),
	}
}

// render writes an HTML component with status 200.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	renderStatus(w, r, http.StatusOK, c)
}

// renderStatus writes an HTML component. Rendering errors are logged since
// the headers are already sent.
func renderStatus(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
	}
}

// parseForm reads a bounded urlencoded form body.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	return r.ParseForm()
}

// redirect answers a form post. HTMX requests are told to navigate with
// HX-Redirect so the whole page is replaced.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
