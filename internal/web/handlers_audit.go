package web

import (
	"bytes"
	"net/http"

	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/export"
	"github.com/salvationministries/console/internal/web/templates"
)

const auditPath = "/audit-log"

// handleAuditLog renders the audit log with the same search, filter, sort
// and pagination as resource screens.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	def := core.AuditDefinition()
	st := s.service.ParseState(def, r.URL.Query())

	rv, err := s.service.AuditView(r.Context(), st)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data := templates.ListData{
		Resource:  rv,
		BasePath:  auditPath,
		PageSizes: s.service.Defaults(def).PageSizes,
	}
	if isHTMX(r) {
		render(w, r, templates.ListTable(data))
		return
	}
	page := s.pageData(w, r, def.Info.Label, def.Info.Key)
	render(w, r, templates.Layout(page, templates.ListPage(data)))
}

// handleAuditLogExport downloads the filtered audit log as CSV.
func (s *Server) handleAuditLogExport(w http.ResponseWriter, r *http.Request) {
	st := s.service.ParseState(core.AuditDefinition(), r.URL.Query())

	var buf bytes.Buffer
	filename, err := s.service.ExportAudit(r.Context(), st, &buf)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	export.SetHeaders(w, filename)
	if _, err := buf.WriteTo(w); err != nil {
		logError(r, err)
	}
}
