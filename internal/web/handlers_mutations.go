package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/session"
	"github.com/salvationministries/console/internal/table"
	"github.com/salvationministries/console/internal/web/templates"
)

// mutableResource returns the definition when the session may mutate it and
// the backend offers the operation.
func (s *Server) mutableResource(r *http.Request, offered func(core.ResourceDefinition) bool) (core.ResourceDefinition, error) {
	key := resourceKey(r)
	def, err := s.service.Resource(r.Context(), key)
	if err != nil {
		return core.ResourceDefinition{}, err
	}
	if !session.Current(r.Context()).CanMutate(def.Info.Group) {
		return core.ResourceDefinition{}, fmt.Errorf("modify %s: %w", key, core.ErrPermissionDenied)
	}
	if !offered(def) {
		return core.ResourceDefinition{}, fmt.Errorf("%s: %w", key, core.ErrNotSupported)
	}
	return def, nil
}

func recordPath(key, id string) string {
	return listPath(key) + "/" + url.PathEscape(id)
}

// handleNew renders an empty create form.
func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	def, err := s.mutableResource(r, core.ResourceDefinition.CanCreate)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.renderForm(w, r, http.StatusOK, formFor(def, "", url.Values{}, nil))
}

// handleCreate validates and submits a create form.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	def, err := s.mutableResource(r, core.ResourceDefinition.CanCreate)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := parseForm(w, r); err != nil {
		s.respondError(w, r, err)
		return
	}

	err = s.service.Create(r.Context(), def.Info.Key, r.PostForm)
	if s.formFailed(w, r, formFor(def, "", r.PostForm, nil), err) {
		return
	}
	setFlash(w, "success", def.Info.Label+": record created.")
	redirect(w, r, listPath(def.Info.Key))
}

// handleEdit renders the edit form filled from the cached record.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	def, err := s.mutableResource(r, core.ResourceDefinition.CanUpdate)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	id := recordID(r)
	rec, err := s.service.Find(r.Context(), def.Info.Key, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.renderForm(w, r, http.StatusOK, formFor(def, id, core.FormValues(def, rec), nil))
}

// handleUpdate validates and submits an edit form.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	def, err := s.mutableResource(r, core.ResourceDefinition.CanUpdate)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := parseForm(w, r); err != nil {
		s.respondError(w, r, err)
		return
	}

	id := recordID(r)
	err = s.service.Update(r.Context(), def.Info.Key, id, r.PostForm)
	if s.formFailed(w, r, formFor(def, id, r.PostForm, nil), err) {
		return
	}
	setFlash(w, "success", def.Info.Label+": changes saved.")
	redirect(w, r, listPath(def.Info.Key))
}

// handleDeleteConfirm renders the delete confirmation screen.
func (s *Server) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	def, err := s.mutableResource(r, core.ResourceDefinition.CanDelete)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id := recordID(r)
	var rec table.Record
	if found, err := s.service.Find(r.Context(), def.Info.Key, id); err == nil {
		rec = found
	}

	data := templates.DeleteData{
		Def:    def,
		ID:     id,
		Record: rec,
		Action: recordPath(def.Info.Key, id) + "/delete",
		Cancel: listPath(def.Info.Key),
	}
	page := s.pageData(w, r, "Delete "+def.Info.Label, def.Info.Key)
	render(w, r, templates.Layout(page, templates.DeleteConfirm(data)))
}

// handleDelete deletes a record once the form carries confirm=yes.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	def, err := s.mutableResource(r, core.ResourceDefinition.CanDelete)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := parseForm(w, r); err != nil {
		s.respondError(w, r, err)
		return
	}

	id := recordID(r)
	confirmed := r.PostForm.Get("confirm") == "yes"
	err = s.service.Delete(r.Context(), def.Info.Key, id, confirmed)
	switch {
	case errors.Is(err, core.ErrConfirmationRequired):
		setFlash(w, "error", core.FormatUserError(err))
		redirect(w, r, recordPath(def.Info.Key, id)+"/delete")
		return
	case err != nil:
		logError(r, err)
		setFlash(w, "error", core.FormatUserError(err))
	default:
		setFlash(w, "success", def.Info.Label+": record deleted.")
	}
	redirect(w, r, listPath(def.Info.Key))
}

func formFor(def core.ResourceDefinition, id string, values url.Values, errs map[string]string) templates.FormData {
	d := templates.FormData{
		Def:    def,
		Values: values,
		Errors: errs,
		Action: listPath(def.Info.Key),
		Cancel: listPath(def.Info.Key),
		Submit: "Create",
	}
	if id != "" {
		d.Action = recordPath(def.Info.Key, id)
		d.Submit = "Save changes"
	}
	return d
}

// formFailed handles a create or update error. Validation failures re-render
// the form with per-field messages; anything else becomes a flash on the
// list screen. It reports whether err was non-nil.
func (s *Server) formFailed(w http.ResponseWriter, r *http.Request, form templates.FormData, err error) bool {
	if err == nil {
		return false
	}

	var verrs core.ValidationErrors
	if errors.As(err, &verrs) {
		form.Errors = verrs.ByField()
		s.renderForm(w, r, http.StatusUnprocessableEntity, form)
		return true
	}

	logError(r, err)
	setFlash(w, "error", core.FormatUserError(err))
	redirect(w, r, listPath(form.Def.Info.Key))
	return true
}

func (s *Server) renderForm(w http.ResponseWriter, r *http.Request, status int, form templates.FormData) {
	title := "New " + form.Def.Info.Label
	if form.Submit != "Create" {
		title = "Edit " + form.Def.Info.Label
	}
	page := s.pageData(w, r, title, form.Def.Info.Key)
	renderStatus(w, r, status, templates.Layout(page, templates.Form(form)))
}
