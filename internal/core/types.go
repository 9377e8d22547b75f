package core

import (
	"strings"

	"github.com/salvationministries/console/internal/api"
	"github.com/salvationministries/console/internal/export"
	"github.com/salvationministries/console/internal/table"
)

// FieldType is the kind of value a resource field holds.
type FieldType int

const (
	FieldText FieldType = iota
	FieldLongText
	FieldNumber
	FieldMoney
	FieldBool
	FieldDate
	FieldEnum
	FieldURL
)

func (t FieldType) String() string {
	switch t {
	case FieldLongText:
		return "longtext"
	case FieldNumber:
		return "number"
	case FieldMoney:
		return "money"
	case FieldBool:
		return "bool"
	case FieldDate:
		return "date"
	case FieldEnum:
		return "enum"
	case FieldURL:
		return "url"
	default:
		return "text"
	}
}

// FieldSpec describes one field of a backend record.
type FieldSpec struct {
	Name       string    // JSON key, dotted for nested values ("user.email")
	Label      string    // Column header
	Type       FieldType
	Searchable bool      // Included in free-text search
	Sortable   bool      // Header click sorts by this field
	Filterable bool      // Offered as a categorical filter (Enum fields)
	Editable   bool      // Shown on create/edit forms
	Required   bool      // Must be non-empty on create/edit
	Hidden     bool      // Not shown as a list column
	EnumValues []string
}

// ResourceInfo contains display information about a resource.
type ResourceInfo struct {
	Key     string // URL segment: "offerings"
	Group   string // Permission group: session.GroupFinance, ...
	Label   string // Display name: "Offerings"
	Subject string // Export filename subject: "Offering Report"
}

// Endpoints is the backend catalog entry for a resource. Update and Delete
// take an :id path parameter. A zero Endpoint means the operation is not
// offered.
type Endpoints struct {
	List   api.Endpoint
	Create api.Endpoint
	Update api.Endpoint
	Delete api.Endpoint
}

// ResourceDefinition contains everything needed to list, export and edit a
// backend resource.
type ResourceDefinition struct {
	Info      ResourceInfo
	IDField   string // defaults to "_id"
	Fields    []FieldSpec
	Endpoints Endpoints

	// PageSizes overrides the configured choices; nil keeps them.
	PageSizes    []int
	DefaultSort  string
	DefaultOrder table.Order
}

// CanCreate reports whether the backend offers a create endpoint.
func (d ResourceDefinition) CanCreate() bool { return d.Endpoints.Create.Path != "" }

// CanUpdate reports whether the backend offers an update endpoint.
func (d ResourceDefinition) CanUpdate() bool { return d.Endpoints.Update.Path != "" }

// CanDelete reports whether the backend offers a delete endpoint.
func (d ResourceDefinition) CanDelete() bool { return d.Endpoints.Delete.Path != "" }

// Field returns the field named name.
func (d ResourceDefinition) Field(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Columns returns the visible list columns.
func (d ResourceDefinition) Columns() []FieldSpec {
	cols := make([]FieldSpec, 0, len(d.Fields))
	for _, f := range d.Fields {
		if !f.Hidden {
			cols = append(cols, f)
		}
	}
	return cols
}

// FormFields returns the fields shown on create/edit forms.
func (d ResourceDefinition) FormFields() []FieldSpec {
	var out []FieldSpec
	for _, f := range d.Fields {
		if f.Editable {
			out = append(out, f)
		}
	}
	return out
}

// FilterFields returns the fields offered as categorical filters.
func (d ResourceDefinition) FilterFields() []FieldSpec {
	var out []FieldSpec
	for _, f := range d.Fields {
		if f.Filterable {
			out = append(out, f)
		}
	}
	return out
}

// Schema returns the table engine schema for the resource.
func (d ResourceDefinition) Schema() table.Schema[table.Record] {
	s := table.Schema[table.Record]{Get: table.RecordField}
	for _, f := range d.Fields {
		if f.Searchable {
			s.SearchFields = append(s.SearchFields, f.Name)
		}
		if f.Sortable {
			s.SortFields = append(s.SortFields, f.Name)
		}
	}
	return s
}

// Defaults returns the query-state bounds for the resource. sizes and
// pageSize are the configured choices, used unless the resource overrides
// them.
func (d ResourceDefinition) Defaults(pageSize int, sizes []int) table.Defaults {
	if len(d.PageSizes) > 0 {
		sizes = d.PageSizes
		pageSize = d.PageSizes[0]
	}
	filterable := make([]string, 0)
	for _, f := range d.FilterFields() {
		filterable = append(filterable, f.Name)
	}
	return table.Defaults{
		PageSize:   pageSize,
		PageSizes:  sizes,
		SortKey:    d.DefaultSort,
		SortOrder:  d.DefaultOrder,
		Filterable: filterable,
	}
}

// ExportColumns returns the CSV columns for the resource, hidden fields included.
func (d ResourceDefinition) ExportColumns() []export.Column {
	cols := make([]export.Column, len(d.Fields))
	for i, f := range d.Fields {
		cols[i] = export.Column{Key: f.Name, Header: f.Label}
	}
	return cols
}

// idField returns the configured id field.
func (d ResourceDefinition) idField() string {
	if d.IDField == "" {
		return "_id"
	}
	return d.IDField
}

// RecordID returns rec's identifier.
func (d ResourceDefinition) RecordID(rec table.Record) string {
	return rec.ID(d.idField())
}

// IsFinance reports whether the resource carries money totals.
func (d ResourceDefinition) IsFinance() bool {
	for _, f := range d.Fields {
		if f.Type == FieldMoney {
			return true
		}
	}
	return false
}

// label falls back to a title-cased name.
func (f FieldSpec) label() string {
	if f.Label != "" {
		return f.Label
	}
	name := f.Name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
