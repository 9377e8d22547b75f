package templates

import (
	"net/url"

	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/table"
)

// FormData drives the create and edit screens.
type FormData struct {
	Def    core.ResourceDefinition
	Values url.Values
	Errors map[string]string // field name -> message
	Action string            // POST target
	Cancel string            // list screen
	Submit string
}

func (d FormData) submitLabel() string {
	if d.Submit == "" {
		return "Save"
	}
	return d.Submit
}

func isChecked(value string) bool {
	b, ok := core.ParseBool(value)
	return ok && b
}

func isDecimal(t core.FieldType) bool {
	return t == core.FieldNumber || t == core.FieldMoney
}

func inputType(t core.FieldType) string {
	switch t {
	case core.FieldDate:
		return "date"
	case core.FieldURL:
		return "url"
	default:
		return "text"
	}
}

// DeleteData drives the delete confirmation screen.
type DeleteData struct {
	Def    core.ResourceDefinition
	ID     string
	Record table.Record // nil when the record is not in the cached collection
	Action string
	Cancel string
}
