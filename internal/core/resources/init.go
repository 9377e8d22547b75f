// Package resources registers every backend resource with the core registry.
// Import this package to ensure all resources are registered.
package resources

import (
	"github.com/salvationministries/console/internal/api"
	"github.com/salvationministries/console/internal/core"
)

// crud builds the conventional endpoint set for a backend noun:
// GET /all-<noun>, POST /create-<noun>, PUT /update-<noun>/:id and
// DELETE /delete-<noun>/:id. The list payload sits under listKey and
// single-record payloads under itemKey.
func crud(noun, listKey, itemKey string) core.Endpoints {
	return core.Endpoints{
		List:   api.List("/all-"+noun, listKey),
		Create: api.Create("/create-"+noun, itemKey),
		Update: api.Update("/update-"+noun+"/:id", itemKey),
		Delete: api.Delete("/delete-" + noun + "/:id"),
	}
}

// Shared field specs.
var (
	createdAt = core.FieldSpec{Name: "createdAt", Label: "Created", Type: core.FieldDate, Sortable: true}
	title     = core.FieldSpec{Name: "title", Label: "Title", Type: core.FieldText, Searchable: true, Sortable: true, Editable: true, Required: true}
	published = core.FieldSpec{Name: "published", Label: "Published", Type: core.FieldBool, Sortable: true, Editable: true}
)
