package resources

import (
	"github.com/salvationministries/console/internal/api"
	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/session"
)

func init() {
	registerUsers()
}

func registerUsers() {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{
			Key:     "users",
			Group:   session.GroupPeople,
			Label:   "Users",
			Subject: "User List",
		},
		Fields: []core.FieldSpec{
			{Name: "fullName", Label: "Name", Type: core.FieldText, Searchable: true, Sortable: true, Editable: true, Required: true},
			{Name: "email", Label: "Email", Type: core.FieldText, Searchable: true, Sortable: true, Editable: true, Required: true},
			{Name: "phone", Label: "Phone", Type: core.FieldText, Searchable: true, Editable: true},
			{Name: "role", Label: "Role", Type: core.FieldEnum, Sortable: true, Filterable: true, Editable: true, Required: true,
				EnumValues: []string{"member", "media", "finance", "admin", "super_admin"}},
			{Name: "branch", Label: "Branch", Type: core.FieldText, Searchable: true, Sortable: true, Editable: true},
			{Name: "isVerified", Label: "Verified", Type: core.FieldBool, Sortable: true},
			createdAt,
		},
		// Accounts are created by sign-up, not from the console.
		Endpoints: core.Endpoints{
			List:   api.List("/all-users", "users"),
			Update: api.Update("/update-user/:id", "user"),
			Delete: api.Delete("/delete-user/:id"),
		},
		DefaultSort: "fullName",
	})
}
