package resources

import (
	"github.com/salvationministries/console/internal/api"
	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/session"
	"github.com/salvationministries/console/internal/table"
)

func init() {
	registerEbooks()
	registerOrders()
}

func registerEbooks() {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{Key: "ebooks", Group: session.GroupStore, Label: "E-books"},
		Fields: []core.FieldSpec{
			title,
			{Name: "author", Label: "Author", Type: core.FieldText, Searchable: true, Sortable: true, Editable: true, Required: true},
			{Name: "price", Label: "Price", Type: core.FieldMoney, Sortable: true, Editable: true, Required: true},
			{Name: "currency", Label: "Currency", Type: core.FieldEnum, Filterable: true, Editable: true, EnumValues: currencies},
			{Name: "coverUrl", Label: "Cover", Type: core.FieldURL, Editable: true, Hidden: true},
			{Name: "fileUrl", Label: "File", Type: core.FieldURL, Editable: true, Required: true, Hidden: true},
			published,
		},
		Endpoints:   crud("ebook", "ebooks", "ebook"),
		DefaultSort: "title",
	})
}

func registerOrders() {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{Key: "orders", Group: session.GroupStore, Label: "Orders", Subject: "Order Report"},
		Fields: []core.FieldSpec{
			{Name: "reference", Label: "Reference", Type: core.FieldText, Searchable: true, Sortable: true},
			{Name: "customer.name", Label: "Customer", Type: core.FieldText, Searchable: true, Sortable: true},
			{Name: "customer.email", Label: "Email", Type: core.FieldText, Searchable: true},
			{Name: "item.title", Label: "Item", Type: core.FieldText, Searchable: true, Sortable: true},
			{Name: "total", Label: "Total", Type: core.FieldMoney, Sortable: true},
			{Name: "currency", Label: "Currency", Type: core.FieldEnum, Filterable: true, EnumValues: currencies},
			{Name: "status", Label: "Status", Type: core.FieldEnum, Sortable: true, Filterable: true, Editable: true, Required: true,
				EnumValues: []string{"pending", "paid", "fulfilled", "refunded", "cancelled"}},
			createdAt,
		},
		// Orders come from checkout; staff only move them through statuses.
		Endpoints: core.Endpoints{
			List:   api.List("/all-orders", "orders"),
			Update: api.Update("/update-order/:id", "order"),
		},
		DefaultSort:  "createdAt",
		DefaultOrder: table.Desc,
	})
}
