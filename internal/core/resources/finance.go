package resources

import (
	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/session"
	"github.com/salvationministries/console/internal/table"
)

func init() {
	registerOfferings()
	registerTithes()
}

var (
	paymentMethods = []string{"cash", "transfer", "card", "pos", "online"}
	currencies     = []string{"NGN", "USD", "GBP", "EUR"}
)

func registerOfferings() {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{
			Key:     "offerings",
			Group:   session.GroupFinance,
			Label:   "Offerings",
			Subject: "Offering Report",
		},
		Fields: []core.FieldSpec{
			{Name: "date", Label: "Date", Type: core.FieldDate, Sortable: true, Editable: true, Required: true},
			{Name: "service", Label: "Service", Type: core.FieldText, Searchable: true, Sortable: true, Editable: true, Required: true},
			{Name: "branch", Label: "Branch", Type: core.FieldText, Searchable: true, Sortable: true, Editable: true},
			{Name: "amount", Label: "Amount", Type: core.FieldMoney, Sortable: true, Editable: true, Required: true},
			{Name: "currency", Label: "Currency", Type: core.FieldEnum, Filterable: true, Editable: true, EnumValues: currencies},
			{Name: "paymentMethod", Label: "Method", Type: core.FieldEnum, Sortable: true, Filterable: true, Editable: true, EnumValues: paymentMethods},
			{Name: "recordedBy.name", Label: "Recorded By", Type: core.FieldText, Searchable: true, Sortable: true},
			{Name: "note", Label: "Note", Type: core.FieldLongText, Searchable: true, Editable: true, Hidden: true},
		},
		Endpoints:    crud("offering", "offerings", "offering"),
		DefaultSort:  "date",
		DefaultOrder: table.Desc,
	})
}

func registerTithes() {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{
			Key:     "tithes",
			Group:   session.GroupFinance,
			Label:   "Tithes",
			Subject: "Tithe Report",
		},
		Fields: []core.FieldSpec{
			{Name: "date", Label: "Date", Type: core.FieldDate, Sortable: true, Editable: true, Required: true},
			{Name: "name", Label: "Member", Type: core.FieldText, Searchable: true, Sortable: true, Editable: true, Required: true},
			{Name: "email", Label: "Email", Type: core.FieldText, Searchable: true, Editable: true},
			{Name: "month", Label: "Month", Type: core.FieldEnum, Sortable: true, Filterable: true, Editable: true,
				EnumValues: []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}},
			{Name: "amount", Label: "Amount", Type: core.FieldMoney, Sortable: true, Editable: true, Required: true},
			{Name: "currency", Label: "Currency", Type: core.FieldEnum, Filterable: true, Editable: true, EnumValues: currencies},
			{Name: "paymentMethod", Label: "Method", Type: core.FieldEnum, Filterable: true, Editable: true, EnumValues: paymentMethods},
		},
		Endpoints:    crud("tithe", "tithes", "tithe"),
		PageSizes:    []int{10, 20, 50},
		DefaultSort:  "date",
		DefaultOrder: table.Desc,
	})
}
