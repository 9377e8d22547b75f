package resources

import (
	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/session"
	"github.com/salvationministries/console/internal/table"
)

func init() {
	registerSermons()
	registerInspirations()
	registerTestimonies()
	registerFAQs()
	registerSliders()
	registerFlyers()
	registerNotifications()
	registerFeatures()
}

func registerSermons() {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{Key: "sermons", Group: session.GroupContent, Label: "Sermons"},
		Fields: []core.FieldSpec{
			title,
			{Name: "preacher", Label: "Preacher", Type: core.FieldText, Searchable: true, Sortable: true, Editable: true, Required: true},
			{Name: "series", Label: "Series", Type: core.FieldText, Searchable: true, Sortable: true, Editable: true},
			{Name: "date", Label: "Date", Type: core.FieldDate, Sortable: true, Editable: true, Required: true},
			{Name: "category", Label: "Category", Type: core.FieldEnum, Filterable: true, Sortable: true, Editable: true,
				EnumValues: []string{"sunday", "midweek", "special", "conference"}},
			{Name: "audioUrl", Label: "Audio", Type: core.FieldURL, Editable: true, Hidden: true},
			{Name: "videoUrl", Label: "Video", Type: core.FieldURL, Editable: true, Hidden: true},
			{Name: "description", Label: "Description", Type: core.FieldLongText, Searchable: true, Editable: true, Hidden: true},
			published,
		},
		Endpoints:    crud("sermon", "sermons", "sermon"),
		DefaultSort:  "date",
		DefaultOrder: table.Desc,
	})
}

func registerInspirations() {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{Key: "inspirations", Group: session.GroupContent, Label: "Inspirations"},
		Fields: []core.FieldSpec{
			title,
			{Name: "scripture", Label: "Scripture", Type: core.FieldText, Searchable: true, Editable: true},
			{Name: "body", Label: "Message", Type: core.FieldLongText, Searchable: true, Editable: true, Required: true, Hidden: true},
			{Name: "date", Label: "Date", Type: core.FieldDate, Sortable: true, Editable: true, Required: true},
			published,
		},
		Endpoints:    crud("inspiration", "inspirations", "inspiration"),
		DefaultSort:  "date",
		DefaultOrder: table.Desc,
	})
}

func registerTestimonies() {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{Key: "testimonies", Group: session.GroupContent, Label: "Testimonies"},
		Fields: []core.FieldSpec{
			{Name: "name", Label: "Name", Type: core.FieldText, Searchable: true, Sortable: true, Editable: true, Required: true},
			title,
			{Name: "testimony", Label: "Testimony", Type: core.FieldLongText, Searchable: true, Editable: true, Required: true, Hidden: true},
			{Name: "status", Label: "Status", Type: core.FieldEnum, Filterable: true, Sortable: true, Editable: true,
				EnumValues: []string{"pending", "approved", "rejected"}},
			createdAt,
		},
		Endpoints:    crud("testimony", "testimonies", "testimony"),
		DefaultSort:  "createdAt",
		DefaultOrder: table.Desc,
	})
}

func registerFAQs() {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{Key: "faqs", Group: session.GroupContent, Label: "FAQs"},
		Fields: []core.FieldSpec{
			{Name: "question", Label: "Question", Type: core.FieldText, Searchable: true, Sortable: true, Editable: true, Required: true},
			{Name: "answer", Label: "Answer", Type: core.FieldLongText, Searchable: true, Editable: true, Required: true},
			{Name: "order", Label: "Order", Type: core.FieldNumber, Sortable: true, Editable: true},
		},
		Endpoints:   crud("faq", "faqs", "faq"),
		DefaultSort: "order",
	})
}

func registerSliders() {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{Key: "sliders", Group: session.GroupContent, Label: "Sliders"},
		Fields: []core.FieldSpec{
			title,
			{Name: "imageUrl", Label: "Image", Type: core.FieldURL, Editable: true, Required: true},
			{Name: "link", Label: "Link", Type: core.FieldURL, Editable: true},
			{Name: "order", Label: "Order", Type: core.FieldNumber, Sortable: true, Editable: true},
			published,
		},
		Endpoints:   crud("slider", "sliders", "slider"),
		DefaultSort: "order",
	})
}

func registerFlyers() {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{Key: "flyers", Group: session.GroupContent, Label: "Flyers"},
		Fields: []core.FieldSpec{
			title,
			{Name: "imageUrl", Label: "Image", Type: core.FieldURL, Editable: true, Required: true},
			{Name: "eventDate", Label: "Event Date", Type: core.FieldDate, Sortable: true, Editable: true},
			published,
		},
		Endpoints:    crud("flyer", "flyers", "flyer"),
		DefaultSort:  "eventDate",
		DefaultOrder: table.Desc,
	})
}

func registerNotifications() {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{Key: "notifications", Group: session.GroupContent, Label: "Notifications"},
		Fields: []core.FieldSpec{
			title,
			{Name: "message", Label: "Message", Type: core.FieldLongText, Searchable: true, Editable: true, Required: true},
			{Name: "audience", Label: "Audience", Type: core.FieldEnum, Filterable: true, Sortable: true, Editable: true,
				EnumValues: []string{"all", "members", "workers", "pastors"}},
			createdAt,
		},
		Endpoints:    crud("notification", "notifications", "notification"),
		DefaultSort:  "createdAt",
		DefaultOrder: table.Desc,
	})
}

func registerFeatures() {
	core.Register(core.ResourceDefinition{
		Info: core.ResourceInfo{Key: "features", Group: session.GroupContent, Label: "Features"},
		Fields: []core.FieldSpec{
			title,
			{Name: "description", Label: "Description", Type: core.FieldLongText, Searchable: true, Editable: true},
			{Name: "enabled", Label: "Enabled", Type: core.FieldBool, Sortable: true, Filterable: true, Editable: true},
		},
		Endpoints:   crud("feature", "features", "feature"),
		DefaultSort: "title",
	})
}
