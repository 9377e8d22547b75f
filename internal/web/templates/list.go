package templates

import (
	"net/url"
	"strconv"

	"github.com/salvationministries/console/internal/core"
	"github.com/salvationministries/console/internal/table"
)

// pagerWindow is how many page links the pagination bar shows.
const pagerWindow = 5

// ListData is everything a list screen renders.
type ListData struct {
	Resource  core.ResourceView
	BasePath  string // "/r/sermons", "/audit-log"
	PageSizes []int

	// Summary holds finance totals of the filtered records, when applicable.
	Summary *core.FinanceSummary
}

func (d ListData) state() table.State { return d.Resource.View.State }

func (d ListData) href(st table.State) string {
	return withQuery(d.BasePath, st.Query())
}

func (d ListData) sortHref(field string) string {
	return d.href(d.state().ToggleSort(field))
}

// exportHref keeps search, filters and sort but not the page.
func (d ListData) exportHref() string {
	q := d.state().Query()
	q.Del(table.ParamPage)
	return withQuery(d.BasePath+"/export", q)
}

func (d ListData) hasActions() bool {
	def := d.Resource.Def
	return d.Resource.CanMutate && (def.CanUpdate() || def.CanDelete())
}

func (d ListData) recordPath(rec table.Record) string {
	return d.BasePath + "/" + url.PathEscape(d.Resource.Def.RecordID(rec))
}

type pageLink struct {
	Label   string
	Href    string
	Current bool
}

func (d ListData) pageLinks() []pageLink {
	page := d.Resource.View.Page
	st := d.state()

	var links []pageLink
	if page.HasPrev() {
		links = append(links, pageLink{Label: "Prev", Href: d.href(st.WithPage(page.Page - 1))})
	}
	for _, n := range page.Window(pagerWindow) {
		links = append(links, pageLink{
			Label:   strconv.Itoa(n),
			Href:    d.href(st.WithPage(n)),
			Current: n == page.Page,
		})
	}
	if page.HasNext() {
		links = append(links, pageLink{Label: "Next", Href: d.href(st.WithPage(page.Page + 1))})
	}
	return links
}

func sortIndicator(st table.State, field string) string {
	switch {
	case st.SortKey != field:
		return ""
	case st.SortOrder == table.Desc:
		return " ▼"
	default:
		return " ▲"
	}
}

type option struct {
	Value string
	Label string
}

func filterOptions(f core.FieldSpec) []option {
	if f.Type == core.FieldBool {
		return []option{{"true", "Yes"}, {"false", "No"}}
	}
	opts := make([]option, len(f.EnumValues))
	for i, v := range f.EnumValues {
		opts[i] = option{v, v}
	}
	return opts
}

func fieldValue(rec table.Record, name string) any {
	v, _ := table.RecordField(rec, name)
	return v
}

// linkValue returns the target of a URL field that has a value.
func linkValue(f core.FieldSpec, rec table.Record) (string, bool) {
	if f.Type != core.FieldURL {
		return "", false
	}
	v := fieldValue(rec, f.Name)
	if v == nil {
		return "", false
	}
	return table.Text(v), true
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
