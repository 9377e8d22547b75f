package table

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ============================================================================
// Fixtures
// ============================================================================

func tithes() []Record {
	var recs []Record
	for i := 0; i < 25; i++ {
		currency := "USD"
		if i >= 15 {
			currency = "NGN"
		}
		recs = append(recs, Record{
			"_id":      fmt.Sprintf("t%02d", i),
			"name":     fmt.Sprintf("Member %02d", i),
			"amount":   float64(100 + i),
			"currency": currency,
			"branch":   map[string]any{"name": "Port Harcourt"},
		})
	}
	return recs
}

func ids(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID("")
	}
	return out
}

// randomRecords builds n records with few distinct values so ties are common.
func randomRecords(seed uint64, n int) []Record {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	names := []string{"Grace", "grace", "John", "Amazing Grace Choir", "Esther", ""}
	currencies := []string{"USD", "NGN"}
	recs := make([]Record, n)
	for i := range recs {
		rec := Record{
			"_id":      fmt.Sprintf("r%03d", i),
			"name":     names[rng.IntN(len(names))],
			"amount":   float64(rng.IntN(5) * 10),
			"currency": currencies[rng.IntN(len(currencies))],
		}
		if rng.IntN(7) == 0 {
			delete(rec, "amount")
		}
		recs[i] = rec
	}
	return recs
}

// ============================================================================
// ApplyFilters
// ============================================================================

func TestApplyFilters_Scenarios(t *testing.T) {
	recs := []Record{
		{"_id": "1", "name": "Grace E."},
		{"_id": "2", "name": "John D."},
		{"_id": "3", "name": "Amazing Grace Choir"},
	}

	got := ApplyFilters(recs, Filters{Search: "grace"}, []string{"name"}, RecordField)
	if diff := cmp.Diff([]string{"1", "3"}, ids(got)); diff != "" {
		t.Errorf("search grace mismatch (-want +got):\n%s", diff)
	}

	got = ApplyFilters(recs, Filters{Search: "   "}, []string{"name"}, RecordField)
	if len(got) != 3 {
		t.Errorf("blank search kept %d records, want 3", len(got))
	}
}

func TestApplyFilters_Categorical(t *testing.T) {
	recs := tithes()

	got := ApplyFilters(recs, Filters{Categorical: map[string]string{"currency": "NGN"}}, nil, RecordField)
	if len(got) != 10 {
		t.Fatalf("NGN filter kept %d records, want 10", len(got))
	}
	for _, r := range got {
		if r["currency"] != "NGN" {
			t.Errorf("record %s has currency %v", r.ID(""), r["currency"])
		}
	}

	got = ApplyFilters(recs, Filters{Categorical: map[string]string{"currency": "ngn"}}, nil, RecordField)
	if len(got) != 10 {
		t.Errorf("case-insensitive NGN filter kept %d records, want 10", len(got))
	}

	got = ApplyFilters(recs, Filters{Categorical: map[string]string{"currency": All}}, nil, RecordField)
	if len(got) != 25 {
		t.Errorf("All sentinel kept %d records, want 25", len(got))
	}
}

func TestApplyFilters_CombinesWithAnd(t *testing.T) {
	recs := []Record{
		{"_id": "1", "name": "Grace", "currency": "USD", "isVerified": true},
		{"_id": "2", "name": "Grace", "currency": "NGN", "isVerified": true},
		{"_id": "3", "name": "Grace", "currency": "NGN", "isVerified": false},
		{"_id": "4", "name": "John", "currency": "NGN", "isVerified": true},
	}
	f := Filters{
		Search:      "gra",
		Categorical: map[string]string{"currency": "NGN", "isVerified": "true"},
	}

	got := ApplyFilters(recs, f, []string{"name"}, RecordField)
	if diff := cmp.Diff([]string{"2"}, ids(got)); diff != "" {
		t.Errorf("AND filter mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyFilters_MissingFieldsFail(t *testing.T) {
	recs := []Record{
		{"_id": "1", "name": nil, "role": "admin"},
		{"_id": "2", "role": "admin"},
		{"_id": "3", "name": "Admin Grace"},
	}

	got := ApplyFilters(recs, Filters{Search: "admin"}, []string{"name"}, RecordField)
	if diff := cmp.Diff([]string{"3"}, ids(got)); diff != "" {
		t.Errorf("search over missing field mismatch (-want +got):\n%s", diff)
	}

	got = ApplyFilters(recs, Filters{Categorical: map[string]string{"role": "admin"}}, nil, RecordField)
	if diff := cmp.Diff([]string{"1", "2"}, ids(got)); diff != "" {
		t.Errorf("categorical over missing field mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyFilters_NestedFieldsAndExtraPredicates(t *testing.T) {
	recs := []Record{
		{"_id": "1", "branch": map[string]any{"name": "Lagos"}, "amount": 5.0},
		{"_id": "2", "branch": map[string]any{"name": "Abuja"}, "amount": 50.0},
		{"_id": "3", "branch": "Lagos", "amount": 500.0},
	}
	large := Predicate[Record](func(r Record) bool {
		v, ok := r["amount"].(float64)
		return ok && v >= 10
	})

	got := ApplyFilters(recs, Filters{Search: "lagos"}, []string{"branch.name"}, RecordField)
	if diff := cmp.Diff([]string{"1"}, ids(got)); diff != "" {
		t.Errorf("nested search mismatch (-want +got):\n%s", diff)
	}

	got = ApplyFilters(recs, Filters{}, nil, RecordField, large)
	if diff := cmp.Diff([]string{"2", "3"}, ids(got)); diff != "" {
		t.Errorf("extra predicate mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyFilters_IsSubsequence(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		recs := randomRecords(seed, 60)
		f := Filters{Search: "grace", Categorical: map[string]string{"currency": "USD"}}
		got := ApplyFilters(recs, f, []string{"name"}, RecordField)

		j := 0
		for _, r := range recs {
			if j < len(got) && r.ID("") == got[j].ID("") {
				j++
			}
		}
		if j != len(got) {
			t.Fatalf("seed %d: filtered output is not an ordered subsequence of the input", seed)
		}
	}
}

// ============================================================================
// SortRecords
// ============================================================================

func TestSortRecords_NumericDescending(t *testing.T) {
	recs := []Record{
		{"_id": "a", "amount": 50.0},
		{"_id": "b", "amount": 200.0},
		{"_id": "c", "amount": 10.0},
	}

	got := SortRecords(recs, "amount", Desc, RecordField)

	var amounts []float64
	for _, r := range got {
		amounts = append(amounts, r["amount"].(float64))
	}
	if diff := cmp.Diff([]float64{200, 50, 10}, amounts); diff != "" {
		t.Errorf("amount desc mismatch (-want +got):\n%s", diff)
	}
	if recs[0]["_id"] != "a" {
		t.Error("SortRecords modified its input")
	}
}

func TestSortRecords_NumbersNotComparedAsText(t *testing.T) {
	recs := []Record{
		{"_id": "a", "amount": json.Number("9")},
		{"_id": "b", "amount": json.Number("100")},
		{"_id": "c", "amount": 20},
	}

	got := SortRecords(recs, "amount", Asc, RecordField)
	if diff := cmp.Diff([]string{"a", "c", "b"}, ids(got)); diff != "" {
		t.Errorf("numeric sort mismatch (-want +got):\n%s", diff)
	}
}

func TestSortRecords_MixedNumbersAndText(t *testing.T) {
	recs := []Record{
		{"_id": "a", "v": json.Number("9")},
		{"_id": "b", "v": "15"},
		{"_id": "c", "v": json.Number("10")},
		{"_id": "d", "v": "8"},
		{"_id": "e", "v": json.Number("100")},
	}

	tests := []struct {
		order Order
		want  []string
	}{
		{Asc, []string{"a", "c", "e", "b", "d"}},
		{Desc, []string{"d", "b", "e", "c", "a"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			got := SortRecords(recs, "v", tt.order, RecordField)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("mixed sort mismatch (-want +got):\n%s", diff)
			}

			reversed := slices.Clone(recs)
			slices.Reverse(reversed)
			got = SortRecords(reversed, "v", tt.order, RecordField)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("mixed sort of reversed input mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortRecords_LocaleAwareStrings(t *testing.T) {
	recs := []Record{
		{"_id": "1", "name": "esther"},
		{"_id": "2", "name": "Émile"},
		{"_id": "3", "name": "Zion"},
		{"_id": "4", "name": "abigail"},
	}

	got := SortRecords(recs, "name", Asc, RecordField)
	if diff := cmp.Diff([]string{"4", "2", "1", "3"}, ids(got)); diff != "" {
		t.Errorf("collated sort mismatch (-want +got):\n%s", diff)
	}
}

func TestSortRecords_MissingSortsAsEmpty(t *testing.T) {
	recs := []Record{
		{"_id": "1", "name": "Bola"},
		{"_id": "2"},
		{"_id": "3", "name": "Ada"},
	}

	got := SortRecords(recs, "name", Asc, RecordField)
	if diff := cmp.Diff([]string{"2", "3", "1"}, ids(got)); diff != "" {
		t.Errorf("missing value sort mismatch (-want +got):\n%s", diff)
	}
}

func TestSortRecords_StableInBothDirections(t *testing.T) {
	recs := []Record{
		{"_id": "1", "amount": 10.0},
		{"_id": "2", "amount": 20.0},
		{"_id": "3", "amount": 10.0},
		{"_id": "4", "amount": 20.0},
	}

	asc := SortRecords(recs, "amount", Asc, RecordField)
	if diff := cmp.Diff([]string{"1", "3", "2", "4"}, ids(asc)); diff != "" {
		t.Errorf("asc ties mismatch (-want +got):\n%s", diff)
	}

	desc := SortRecords(recs, "amount", Desc, RecordField)
	if diff := cmp.Diff([]string{"2", "4", "1", "3"}, ids(desc)); diff != "" {
		t.Errorf("desc ties mismatch (-want +got):\n%s", diff)
	}
}

func TestSortRecords_Idempotent(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		recs := randomRecords(seed, 40)
		for _, key := range []string{"amount", "name", "currency"} {
			for _, order := range []Order{Asc, Desc} {
				once := SortRecords(recs, key, order, RecordField)
				twice := SortRecords(once, key, order, RecordField)
				if diff := cmp.Diff(ids(once), ids(twice)); diff != "" {
					t.Fatalf("seed %d key %s %s: second sort changed order (-once +twice):\n%s", seed, key, order, diff)
				}
			}
		}
	}
}

// ============================================================================
// Paginate
// ============================================================================

func TestPaginate(t *testing.T) {
	recs := tithes()

	tests := []struct {
		name           string
		page, size     int
		wantLen        int
		wantTotalPages int
		wantStart      int
		wantEnd        int
	}{
		{"first page", 1, 10, 10, 3, 0, 10},
		{"last partial page", 3, 10, 5, 3, 20, 25},
		{"past the end", 4, 10, 0, 3, 25, 25},
		{"far past the end", 1 << 30, 10, 0, 3, 25, 25},
		{"page zero is page one", 0, 10, 10, 3, 0, 10},
		{"non-positive size uses default", 1, 0, 10, 3, 0, 10},
		{"single page", 1, 50, 25, 1, 0, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(recs, tt.page, tt.size)
			if len(p.Records) != tt.wantLen {
				t.Errorf("len(Records) = %d, want %d", len(p.Records), tt.wantLen)
			}
			if p.TotalPages != tt.wantTotalPages {
				t.Errorf("TotalPages = %d, want %d", p.TotalPages, tt.wantTotalPages)
			}
			if p.StartIndex != tt.wantStart || p.EndIndex != tt.wantEnd {
				t.Errorf("range = [%d,%d), want [%d,%d)", p.StartIndex, p.EndIndex, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate([]Record{}, 1, 10)
	if p.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", p.TotalPages)
	}
	if !p.Empty() || p.FirstItem() != 0 || p.LastItem() != 0 {
		t.Errorf("empty page = %+v", p)
	}
	if p.Records == nil {
		t.Error("Records is nil for empty input, want empty slice")
	}
}

func TestPaginate_PartitionsCollection(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		recs := randomRecords(seed, int(seed*7))
		for _, size := range []int{1, 3, 10, 50} {
			first := Paginate(recs, 1, size)
			seen := make(map[string]bool)
			count := 0
			for page := 1; page <= first.TotalPages; page++ {
				for _, r := range Paginate(recs, page, size).Records {
					if seen[r.ID("")] {
						t.Fatalf("seed %d size %d: record %s on two pages", seed, size, r.ID(""))
					}
					seen[r.ID("")] = true
					count++
				}
			}
			if count != len(recs) {
				t.Fatalf("seed %d size %d: pages cover %d records, want %d", seed, size, count, len(recs))
			}
		}
	}
}

func TestPage_Window(t *testing.T) {
	tests := []struct {
		page, totalPages, size int
		want                   []int
	}{
		{1, 1, 5, []int{1}},
		{1, 10, 5, []int{1, 2, 3, 4, 5}},
		{6, 10, 5, []int{4, 5, 6, 7, 8}},
		{10, 10, 5, []int{6, 7, 8, 9, 10}},
		{12, 10, 5, []int{6, 7, 8, 9, 10}},
	}

	for _, tt := range tests {
		p := Page[Record]{Page: tt.page, TotalPages: tt.totalPages}
		if diff := cmp.Diff(tt.want, p.Window(tt.size)); diff != "" {
			t.Errorf("Window(page=%d,total=%d) mismatch (-want +got):\n%s", tt.page, tt.totalPages, diff)
		}
	}
}

// ============================================================================
// State and Compute
// ============================================================================

func TestState_FilterChangesResetPage(t *testing.T) {
	st := NewState(10).WithPage(3)

	if got := st.WithSearch("grace").Page; got != 1 {
		t.Errorf("WithSearch page = %d, want 1", got)
	}
	if got := st.WithFilter("currency", "NGN").Page; got != 1 {
		t.Errorf("WithFilter page = %d, want 1", got)
	}
	if got := st.WithFilter("currency", All).Page; got != 1 {
		t.Errorf("WithFilter(all) page = %d, want 1", got)
	}
	if got := st.ClearFilters().Page; got != 1 {
		t.Errorf("ClearFilters page = %d, want 1", got)
	}
	if got := st.WithPageSize(20, []int{10, 20, 50}).Page; got != 1 {
		t.Errorf("WithPageSize page = %d, want 1", got)
	}
	if st.Page != 3 {
		t.Errorf("transitions modified the receiver: page = %d", st.Page)
	}
}

func TestState_WithFilterDoesNotAlias(t *testing.T) {
	base := NewState(10).WithFilter("currency", "USD")
	next := base.WithFilter("currency", "NGN")

	if base.Filter("currency") != "USD" {
		t.Errorf("base filter = %q, want USD", base.Filter("currency"))
	}
	if next.Filter("currency") != "NGN" {
		t.Errorf("next filter = %q, want NGN", next.Filter("currency"))
	}
	if got := next.WithFilter("currency", "").Filter("currency"); got != All {
		t.Errorf("cleared filter = %q, want %q", got, All)
	}
}

func TestState_ToggleSort(t *testing.T) {
	st := NewState(10)

	st = st.ToggleSort("amount")
	if st.SortKey != "amount" || st.SortOrder != Asc {
		t.Fatalf("first click = %s %s, want amount asc", st.SortKey, st.SortOrder)
	}
	st = st.ToggleSort("amount")
	if st.SortOrder != Desc {
		t.Errorf("second click order = %s, want desc", st.SortOrder)
	}
	st = st.ToggleSort("name")
	if st.SortKey != "name" || st.SortOrder != Asc {
		t.Errorf("new key = %s %s, want name asc", st.SortKey, st.SortOrder)
	}
}

func TestState_WithPageSizeRejectsUnknown(t *testing.T) {
	st := NewState(10).WithPage(2)
	got := st.WithPageSize(33, []int{10, 20, 50})
	if got.PageSize != 10 || got.Page != 2 {
		t.Errorf("disallowed size changed state to %+v", got)
	}
}

func TestState_QueryRoundTrip(t *testing.T) {
	d := Defaults{PageSize: 10, PageSizes: []int{10, 20, 50}, Filterable: []string{"currency", "type"}}
	st := NewState(10).
		WithSearch("grace").
		WithFilter("currency", "NGN").
		ToggleSort("amount").
		ToggleSort("amount").
		WithPageSize(20, d.PageSizes).
		WithPage(2)

	got := ParseState(st.Query(), d)
	if diff := cmp.Diff(st, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseState_IgnoresInvalid(t *testing.T) {
	d := Defaults{PageSize: 10, PageSizes: []int{10, 20}, SortKey: "createdAt", SortOrder: Desc, Filterable: []string{"currency"}}
	values := map[string][]string{
		"page":             {"-4"},
		"size":             {"999"},
		"filter[role]":     {"admin"},
		"filter[]":         {"x"},
		"filter[currency]": {"all"},
	}

	st := ParseState(values, d)
	if st.Page != 1 || st.PageSize != 10 {
		t.Errorf("page/size = %d/%d, want 1/10", st.Page, st.PageSize)
	}
	if len(st.Filters) != 0 {
		t.Errorf("Filters = %v, want none", st.Filters)
	}
	if st.SortKey != "createdAt" || st.SortOrder != Desc {
		t.Errorf("sort = %s %s, want default createdAt desc", st.SortKey, st.SortOrder)
	}
}

func TestCompute_Scenario(t *testing.T) {
	schema := Schema[Record]{
		Get:          RecordField,
		SearchFields: []string{"name"},
		SortFields:   []string{"amount", "name"},
	}
	st := NewState(10).WithPage(2).WithFilter("currency", "NGN")

	v := Compute(tithes(), st, schema)
	if len(v.Filtered) != 10 {
		t.Errorf("len(Filtered) = %d, want 10", len(v.Filtered))
	}
	if v.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", v.TotalPages)
	}
	if len(v.Records) != 10 {
		t.Errorf("len(Records) = %d, want 10", len(v.Records))
	}
}

func TestCompute_SortsBeforePaginating(t *testing.T) {
	schema := Schema[Record]{Get: RecordField, SortFields: []string{"amount"}}
	st := NewState(5).ToggleSort("amount").ToggleSort("amount")

	v := Compute(tithes(), st, schema)
	if diff := cmp.Diff([]string{"t24", "t23", "t22", "t21", "t20"}, ids(v.Records)); diff != "" {
		t.Errorf("first page after desc sort mismatch (-want +got):\n%s", diff)
	}
}

func TestCompute_UnknownSortKeyKeepsOrder(t *testing.T) {
	schema := Schema[Record]{Get: RecordField, SortFields: []string{"amount"}}
	st := NewState(50).ToggleSort("name").ToggleSort("name")

	v := Compute(tithes(), st, schema)
	if diff := cmp.Diff(ids(tithes()), ids(v.Filtered)); diff != "" {
		t.Errorf("unknown sort key reordered records (-want +got):\n%s", diff)
	}
}
