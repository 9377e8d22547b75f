package core

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func formDefinition() ResourceDefinition {
	return ResourceDefinition{
		Info: ResourceInfo{Key: "sermons"},
		Fields: []FieldSpec{
			{Name: "title", Label: "Title", Type: FieldText, Editable: true, Required: true},
			{Name: "description", Label: "Description", Type: FieldLongText, Editable: true},
			{Name: "order", Label: "Order", Type: FieldNumber, Editable: true},
			{Name: "price", Label: "Price", Type: FieldMoney, Editable: true},
			{Name: "published", Label: "Published", Type: FieldBool, Editable: true},
			{Name: "date", Label: "Date", Type: FieldDate, Editable: true},
			{Name: "category", Label: "Category", Type: FieldEnum, Editable: true, EnumValues: []string{"sunday", "midweek"}},
			{Name: "videoUrl", Label: "Video", Type: FieldURL, Editable: true},
			{Name: "views", Label: "Views", Type: FieldNumber},
		},
	}
}

func TestConvertForm_Valid(t *testing.T) {
	values := url.Values{
		"title":       {"  Walking in Grace "},
		"description": {""},
		"order":       {"1,200"},
		"price":       {"$ 1,500.00"},
		"published":   {"on"},
		"date":        {"2024-03-10"},
		"category":    {"SUNDAY"},
		"videoUrl":    {"https://youtu.be/abc"},
		"views":       {"99"},
	}

	got, err := ConvertForm(formDefinition(), values)
	if err != nil {
		t.Fatalf("ConvertForm() error = %v", err)
	}

	want := map[string]any{
		"title":       "Walking in Grace",
		"description": "",
		"order":       json.Number("1200"),
		"price":       json.Number("1500"),
		"published":   true,
		"date":        "2024-03-10",
		"category":    "sunday",
		"videoUrl":    "https://youtu.be/abc",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ConvertForm() mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertForm_OptionalEmptyValuesOmitted(t *testing.T) {
	got, err := ConvertForm(formDefinition(), url.Values{"title": {"Grace"}})
	if err != nil {
		t.Fatalf("ConvertForm() error = %v", err)
	}
	want := map[string]any{"title": "Grace", "description": "", "published": false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ConvertForm() mismatch (-want +got):\n%s", diff)
	}
}

func TestConvertForm_ReportsEveryError(t *testing.T) {
	values := url.Values{
		"order":     {"twelve"},
		"price":     {"1.2.3"},
		"published": {"maybe"},
		"date":      {"10/03/2024"},
		"category":  {"friday"},
		"videoUrl":  {"youtu.be/abc"},
	}

	_, err := ConvertForm(formDefinition(), values)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("ConvertForm() error = %v, want ValidationErrors", err)
	}

	want := map[string]string{
		"title":     "is required",
		"order":     "invalid number",
		"price":     "invalid number",
		"published": "must be yes or no",
		"date":      "invalid date, use YYYY-MM-DD",
		"category":  "invalid choice",
		"videoUrl":  "invalid URL, use http:// or https://",
	}
	if diff := cmp.Diff(want, verrs.ByField()); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2500.50", "2500.5", true},
		{"₦1,200.25", "1200.25", true},
		{"NGN 5,000", "5000", true},
		{"(45.10)", "-45.1", true},
		{"-3", "-3", true},
		{"", "0", false},
		{"abc", "0", false},
		{"1.2.3", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMoney(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseMoney(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseMoney(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in     string
		want   bool
		wantOK bool
	}{
		{"on", true, true},
		{"Yes", true, true},
		{"1", true, true},
		{"", false, true},
		{"false", false, true},
		{"no", false, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		got, ok := ParseBool(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseBool(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFormValues(t *testing.T) {
	rec := map[string]any{
		"title":     "Grace",
		"order":     json.Number("3"),
		"published": true,
		"date":      "2024-03-10T09:00:00Z",
		"views":     json.Number("99"),
	}

	got := FormValues(formDefinition(), rec)
	want := url.Values{
		"title":     {"Grace"},
		"order":     {"3"},
		"published": {"on"},
		"date":      {"2024-03-10"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FormValues() mismatch (-want +got):\n%s", diff)
	}
}
