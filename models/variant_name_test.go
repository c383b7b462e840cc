package models_test

import (
	"reflect"
	"testing"

	"bitbucket.org/mmdatafocus/marketplace_backend/models"
)

func TestParseVariantName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []models.OptionPair
	}{
		{
			name:  "two options",
			input: "Color: Red / Size: M",
			want: []models.OptionPair{
				{Name: "Color", Value: "Red"},
				{Name: "Size", Value: "M"},
			},
		},
		{
			name:  "segment without colon is dropped",
			input: "Color: Red / FreeText / Size: M",
			want: []models.OptionPair{
				{Name: "Color", Value: "Red"},
				{Name: "Size", Value: "M"},
			},
		},
		{
			name:  "empty name or value dropped",
			input: ": Red / Size: / Color: Blue",
			want: []models.OptionPair{
				{Name: "Color", Value: "Blue"},
			},
		},
		{
			name:  "value keeps later colons",
			input: "Ratio: 16:9",
			want: []models.OptionPair{
				{Name: "Ratio", Value: "16:9"},
			},
		},
		{
			name:  "duplicates and order preserved",
			input: "Size: M / Size: L",
			want: []models.OptionPair{
				{Name: "Size", Value: "M"},
				{Name: "Size", Value: "L"},
			},
		},
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := models.ParseVariantName(tc.input)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseVariantName(%q) = %v; want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestUniqueOptionNames(t *testing.T) {
	names := []string{"Color: Red / Size: M", "color: Blue / Material: Wool"}
	got := models.UniqueOptionNames(names)
	// "color" canonicalizes to "Color"; first appearance order kept
	want := []string{"Color", "Size", "Material"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("UniqueOptionNames = %v; want %v", got, want)
	}
}

func TestVariantOptionValue(t *testing.T) {
	name := "Color: Red / Size: M / Color: Blue"
	got, ok := models.VariantOptionValue(name, "color")
	if !ok || got != "Red" {
		t.Fatalf("expected first match Red; got %q (ok=%v)", got, ok)
	}
	if _, ok := models.VariantOptionValue(name, "Material"); ok {
		t.Fatalf("expected no value for absent option")
	}
}

func TestGroupVariantNames(t *testing.T) {
	groups := models.GroupVariantNames([]string{
		"Color: Red / Size: M",
		"Color: Red / Size: L",
		"Color: Blue / Size: M",
	}, "Color")

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups; got %d", len(groups))
	}
	if groups[0].Value != "Red" || len(groups[0].Names) != 2 {
		t.Fatalf("first group = %+v; want Red with 2 names", groups[0])
	}
	if groups[1].Value != "Blue" || len(groups[1].Names) != 1 {
		t.Fatalf("second group = %+v; want Blue with 1 name", groups[1])
	}
}

func TestProductOptionNames(t *testing.T) {
	got := models.ProductOptionNames([]string{
		"Material: Wool / size: M / color: Red",
		"Color: Blue / Size: L",
	})
	// canonical names lead in canonical order, the rest alphabetical
	want := []string{"Color", "Size", "Material"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ProductOptionNames = %v; want %v", got, want)
	}
}

func TestSortOptionNames(t *testing.T) {
	got := models.SortOptionNames([]string{"Size", "Color", "Material"}, []string{"Color", "Size"})
	want := []string{"Color", "Size", "Material"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SortOptionNames = %v; want %v", got, want)
	}

	// names absent from the custom order sort alphabetically after the rest
	got = models.SortOptionNames([]string{"Zed", "Alpha", "Size"}, []string{"Size"})
	want = []string{"Size", "Alpha", "Zed"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SortOptionNames = %v; want %v", got, want)
	}
}
