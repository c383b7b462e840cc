package models

import (
	"sort"
	"strings"
)

// A variation's Name field encodes its options as "Color: Orange / Size: M".
// Segments are separated by "/", each segment holds "name: value".
// Splitting happens once when variation data is loaded; everything downstream
// works on OptionPair slices, never on raw strings.

type OptionPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// canonical option names recognized for grouping; lookups are case-insensitive
var canonicalOptionNames = []string{"Color", "Size"}

// CanonicalOptionName resolves free-form option keys (color/Color/COLOR) to
// their canonical spelling. Unrecognized names are returned trimmed as-is.
func CanonicalOptionName(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, canonical := range canonicalOptionNames {
		if strings.EqualFold(trimmed, canonical) {
			return canonical
		}
	}
	return trimmed
}

// ParseVariantName splits a variant name into ordered (name, value) pairs.
// A segment without a colon is dropped. A segment whose name or value is
// empty after trimming is dropped. Duplicate names are kept in order.
func ParseVariantName(variantName string) []OptionPair {
	pairs := []OptionPair{}
	for _, segment := range strings.Split(variantName, "/") {
		segment = strings.TrimSpace(segment)
		name, value, found := strings.Cut(segment, ":")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		pairs = append(pairs, OptionPair{Name: name, Value: value})
	}
	return pairs
}

// UniqueOptionNames collects the distinct option names across variant names,
// in order of first appearance.
func UniqueOptionNames(variantNames []string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, variantName := range variantNames {
		for _, pair := range ParseVariantName(variantName) {
			canonical := CanonicalOptionName(pair.Name)
			if !seen[canonical] {
				seen[canonical] = true
				names = append(names, canonical)
			}
		}
	}
	return names
}

// VariantOptionValue returns the value of the first pair whose name matches
// optionName case-insensitively.
func VariantOptionValue(variantName string, optionName string) (string, bool) {
	for _, pair := range ParseVariantName(variantName) {
		if strings.EqualFold(pair.Name, optionName) {
			return pair.Value, true
		}
	}
	return "", false
}

type VariantGroup struct {
	Value string   `json:"value"`
	Names []string `json:"names"`
}

// GroupVariantNames buckets variant names by the value of optionName.
// Groups appear in order of first occurrence, members keep input order.
// Names lacking the option are skipped.
func GroupVariantNames(variantNames []string, optionName string) []VariantGroup {
	index := make(map[string]int)
	groups := []VariantGroup{}
	for _, variantName := range variantNames {
		value, ok := VariantOptionValue(variantName, optionName)
		if !ok {
			continue
		}
		i, exists := index[value]
		if !exists {
			index[value] = len(groups)
			groups = append(groups, VariantGroup{Value: value})
			i = len(groups) - 1
		}
		groups[i].Names = append(groups[i].Names, variantName)
	}
	return groups
}

// ProductOptionNames derives the ordered option set of a variable product
// from its variation names: canonical names first, the rest alphabetical.
func ProductOptionNames(variantNames []string) []string {
	return SortOptionNames(UniqueOptionNames(variantNames), canonicalOptionNames)
}

// SortOptionNames orders names by their index in customOrder. Names not in
// customOrder sort alphabetically and always come after every name that is,
// regardless of how they compare alphabetically against customOrder entries.
func SortOptionNames(names []string, customOrder []string) []string {
	rank := make(map[string]int, len(customOrder))
	for i, name := range customOrder {
		rank[name] = i
	}

	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, iKnown := rank[sorted[i]]
		rj, jKnown := rank[sorted[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return sorted[i] < sorted[j]
		}
	})
	return sorted
}
