package outfits

import "strings"

// StyleMatch scores how well a set of items overlaps the user's declared
// color, brand, and style preferences. Returns a value in [0,1]: 0.5 when
// the user stated no preferences, higher with more overlap. Pure function.
func StyleMatch(items []Product, prefs Preferences) float64 {
	dims := 0
	var sum float64
	if len(prefs.Colors) > 0 {
		dims++
		sum += overlapFraction(items, prefs.Colors, func(p Product) []string { return p.Colors })
	}
	if len(prefs.Styles) > 0 {
		dims++
		sum += overlapFraction(items, prefs.Styles, func(p Product) []string { return p.Styles })
	}
	if len(prefs.Brands) > 0 {
		dims++
		sum += overlapFraction(items, prefs.Brands, func(p Product) []string { return []string{p.Brand} })
	}
	if dims == 0 {
		return 0.5
	}
	return sum / float64(dims)
}

// overlapFraction is the share of items matching at least one preferred value.
func overlapFraction(items []Product, preferred []string, attr func(Product) []string) float64 {
	if len(items) == 0 {
		return 0
	}
	want := make(map[string]struct{}, len(preferred))
	for _, v := range preferred {
		want[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	matched := 0
	for _, it := range items {
		for _, v := range attr(it) {
			if _, ok := want[strings.ToLower(strings.TrimSpace(v))]; ok {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(items))
}
