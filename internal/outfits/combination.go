package outfits

import "sort"

// SearchBounds tunes the combination search. These are recall/performance
// trade-offs, not correctness constraints: the budget invariant holds for
// any setting.
type SearchBounds struct {
	// TopKPerRole bounds how many candidates per role are considered.
	TopKPerRole int
	// MaxCombinations is the hard cap on bundles returned.
	MaxCombinations int
	// MaxAccessoriesDress caps accessories appended to dress-led bundles.
	MaxAccessoriesDress int
	// MaxAccessoriesSeparates caps accessories appended to separates-led bundles.
	MaxAccessoriesSeparates int
}

// DefaultSearchBounds returns the production defaults.
func DefaultSearchBounds() SearchBounds {
	return SearchBounds{
		TopKPerRole:             8,
		MaxCombinations:         20,
		MaxAccessoriesDress:     2,
		MaxAccessoriesSeparates: 1,
	}
}

func (b SearchBounds) normalized() SearchBounds {
	d := DefaultSearchBounds()
	if b.TopKPerRole <= 0 {
		b.TopKPerRole = d.TopKPerRole
	}
	if b.MaxCombinations <= 0 {
		b.MaxCombinations = d.MaxCombinations
	}
	if b.MaxAccessoriesDress <= 0 {
		b.MaxAccessoriesDress = d.MaxAccessoriesDress
	}
	if b.MaxAccessoriesSeparates <= 0 {
		b.MaxAccessoriesSeparates = d.MaxAccessoriesSeparates
	}
	return b
}

// SearchCombinations enumerates budget-feasible bundles from the catalog.
// Two strategies run in order: dress-led pairs (dress + shoes, up to
// MaxAccessoriesDress accessories) and separates-led triples (top + bottom +
// shoes, optional cheapest outerwear, up to MaxAccessoriesSeparates
// accessories). Every returned bundle satisfies TotalPrice <= budget, and
// the result never exceeds MaxCombinations entries. Confidence and style
// match are left zero; scoring happens separately.
func SearchCombinations(catalog Catalog, budget float64, bounds SearchBounds) []Bundle {
	if budget <= 0 {
		return nil
	}
	bounds = bounds.normalized()

	dresses := topK(catalog[RoleDress], bounds.TopKPerRole)
	tops := topK(catalog[RoleTop], bounds.TopKPerRole)
	bottoms := topK(catalog[RoleBottom], bounds.TopKPerRole)
	shoes := topK(catalog[RoleShoes], bounds.TopKPerRole)
	outerwear := topK(catalog[RoleOuterwear], bounds.TopKPerRole)
	accessories := topK(catalog[RoleAccessories], bounds.TopKPerRole)

	bundles := make([]Bundle, 0, bounds.MaxCombinations)

	// Dress-led strategy.
	for _, dress := range dresses {
		for _, shoe := range shoes {
			if len(bundles) >= bounds.MaxCombinations {
				return bundles
			}
			base := dress.Price + shoe.Price
			if base > budget {
				continue
			}
			items := []Product{dress, shoe}
			items, total := appendAccessories(items, base, budget, accessories, bounds.MaxAccessoriesDress)
			bundles = append(bundles, Bundle{Items: items, TotalPrice: total})
		}
	}

	// Separates-led strategy.
	for _, top := range tops {
		for _, bottom := range bottoms {
			for _, shoe := range shoes {
				if len(bundles) >= bounds.MaxCombinations {
					return bundles
				}
				base := top.Price + bottom.Price + shoe.Price
				if base > budget {
					continue
				}
				items := []Product{top, bottom, shoe}
				total := base
				if ow, ok := cheapestWithin(outerwear, budget-total); ok {
					items = append(items, ow)
					total += ow.Price
				}
				items, total = appendAccessories(items, total, budget, accessories, bounds.MaxAccessoriesSeparates)
				bundles = append(bundles, Bundle{Items: items, TotalPrice: total})
			}
		}
	}

	return bundles
}

// appendAccessories greedily adds up to max accessories whose price fits the
// remaining budget, preferring higher ratings; rating ties keep input order.
func appendAccessories(items []Product, total, budget float64, accessories []Product, max int) ([]Product, float64) {
	if max <= 0 || len(accessories) == 0 {
		return items, total
	}
	ranked := make([]Product, len(accessories))
	copy(ranked, accessories)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rating > ranked[j].Rating
	})
	added := 0
	for _, acc := range ranked {
		if added >= max {
			break
		}
		if acc.Price <= budget-total {
			items = append(items, acc)
			total += acc.Price
			added++
		}
	}
	return items, total
}

func cheapestWithin(products []Product, remaining float64) (Product, bool) {
	best := -1
	for i, p := range products {
		if p.Price > remaining {
			continue
		}
		if best < 0 || p.Price < products[best].Price {
			best = i
		}
	}
	if best < 0 {
		return Product{}, false
	}
	return products[best], true
}

func topK(products []Product, k int) []Product {
	if len(products) <= k {
		return products
	}
	return products[:k]
}
