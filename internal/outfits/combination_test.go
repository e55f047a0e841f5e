package outfits

import (
	"fmt"
	"testing"
)

func testCatalog() Catalog {
	return Catalog{
		RoleDress: {
			{ID: "d1", Name: "Linen Dress", Role: RoleDress, Price: 120, Rating: 4.0},
			{ID: "d2", Name: "Slip Dress", Role: RoleDress, Price: 200, Rating: 4.6},
		},
		RoleTop: {
			{ID: "t1", Name: "Silk Blouse", Role: RoleTop, Price: 60, Rating: 4.2},
			{ID: "t2", Name: "Knit Top", Role: RoleTop, Price: 45, Rating: 3.9},
		},
		RoleBottom: {
			{ID: "b1", Name: "Wide Trousers", Role: RoleBottom, Price: 85, Rating: 4.1},
		},
		RoleShoes: {
			{ID: "s1", Name: "Heeled Sandals", Role: RoleShoes, Price: 80, Rating: 4.4},
		},
		RoleOuterwear: {
			{ID: "o1", Name: "Blazer", Role: RoleOuterwear, Price: 150, Rating: 4.3},
			{ID: "o2", Name: "Cardigan", Role: RoleOuterwear, Price: 70, Rating: 4.0},
		},
		RoleAccessories: {
			{ID: "a1", Name: "Scarf", Role: RoleAccessories, Price: 30, Rating: 4.5},
			{ID: "a2", Name: "Belt", Role: RoleAccessories, Price: 40, Rating: 4.0},
		},
	}
}

func TestSearchCombinations_BudgetInvariant(t *testing.T) {
	catalog := testCatalog()
	for _, budget := range []float64{100, 250, 500, 1000} {
		bundles := SearchCombinations(catalog, budget, DefaultSearchBounds())
		for _, b := range bundles {
			var sum float64
			for _, it := range b.Items {
				sum += it.Price
			}
			if sum > budget {
				t.Fatalf("bundle exceeds budget %.0f: items sum to %.2f", budget, sum)
			}
			if sum != b.TotalPrice {
				t.Fatalf("TotalPrice %.2f does not match item sum %.2f", b.TotalPrice, sum)
			}
		}
	}
}

func TestSearchCombinations_CapRespected(t *testing.T) {
	// A large catalog that would explode combinatorially without the cap.
	catalog := Catalog{}
	for i := 0; i < 10; i++ {
		catalog[RoleDress] = append(catalog[RoleDress], Product{ID: fmt.Sprintf("d%d", i), Role: RoleDress, Price: 50, Rating: 4})
		catalog[RoleShoes] = append(catalog[RoleShoes], Product{ID: fmt.Sprintf("s%d", i), Role: RoleShoes, Price: 40, Rating: 4})
		catalog[RoleTop] = append(catalog[RoleTop], Product{ID: fmt.Sprintf("t%d", i), Role: RoleTop, Price: 30, Rating: 4})
		catalog[RoleBottom] = append(catalog[RoleBottom], Product{ID: fmt.Sprintf("b%d", i), Role: RoleBottom, Price: 30, Rating: 4})
	}

	bounds := DefaultSearchBounds()
	bundles := SearchCombinations(catalog, 1000, bounds)
	if len(bundles) > bounds.MaxCombinations {
		t.Fatalf("got %d bundles, cap is %d", len(bundles), bounds.MaxCombinations)
	}

	bounds.MaxCombinations = 5
	bundles = SearchCombinations(catalog, 1000, bounds)
	if len(bundles) != 5 {
		t.Fatalf("got %d bundles, want exactly 5 with a tight cap", len(bundles))
	}
}

func TestSearchCombinations_DressLedScenario(t *testing.T) {
	// Budget 500: dress 120 + shoes 80 leaves room for both accessories
	// (30 rated 4.5, then 40 rated 4.0), total 270.
	catalog := Catalog{
		RoleDress:       {{ID: "d1", Role: RoleDress, Price: 120, Rating: 4.0}},
		RoleShoes:       {{ID: "s1", Role: RoleShoes, Price: 80, Rating: 4.0}},
		RoleAccessories: {{ID: "a2", Role: RoleAccessories, Price: 40, Rating: 4.0}, {ID: "a1", Role: RoleAccessories, Price: 30, Rating: 4.5}},
	}

	bundles := SearchCombinations(catalog, 500, DefaultSearchBounds())
	if len(bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(bundles))
	}
	b := bundles[0]
	if len(b.Items) != 4 {
		t.Fatalf("expected dress+shoes+2 accessories, got %d items", len(b.Items))
	}
	if b.TotalPrice != 270 {
		t.Fatalf("expected total 270, got %.2f", b.TotalPrice)
	}
	// Higher-rated accessory is picked first.
	if b.Items[2].ID != "a1" || b.Items[3].ID != "a2" {
		t.Fatalf("accessories not rating-ordered: %s, %s", b.Items[2].ID, b.Items[3].ID)
	}
}

func TestSearchCombinations_SeparatesAddCheapestOuterwear(t *testing.T) {
	catalog := testCatalog()
	bundles := SearchCombinations(catalog, 300, DefaultSearchBounds())

	found := false
	for _, b := range bundles {
		for _, it := range b.Items {
			if it.Role == RoleOuterwear {
				found = true
				if it.ID != "o2" {
					t.Fatalf("expected cheapest fitting outerwear o2, got %s", it.ID)
				}
			}
		}
	}
	if !found {
		t.Fatal("no separates bundle picked up outerwear")
	}
}

func TestSearchCombinations_EmptyAndInfeasible(t *testing.T) {
	if got := SearchCombinations(Catalog{}, 500, DefaultSearchBounds()); len(got) != 0 {
		t.Fatalf("empty catalog should yield no bundles, got %d", len(got))
	}
	catalog := testCatalog()
	if got := SearchCombinations(catalog, 10, DefaultSearchBounds()); len(got) != 0 {
		t.Fatalf("infeasible budget should yield no bundles, got %d", len(got))
	}
	if got := SearchCombinations(catalog, 0, DefaultSearchBounds()); got != nil {
		t.Fatalf("zero budget should yield nil, got %v", got)
	}
}
