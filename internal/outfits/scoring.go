package outfits

import (
	"fmt"
	"sort"
	"strings"
)

// ScoringWeights are the named weights of the confidence formula. The zero
// value is not usable; start from DefaultScoringWeights and override fields
// as needed. Defaults must stay bit-for-bit stable: scored output feeds
// audit trails and ranking regression tests.
type ScoringWeights struct {
	Base         float64 // starting confidence
	StyleMatch   float64 // weight of the style-match signal
	TrendBoost   float64 // weight of the optional trend signal
	Rating       float64 // weight of avg item rating (normalized by 5)
	Completeness float64 // weight of role coverage

	BudgetBandHigh float64 // bonus when utilization is in the sweet spot
	BudgetBandMid  float64 // bonus when utilization is acceptable

	MinConfidence float64 // bundles below this are discarded
	TieBand       float64 // confidence band treated as a tie when ranking
}

// DefaultScoringWeights returns the production defaults.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Base:           0.5,
		StyleMatch:     0.35,
		TrendBoost:     0.10,
		Rating:         0.20,
		Completeness:   0.15,
		BudgetBandHigh: 0.20,
		BudgetBandMid:  0.10,
		MinConfidence:  0.6,
		TieBand:        0.05,
	}
}

// ScoreInput is everything the scorer needs. Score is a pure function of
// this input: no clock, no randomness, no hidden state.
type ScoreInput struct {
	Items             []Product
	StyleMatch        float64 // [0,1], from the preference matcher
	BudgetUtilization float64 // totalPrice / budget
	TrendBoost        float64 // [0,1], 0 when absent
}

// Score computes bundle confidence in [0,1].
func (w ScoringWeights) Score(in ScoreInput) float64 {
	confidence := w.Base +
		in.StyleMatch*w.StyleMatch +
		in.TrendBoost*w.TrendBoost +
		w.budgetScore(in.BudgetUtilization) +
		(avgRating(in.Items)/5.0)*w.Rating +
		completeness(in.Items)*w.Completeness
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

func (w ScoringWeights) budgetScore(utilization float64) float64 {
	switch {
	case utilization >= 0.70 && utilization <= 0.90:
		return w.BudgetBandHigh
	case utilization >= 0.50 && utilization < 0.95:
		return w.BudgetBandMid
	default:
		return 0
	}
}

func avgRating(items []Product) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, it := range items {
		sum += it.Rating
	}
	return sum / float64(len(items))
}

// completeness measures role coverage: a third each for top-or-dress,
// bottom-or-dress, and shoes.
func completeness(items []Product) float64 {
	var hasTop, hasBottom, hasDress, hasShoes bool
	for _, it := range items {
		switch it.Role {
		case RoleTop:
			hasTop = true
		case RoleBottom:
			hasBottom = true
		case RoleDress:
			hasDress = true
		case RoleShoes:
			hasShoes = true
		}
	}
	score := 0.0
	if hasTop || hasDress {
		score += 1.0 / 3.0
	}
	if hasBottom || hasDress {
		score += 1.0 / 3.0
	}
	if hasShoes {
		score += 1.0 / 3.0
	}
	return score
}

// FilterByConfidence drops bundles scoring below min.
func FilterByConfidence(bundles []Bundle, min float64) []Bundle {
	kept := bundles[:0:0]
	for _, b := range bundles {
		if b.Confidence >= min {
			kept = append(kept, b)
		}
	}
	return kept
}

// RankBundles orders bundles by confidence descending; pairs whose
// confidence differs by at most tieBand are ordered by style match
// descending instead. The sort is stable.
func RankBundles(bundles []Bundle, tieBand float64) {
	sort.SliceStable(bundles, func(i, j int) bool {
		di := bundles[i].Confidence - bundles[j].Confidence
		if di < 0 {
			di = -di
		}
		if di <= tieBand {
			return bundles[i].StyleMatch > bundles[j].StyleMatch
		}
		return bundles[i].Confidence > bundles[j].Confidence
	})
}

// Recommend runs the full outfit pipeline over a catalog: combination
// search, style matching, trend boost, scoring, confidence filter, ranking.
func Recommend(catalog Catalog, budget float64, prefs Preferences, weights ScoringWeights, bounds SearchBounds) []Bundle {
	bundles := SearchCombinations(catalog, budget, bounds)
	if len(bundles) == 0 {
		return nil
	}

	trend := TrendBoost(prefs.Keywords)
	for i := range bundles {
		b := &bundles[i]
		b.StyleMatch = StyleMatch(b.Items, prefs)
		b.Confidence = weights.Score(ScoreInput{
			Items:             b.Items,
			StyleMatch:        b.StyleMatch,
			BudgetUtilization: b.TotalPrice / budget,
			TrendBoost:        trend,
		})
		b.Reasoning = reasoning(b, budget)
	}

	bundles = FilterByConfidence(bundles, weights.MinConfidence)
	RankBundles(bundles, weights.TieBand)
	return bundles
}

func reasoning(b *Bundle, budget float64) string {
	roles := make([]string, 0, len(b.Items))
	for _, it := range b.Items {
		roles = append(roles, string(it.Role))
	}
	return fmt.Sprintf("%d items (%s) at %.0f%% of budget, style match %.2f",
		len(b.Items), strings.Join(roles, ", "), 100*b.TotalPrice/budget, b.StyleMatch)
}
