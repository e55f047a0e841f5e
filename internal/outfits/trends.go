package outfits

import "hash/fnv"

// TrendScores returns a deterministic [0,1] score per keyword, min-max
// normalized across the set. Stable between runs and across processes; the
// live trend feed is an external collaborator, this is the offline fallback.
func TrendScores(keywords []string) map[string]float64 {
	if len(keywords) == 0 {
		return nil
	}
	raw := make([]float64, len(keywords))
	for i, k := range keywords {
		h := fnv.New32a()
		_, _ = h.Write([]byte(k))
		n := h.Sum32() % 1000
		base := (float64(n%70) + float64(len(k)%30)) / 100.0
		if base < 0.01 {
			base = 0.01
		}
		if base > 1.0 {
			base = 1.0
		}
		raw[i] = base
	}

	// Min-max normalize; a flat set scores zero everywhere.
	min, max := raw[0], raw[0]
	for _, v := range raw[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	scores := make(map[string]float64, len(keywords))
	for i, k := range keywords {
		if max == min {
			scores[k] = 0
		} else {
			scores[k] = (raw[i] - min) / (max - min)
		}
	}
	return scores
}

// TrendBoost collapses keyword trend scores into the single [0,1] boost the
// scorer consumes: the mean score, 0 when no keywords were given.
func TrendBoost(keywords []string) float64 {
	scores := TrendScores(keywords)
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}
