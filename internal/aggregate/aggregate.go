// Package aggregate folds already-scored stage outputs into one ranked
// recommendation set. No new scoring happens here.
package aggregate

import (
	"errors"
	"fmt"

	"github.com/style-shepherd/orchestrator/internal/agents"
	"github.com/style-shepherd/orchestrator/internal/outfits"
	"github.com/style-shepherd/orchestrator/internal/policy"
)

// ErrMissingOutfits indicates synthesis ran without the required discovery
// output. That is a coordination bug, not a recoverable condition.
var ErrMissingOutfits = errors.New("aggregate: required outfit output missing")

// RecommendationType tags entries in the combined recommendation list.
type RecommendationType string

const (
	TypeOutfit RecommendationType = "outfit"
	TypeMakeup RecommendationType = "makeup"
)

// Recommendation is one entry of the combined list.
type Recommendation struct {
	Type       RecommendationType `json:"type"`
	Outfit     *outfits.Bundle    `json:"outfit,omitempty"`
	Makeup     *agents.MakeupLook `json:"makeup,omitempty"`
	Confidence float64            `json:"confidence"`
}

// Result is the synthesized recommendation set.
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	Confidence      float64          `json:"confidence"`
	Reasoning       string           `json:"reasoning"`
	TotalPrice      float64          `json:"total_price,omitempty"`
	ReturnRisk      *float64         `json:"return_risk,omitempty"`
}

// Build concatenates outfit bundles and makeup looks into one tagged list.
// Outfit bundles are required: synthesis never partially succeeds. Makeup is
// optional and simply absent when the optional stage contributed nothing.
func Build(bundles []outfits.Bundle, looks []agents.MakeupLook, returnRisk *float64) (*Result, error) {
	if len(bundles) == 0 {
		return nil, ErrMissingOutfits
	}

	recs := make([]Recommendation, 0, len(bundles)+len(looks))
	var confidenceSum, totalPrice float64
	for i := range bundles {
		b := &bundles[i]
		recs = append(recs, Recommendation{Type: TypeOutfit, Outfit: b, Confidence: b.Confidence})
		confidenceSum += b.Confidence
	}
	// Top bundle's price is the representative cart total.
	totalPrice = bundles[0].TotalPrice

	for i := range looks {
		l := &looks[i]
		recs = append(recs, Recommendation{Type: TypeMakeup, Makeup: l, Confidence: l.Confidence})
		confidenceSum += l.Confidence
	}

	res := &Result{
		Recommendations: recs,
		Confidence:      confidenceSum / float64(len(recs)),
		Reasoning:       reasoning(len(bundles), len(looks), returnRisk),
		TotalPrice:      totalPrice,
		ReturnRisk:      returnRisk,
	}
	return res, nil
}

func reasoning(outfitCount, makeupCount int, returnRisk *float64) string {
	s := fmt.Sprintf("%d outfit %s", outfitCount, plural("option", outfitCount))
	if makeupCount > 0 {
		s += fmt.Sprintf(" and %d makeup %s", makeupCount, plural("look", makeupCount))
	}
	if returnRisk != nil {
		s += fmt.Sprintf("; return risk %s", policy.RiskBucket(*returnRisk))
	}
	return s
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
