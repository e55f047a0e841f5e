package agents

import (
	"context"

	"github.com/style-shepherd/orchestrator/internal/outfits"
	"github.com/style-shepherd/orchestrator/internal/policy"
)

// Type identifies one of the specialized, stateless computations the
// orchestrator invokes. The string values appear in persisted messages and
// must stay stable.
type Type string

const (
	TypeOutfitSearch   Type = "outfit_search"
	TypeMakeup         Type = "makeup_artist"
	TypeSizePrediction Type = "size_prediction"
	TypeReturnRisk     Type = "return_risk"
)

// All lists every agent type.
func All() []Type {
	return []Type{TypeOutfitSearch, TypeMakeup, TypeSizePrediction, TypeReturnRisk}
}

// DisplayName returns the human-readable agent name used in logs and
// recommendation reasoning.
func (t Type) DisplayName() string {
	switch t {
	case TypeOutfitSearch:
		return "Outfit Search"
	case TypeMakeup:
		return "Makeup Artist"
	case TypeSizePrediction:
		return "Size Prediction"
	case TypeReturnRisk:
		return "Return Risk"
	default:
		return string(t)
	}
}

// Measurements are the user's body measurements. Sizing is skipped for any
// item when measurements are absent.
type Measurements struct {
	HeightCM float64 `json:"height_cm,omitempty"`
	WeightKG float64 `json:"weight_kg,omitempty"`
	BustCM   float64 `json:"bust_cm,omitempty"`
	WaistCM  float64 `json:"waist_cm,omitempty"`
	HipsCM   float64 `json:"hips_cm,omitempty"`
}

// OutfitSearchParams asks the product collaborator for ranked candidates.
type OutfitSearchParams struct {
	UserID      string              `json:"user_id"`
	Budget      float64             `json:"budget"`
	Occasion    string              `json:"occasion,omitempty"`
	Style       string              `json:"style,omitempty"`
	Preferences outfits.Preferences `json:"preferences,omitempty"`
}

// OutfitSearchResult carries the candidate catalog, partitioned by role and
// pre-sorted by relevance. Bundle search and scoring happen locally.
type OutfitSearchResult struct {
	Catalog outfits.Catalog `json:"catalog"`
}

// MakeupParams asks the makeup collaborator for looks matching the occasion.
type MakeupParams struct {
	UserID    string `json:"user_id"`
	Occasion  string `json:"occasion,omitempty"`
	SelfieRef string `json:"selfie_ref,omitempty"`
}

// MakeupLook is one generated makeup recommendation.
type MakeupLook struct {
	Name       string   `json:"name"`
	Products   []string `json:"products,omitempty"`
	Confidence float64  `json:"confidence"`
	ImageRef   string   `json:"image_ref,omitempty"`
}

// MakeupResult is the output of the optional makeup stage.
type MakeupResult struct {
	Looks []MakeupLook `json:"looks"`
}

// SizeParams asks for a size prediction for one product.
type SizeParams struct {
	UserID       string          `json:"user_id"`
	Product      outfits.Product `json:"product"`
	Measurements Measurements    `json:"measurements"`
}

// SizeResult is one per-item size prediction.
type SizeResult struct {
	ProductID       string  `json:"product_id"`
	RecommendedSize string  `json:"recommended_size"`
	Confidence      float64 `json:"confidence"`
}

// ReturnRiskParams asks for a return-risk prediction over the candidate cart.
type ReturnRiskParams struct {
	UserID string            `json:"user_id"`
	Items  []outfits.Product `json:"items"`
}

// ReturnRiskResult is the predicted return risk with its named contributions,
// in the same shape the fraud incident log stores rule scores.
type ReturnRiskResult struct {
	Score         float64               `json:"score"`
	Contributions []policy.Contribution `json:"contributions,omitempty"`
}

// Collaborators are the external computations the orchestrator drives. Each
// call may fail; implementations live outside this module (vendor services,
// model servers). All calls honor the passed context deadline.
type Collaborators interface {
	ComputeOutfits(ctx context.Context, params OutfitSearchParams) (*OutfitSearchResult, error)
	ComputeMakeup(ctx context.Context, params MakeupParams) (*MakeupResult, error)
	PredictSize(ctx context.Context, params SizeParams) (*SizeResult, error)
	PredictReturnRisk(ctx context.Context, params ReturnRiskParams) (*ReturnRiskResult, error)
}
