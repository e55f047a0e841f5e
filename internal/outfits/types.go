package outfits

// Role identifies the slot a product fills within an outfit.
type Role string

const (
	RoleTop         Role = "top"
	RoleBottom      Role = "bottom"
	RoleDress       Role = "dress"
	RoleShoes       Role = "shoes"
	RoleOuterwear   Role = "outerwear"
	RoleAccessories Role = "accessories"
)

// AllRoles lists every outfit role in canonical order.
func AllRoles() []Role {
	return []Role{RoleTop, RoleBottom, RoleDress, RoleShoes, RoleOuterwear, RoleAccessories}
}

// Product is a single catalog item, already ranked by upstream relevance.
type Product struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Role   Role     `json:"role"`
	Price  float64  `json:"price"`
	Rating float64  `json:"rating"` // 0-5 scale
	Brand  string   `json:"brand,omitempty"`
	Colors []string `json:"colors,omitempty"`
	Styles []string `json:"styles,omitempty"`
}

// Catalog partitions candidate products by role. Slices are assumed
// pre-sorted by relevance; the search consumes them in the given order.
type Catalog map[Role][]Product

// Bundle is a candidate outfit: a role-covering set of items within budget.
// Bundles are ephemeral; they are never persisted beyond the response.
type Bundle struct {
	Items      []Product `json:"items"`
	TotalPrice float64   `json:"total_price"`
	Confidence float64   `json:"confidence"`
	StyleMatch float64   `json:"style_match"`
	Reasoning  string    `json:"reasoning,omitempty"`
}

// HasRole reports whether any item in the bundle fills the given role.
func (b *Bundle) HasRole(role Role) bool {
	for _, it := range b.Items {
		if it.Role == role {
			return true
		}
	}
	return false
}

// Preferences carries the user's declared taste, used for style matching
// and trend boosting.
type Preferences struct {
	Colors   []string `json:"colors,omitempty"`
	Brands   []string `json:"brands,omitempty"`
	Styles   []string `json:"styles,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}
