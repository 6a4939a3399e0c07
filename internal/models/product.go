package models

// ═══════════════════════════════════════════════════════════
// PRODUCT / SEARCH MODELS
// ═══════════════════════════════════════════════════════════

// Product is a search hit from the shop backend. Fields mirror the backend
// payload verbatim (French labels included); no local validation beyond
// presence checks at render time.
type Product struct {
	URL           string  `json:"url"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Disponibilite string  `json:"disponibilite"`
	Categorie     string  `json:"categorie"`
	ImageURL      string  `json:"image_url"`
	Description   string  `json:"description"`
	Score         float64 `json:"score"`
}

// SearchResult holds the latest search outcome. It is ephemeral and
// replace-only: a new query overwrites it wholesale, never merges.
type SearchResult struct {
	Query     string    `json:"query"`
	Results   []Product `json:"results"`
	IsLoading bool      `json:"isLoading"`
}

// RegisterClickRequest relays an outbound product click to the backend.
type RegisterClickRequest struct {
	ProductURL string `json:"product_url"`
}
