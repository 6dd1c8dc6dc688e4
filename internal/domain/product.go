package domain

// Product is catalog data, read-only from the shop's point of view.
// Price is in minor currency units (paise).
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Glyph       string `json:"glyph"`
	Category    string `json:"category"`
}
