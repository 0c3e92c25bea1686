package domain

// ShopItem is a purchasable reward in the coin shop.
type ShopItem struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Price       int    `json:"price"`
	ImageURL    string `json:"image_url,omitempty"`
	Category    string `json:"category,omitempty"`
	IsFeatured  bool   `json:"is_featured"`
}
