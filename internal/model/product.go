package model

// PriceUnavailable is shown on a post when the source did not expose a price.
const PriceUnavailable = "Prix non disponible"

// DefaultSize is used when no size could be detected on a product.
const DefaultSize = "M"

// RawProduct holds whatever an extractor managed to read from a page. Every
// field may be empty; it never leaves the extractor that built it.
type RawProduct struct {
	Name        string
	Brand       string
	Price       string
	ImageURL    string
	ItemURL     string
	Sizes       []string // sizes already split by the source
	SizeText    string   // free text to scan for sizes when Sizes is empty
	Description string
	Category    string
}

// ProductRecord is the canonical, validated product handed to the publisher.
type ProductRecord struct {
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Price       string   `json:"price"`
	ImageURL    string   `json:"image_url"`
	ItemURL     string   `json:"item_url"`
	Sizes       []string `json:"sizes"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
}
