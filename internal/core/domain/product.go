package domain

type Product struct {
	ID           string  `json:"id"`
	OwnerID      string  `json:"userId"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	PurchaseDate string  `json:"purchaseDate"`
	Store        string  `json:"store"`
	Location     string  `json:"location"`
}
