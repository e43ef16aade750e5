package domain

type ReceiptItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

type Receipt struct {
	Date         string        `json:"date"`
	MerchantName string        `json:"merchantName"`
	Items        []ReceiptItem `json:"items"`
}
