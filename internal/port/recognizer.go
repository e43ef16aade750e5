package port

import (
	"context"

	"github.com/rcastell/homestock/internal/core/domain"
)

// ReceiptRecognizer extracts structured receipt data from a document image.
type ReceiptRecognizer interface {
	AnalyzeReceipt(ctx context.Context, document []byte, contentType string) (domain.Receipt, error)
}
