package service

import (
	"context"
	"time"

	"github.com/rcastell/homestock/internal/core/domain"
	"github.com/rcastell/homestock/internal/port"
	"github.com/rcastell/homestock/internal/retry"
)

const (
	ocrAttempts     = 3
	ocrInitialDelay = 300 * time.Millisecond
)

// OCRService extracts receipt data through an external document-analysis
// collaborator. The collaborator call is wrapped in bounded retry since the
// upstream API is rate limited and occasionally flaky.
type OCRService struct {
	recognizer port.ReceiptRecognizer
}

func NewOCRService(recognizer port.ReceiptRecognizer) *OCRService {
	return &OCRService{recognizer: recognizer}
}

func (s *OCRService) ProcessReceipt(ctx context.Context, document []byte, contentType string) (domain.Receipt, error) {
	return retry.Do(ctx, ocrAttempts, ocrInitialDelay, func(ctx context.Context) (domain.Receipt, error) {
		return s.recognizer.AnalyzeReceipt(ctx, document, contentType)
	})
}
