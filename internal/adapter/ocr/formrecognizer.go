// Package ocr adapts the Azure Form Recognizer prebuilt-receipt model to the
// ReceiptRecognizer port.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rcastell/homestock/internal/core/domain"
)

const (
	analyzePath  = "/formrecognizer/documentModels/prebuilt-receipt:analyze?api-version=2023-07-31"
	apiKeyHeader = "Ocp-Apim-Subscription-Key"

	defaultPollInterval = 2 * time.Second
	maxPolls            = 60
)

var ErrNoReceipt = errors.New("no receipt recognized in document")

type FormRecognizerClient struct {
	endpoint     string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
}

func NewFormRecognizerClient(endpoint, apiKey string) *FormRecognizerClient {
	return &FormRecognizerClient{
		endpoint:     endpoint,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: defaultPollInterval,
	}
}

type analyzeField struct {
	Type          string                  `json:"type"`
	ValueString   string                  `json:"valueString"`
	ValueDate     string                  `json:"valueDate"`
	ValueNumber   float64                 `json:"valueNumber"`
	ValueCurrency *struct {
		Amount float64 `json:"amount"`
	} `json:"valueCurrency"`
	ValueArray  []analyzeField          `json:"valueArray"`
	ValueObject map[string]analyzeField `json:"valueObject"`
	Content     string                  `json:"content"`
}

type analyzeOperation struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		Documents []struct {
			Fields map[string]analyzeField `json:"fields"`
		} `json:"documents"`
	} `json:"analyzeResult"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzeReceipt submits the document and polls the returned operation until
// analysis completes.
func (c *FormRecognizerClient) AnalyzeReceipt(ctx context.Context, document []byte, contentType string) (domain.Receipt, error) {
	operationURL, err := c.submit(ctx, document, contentType)
	if err != nil {
		return domain.Receipt{}, err
	}
	return c.poll(ctx, operationURL)
}

func (c *FormRecognizerClient) submit(ctx context.Context, document []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+analyzePath, bytes.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit document: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("analyze request rejected: %s", resp.Status)
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", errors.New("analyze response missing Operation-Location")
	}
	return operationURL, nil
}

func (c *FormRecognizerClient) poll(ctx context.Context, operationURL string) (domain.Receipt, error) {
	for i := 0; i < maxPolls; i++ {
		op, err := c.fetchOperation(ctx, operationURL)
		if err != nil {
			return domain.Receipt{}, err
		}

		switch op.Status {
		case "succeeded":
			return extractReceipt(op)
		case "failed":
			return domain.Receipt{}, fmt.Errorf("document analysis failed: %s", op.Error.Message)
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.Receipt{}, ctx.Err()
		case <-timer.C:
		}
	}
	return domain.Receipt{}, errors.New("document analysis timed out")
}

func (c *FormRecognizerClient) fetchOperation(ctx context.Context, operationURL string) (*analyzeOperation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll operation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll rejected: %s", resp.Status)
	}

	var op analyzeOperation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("decode operation: %w", err)
	}
	return &op, nil
}

func extractReceipt(op *analyzeOperation) (domain.Receipt, error) {
	if len(op.AnalyzeResult.Documents) == 0 {
		return domain.Receipt{}, ErrNoReceipt
	}

	fields := op.AnalyzeResult.Documents[0].Fields
	receipt := domain.Receipt{
		Date:         fields["TransactionDate"].ValueDate,
		MerchantName: fields["MerchantName"].ValueString,
	}

	for _, item := range fields["Items"].ValueArray {
		props := item.ValueObject
		entry := domain.ReceiptItem{
			Name:     props["Description"].ValueString,
			Quantity: props["Quantity"].ValueNumber,
		}
		if price := props["TotalPrice"]; price.ValueCurrency != nil {
			entry.Price = price.ValueCurrency.Amount
		} else {
			entry.Price = props["TotalPrice"].ValueNumber
		}
		receipt.Items = append(receipt.Items, entry)
	}
	return receipt, nil
}
