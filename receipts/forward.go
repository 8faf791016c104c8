package receipts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ReceiptPayload is the JSON body posted to the accounting endpoint.
type ReceiptPayload struct {
	IdempotencyKey string `json:"idempotency_key"`
	Series         string `json:"series"`
	DocumentNumber int    `json:"document_number"`
	Date           string `json:"date"`
	Party          string `json:"party"`
	Amount         string `json:"amount"`
	CashDiscount   string `json:"cash_discount"`
	Narration      string `json:"narration"`
}

// PayloadFor renders r for the wire. Amounts carry two decimals.
func PayloadFor(r PlannedReceipt) ReceiptPayload {
	return ReceiptPayload{
		IdempotencyKey: r.IdempotencyKey,
		Series:         r.Series,
		DocumentNumber: r.DocumentNumber,
		Date:           r.Date.Format("2006-01-02"),
		Party:          r.Party,
		Amount:         r.Amount.StringFixed(2),
		CashDiscount:   r.CashDiscount.StringFixed(2),
		Narration:      r.Narration,
	}
}

// HTTPSubmitter posts each receipt as JSON to an accounting endpoint. Any
// non-2xx answer is a failure; the idempotency key travels in the
// Idempotency-Key header as well as the body.
type HTTPSubmitter struct {
	URL    string
	Client *http.Client
}

// NewHTTPSubmitter creates a submitter with a bounded request timeout.
func NewHTTPSubmitter(url string, timeout time.Duration) *HTTPSubmitter {
	return &HTTPSubmitter{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSubmitter) SubmitReceipt(ctx context.Context, r PlannedReceipt) error {
	body, err := json.Marshal(PayloadFor(r))
	if err != nil {
		return fmt.Errorf("failed to encode receipt %d: %w", r.DocumentNumber, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", r.IdempotencyKey)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to submit receipt %d: %w", r.DocumentNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("receipt %d rejected: %s: %s", r.DocumentNumber, resp.Status, bytes.TrimSpace(msg))
	}
	return nil
}
