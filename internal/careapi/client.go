// Package careapi is the REST client for the agent-console backend, which
// owns customer, consultation, and fact check records.
package careapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"careline/internal/ports"
)

// Config controls the console backend connection.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.ConsultationStore over the backend's REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type consultationPayload struct {
	CustomerNo  int    `json:"customer_no"`
	ConsultedAt string `json:"consulted_at"`
	BranchName  string `json:"branch_name"`
	Topic       string `json:"topic"`
	Summary     string `json:"summary"`
}

type consultationResponse struct {
	ConsultationNo int64 `json:"consultation_no"`
}

// CreateConsultation stores one consultation record and returns its number,
// which fact checks reference.
func (c *Client) CreateConsultation(ctx context.Context, rec ports.ConsultationRecord) (int64, error) {
	payload := consultationPayload{
		CustomerNo:  rec.CustomerNo,
		ConsultedAt: rec.ConsultedAt.UTC().Format(time.RFC3339),
		BranchName:  rec.BranchName,
		Topic:       rec.Topic,
		Summary:     rec.Summary,
	}

	var resp consultationResponse
	if err := c.postJSON(ctx, "/consultation", payload, &resp); err != nil {
		return 0, err
	}
	return resp.ConsultationNo, nil
}

type factCheckPayload struct {
	ConsultationNo int64  `json:"consultation_no"`
	Type           string `json:"type"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	Regulation     string `json:"regulation"`
	Suggestion     string `json:"suggestion"`
	OriginalText   string `json:"original_text,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// CreateFactCheck stores one compliance finding for a consultation.
func (c *Client) CreateFactCheck(ctx context.Context, rec ports.FactCheckRecord) error {
	payload := factCheckPayload{
		ConsultationNo: rec.ConsultationNo,
		Type:           string(rec.Severity),
		Category:       rec.Category,
		Description:    rec.Description,
		Regulation:     rec.Regulation,
		Suggestion:     rec.Suggestion,
		OriginalText:   rec.OriginalText,
	}
	if !rec.Timestamp.IsZero() {
		payload.Timestamp = rec.Timestamp.UTC().Format(time.RFC3339)
	}
	return c.postJSON(ctx, "/api/factchecks", payload, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("POST %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", path, err)
		}
	}
	return nil
}
