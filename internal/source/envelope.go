package source

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
)

// Envelope ответ REST API: {"status": "success", "data": {...}}.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data"`
}

const StatusSuccess = "success"

// DecodeEnvelope проверяет конверт и раскладывает data в dst.
func (c *Client) DecodeEnvelope(url string, body []byte, dst any) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &FetchError{Source: c.name, URL: url, StatusCode: http.StatusOK, Reason: "decode envelope", Err: err}
	}
	if env.Status != StatusSuccess {
		reason := "status " + quote(env.Status)
		if env.Message != "" {
			reason += ": " + env.Message
		}
		return &FetchError{Source: c.name, URL: url, StatusCode: http.StatusOK, Reason: reason}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &FetchError{Source: c.name, URL: url, StatusCode: http.StatusOK, Reason: "envelope without data"}
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return &FetchError{Source: c.name, URL: url, StatusCode: http.StatusOK, Reason: "decode data", Err: err}
	}
	return nil
}

// GetEnvelope GET + проверка конверта.
func (c *Client) GetEnvelope(ctx context.Context, url string, dst any) error {
	body, err := c.Do(ctx, http.MethodGet, url, nil, "", StatusOK)
	if err != nil {
		return err
	}
	return c.DecodeEnvelope(url, body, dst)
}

// PostEnvelope POST JSON-запроса + проверка конверта.
func (c *Client) PostEnvelope(ctx context.Context, url string, payload, dst any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return &FetchError{Source: c.name, URL: url, Reason: "encode payload", Err: err}
	}
	body, err := c.Do(ctx, http.MethodPost, url, b, "application/json", StatusOK)
	if err != nil {
		return err
	}
	return c.DecodeEnvelope(url, body, dst)
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	return `"` + s + `"`
}
