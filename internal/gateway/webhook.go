package gateway

import (
	"encoding/json"
	"strings"

	"github.com/stripe/stripe-go/v74/webhook"
)

// VerifyWebhook checks the Stripe-Signature header against the raw payload
// and decodes the event envelope. Unsigned or tampered payloads fail closed.
func (s *Stripe) VerifyWebhook(payload []byte, signatureHeader string) (*Event, error) {
	return verifyWebhook(payload, signatureHeader, s.webhookSecret)
}

func verifyWebhook(payload []byte, signatureHeader, secret string) (*Event, error) {
	if strings.TrimSpace(secret) == "" || strings.TrimSpace(signatureHeader) == "" {
		return nil, ErrInvalidSignature
	}
	if err := webhook.ValidatePayload(payload, signatureHeader, secret); err != nil {
		return nil, ErrInvalidSignature
	}

	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, ErrInvalidPayload
	}
	if strings.TrimSpace(raw.ID) == "" || strings.TrimSpace(raw.Type) == "" {
		return nil, ErrInvalidPayload
	}

	return &Event{ID: raw.ID, Type: raw.Type, Object: raw.Data.Object}, nil
}
