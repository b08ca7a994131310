package payment

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/teslimakintunde/shortlets-backend-api/internal/gateway"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

// IngestWebhook verifies a gateway callback and acknowledges it. Events are
// logged and counted only; the ledger is written by ConfirmPayment and the
// reconciler, both of which re-query the gateway.
func (s *Service) IngestWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookAck, error) {
	event, err := s.gateway.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		s.metrics.WebhookEvent("rejected")
		s.log.Warn("webhook rejected", zap.Error(err))
		return nil, apperror.Wrap(apperror.ErrInvalidSignature, "invalid webhook signature", err)
	}

	var object struct {
		ID       string            `json:"id"`
		Status   string            `json:"status"`
		Metadata map[string]string `json:"metadata"`
	}
	_ = json.Unmarshal(event.Object, &object)

	log := s.log.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("intent_id", object.ID),
	)

	switch event.Type {
	case gateway.EventPaymentSucceeded:
		log.Info("payment intent succeeded", zap.String("user_id", object.Metadata[gateway.MetaUserID]))
	case gateway.EventPaymentFailed:
		log.Warn("payment intent failed", zap.String("user_id", object.Metadata[gateway.MetaUserID]))
	default:
		log.Debug("webhook event ignored")
	}
	s.metrics.WebhookEvent(event.Type)

	return &WebhookAck{Received: true}, nil
}
