package payment

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/booking"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/listing"
	"github.com/teslimakintunde/shortlets-backend-api/internal/gateway"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

// IssueIntent validates a payment request and opens a gateway intent for it.
// Nothing is written to the ledger; the payment row is created on confirm.
func (s *Service) IssueIntent(ctx context.Context, requesterID int64, in IntentInput) (*IntentResult, error) {
	if requesterID == 0 {
		return nil, apperror.ErrUnauthenticated
	}

	amount, err := ToMinorUnits(in.Amount)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	if !s.supportsCurrency(currency) {
		return nil, apperror.New(apperror.ErrValidation, "unsupported currency "+currency)
	}

	metadata := map[string]string{
		gateway.MetaUserID: strconv.FormatInt(requesterID, 10),
	}

	if in.BookingDates != nil {
		r, err := booking.ParseRange(in.BookingDates.StartDate, in.BookingDates.EndDate)
		if err != nil {
			return nil, err
		}
		hint, _ := json.Marshal(DateHint{
			StartDate: r.Start.Format(booking.DateLayout),
			EndDate:   r.End.Format(booking.DateLayout),
		})
		metadata[gateway.MetaBookingDates] = string(hint)
	}

	if in.PostID != nil {
		post, err := s.listings.GetByID(ctx, s.db, *in.PostID)
		if err != nil {
			return nil, storageOr(err, "failed to load listing")
		}
		if post.IsOwnedBy(requesterID) {
			return nil, apperror.New(apperror.ErrForbidden, "you cannot pay for your own listing")
		}
		if post.Type == listing.TypeBuy && post.IsPaid {
			return nil, apperror.New(apperror.ErrValidation, "listing has already been sold")
		}
		metadata[gateway.MetaPostID] = strconv.FormatInt(post.ID, 10)
	}

	intent, err := s.gateway.CreateIntent(ctx, gateway.CreateIntentParams{
		Amount:         amount,
		Currency:       strings.ToLower(currency),
		Description:    in.Description,
		Metadata:       metadata,
		IdempotencyKey: in.IdempotencyKey,
	})
	if err != nil {
		s.metrics.IntentIssued(currency, "gateway_error")
		s.log.Warn("create intent failed", zap.Int64("user_id", requesterID), zap.Error(err))
		if errors.Is(err, gateway.ErrRejected) {
			return nil, apperror.Wrap(apperror.ErrValidation, "payment request was rejected by the provider", err)
		}
		return nil, apperror.Wrap(apperror.ErrGatewayUnavailable, "payment provider unavailable", err)
	}

	s.metrics.IntentIssued(currency, "ok")
	s.log.Info("payment intent issued",
		zap.Int64("user_id", requesterID),
		zap.String("intent_id", intent.ID),
		zap.Int64("amount", amount),
		zap.String("currency", currency),
	)

	return &IntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		PublishableKey:  s.cfg.PublishableKey,
		Amount:          amount,
		Currency:        currency,
	}, nil
}

// ToMinorUnits converts a major-unit amount to minor units, rounding half
// away from zero. The result must be at least one minor unit.
func ToMinorUnits(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, apperror.New(apperror.ErrValidation, "amount must be a positive number")
	}

	minor := decimal.NewFromFloat(amount).Shift(2).Round(0)
	if minor.LessThan(decimal.NewFromInt(1)) {
		return 0, apperror.New(apperror.ErrValidation, "amount is below the smallest currency unit")
	}
	if !minor.BigInt().IsInt64() {
		return 0, apperror.New(apperror.ErrValidation, "amount is too large")
	}
	return minor.IntPart(), nil
}
