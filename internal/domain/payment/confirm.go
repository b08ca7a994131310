package payment

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/teslimakintunde/shortlets-backend-api/internal/database"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/booking"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/listing"
	"github.com/teslimakintunde/shortlets-backend-api/internal/gateway"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

// ConfirmPayment re-verifies a gateway intent and, in one serializable
// transaction, records the payment, marks a sale listing paid and books the
// requested dates. Either all of it is written or none of it.
func (s *Service) ConfirmPayment(ctx context.Context, requesterID int64, in ConfirmInput) (*ConfirmResult, error) {
	res, err := s.confirm(ctx, requesterID, in)
	s.metrics.Confirmation(confirmOutcome(err))
	return res, err
}

func (s *Service) confirm(ctx context.Context, requesterID int64, in ConfirmInput) (*ConfirmResult, error) {
	if requesterID == 0 {
		return nil, apperror.ErrUnauthenticated
	}

	intentID := strings.TrimSpace(in.PaymentIntentID)
	if intentID == "" || in.PostID <= 0 {
		return nil, apperror.New(apperror.ErrValidation, "paymentIntentId and postId are required")
	}

	var stay *booking.Range
	if in.BookingData != nil {
		r, err := booking.ParseRange(in.BookingData.StartDate, in.BookingData.EndDate)
		if err != nil {
			return nil, err
		}
		if in.BookingData.Guests < 0 {
			return nil, apperror.New(apperror.ErrValidation, "guests must be positive")
		}
		stay = &r
	}

	var metadata datatypes.JSON
	if len(in.PurchaseOptions) > 0 {
		raw, err := json.Marshal(in.PurchaseOptions)
		if err != nil {
			return nil, apperror.Wrap(apperror.ErrValidation, "invalid purchase options", err)
		}
		metadata = datatypes.JSON(raw)
	}

	exists, err := s.payments.ExistsByTransactionID(ctx, s.db, intentID)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrStorage, "failed to check payment", err)
	}
	if exists {
		return nil, apperror.New(apperror.ErrDuplicateTransaction, "payment already processed")
	}

	log := s.log.With(zap.String("intent_id", intentID), zap.Int64("user_id", requesterID))

	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, apperror.Wrap(apperror.ErrNotFound, "payment intent not found", err)
		}
		log.Warn("retrieve intent failed", zap.Error(err))
		return nil, apperror.Wrap(apperror.ErrGatewayUnavailable, "payment provider unavailable", err)
	}
	if !intent.Succeeded() {
		return nil, apperror.New(apperror.ErrPaymentNotCompleted, "payment not completed")
	}
	if intent.Metadata[gateway.MetaUserID] != strconv.FormatInt(requesterID, 10) {
		log.Warn("intent owner mismatch", zap.String("intent_user", intent.Metadata[gateway.MetaUserID]))
		return nil, apperror.New(apperror.ErrForbidden, "payment intent belongs to another user")
	}
	if pid := intent.Metadata[gateway.MetaPostID]; pid != "" && pid != strconv.FormatInt(in.PostID, 10) {
		return nil, apperror.New(apperror.ErrValidation, "payment intent was issued for a different listing")
	}
	if err := matchPaidDates(intent, stay); err != nil {
		log.Warn("booking dates differ from paid dates", zap.String("intent_dates", intent.Metadata[gateway.MetaBookingDates]))
		return nil, err
	}

	post, err := s.listings.GetByID(ctx, s.db, in.PostID)
	if err != nil {
		return nil, storageOr(err, "failed to load listing")
	}
	if post.IsOwnedBy(requesterID) {
		return nil, apperror.New(apperror.ErrForbidden, "you cannot pay for your own listing")
	}

	txType := TransactionSale
	if stay != nil {
		txType = TransactionRental
	}

	var result *ConfirmResult
	err = database.RunSerializable(ctx, s.db, s.cfg.ConfirmAttempts, func(tx *gorm.DB) error {
		now := s.now()
		postID := post.ID
		p := &Payment{
			Amount:          intent.Amount,
			Currency:        strings.ToUpper(intent.Currency),
			PaymentMethod:   MethodCreditCard,
			UserID:          requesterID,
			PostID:          &postID,
			Status:          StatusCompleted,
			TransactionID:   &intentID,
			TransactionType: txType,
			Metadata:        metadata,
			CompletedAt:     &now,
			CreatedAt:       now,
		}
		if err := s.payments.Create(ctx, tx, p); err != nil {
			return err
		}

		if post.Type == listing.TypeBuy {
			flipped, err := s.listings.MarkPaid(ctx, tx, post.ID)
			if err != nil {
				return err
			}
			if !flipped {
				return apperror.New(apperror.ErrValidation, "listing has already been sold")
			}
		}

		res := &ConfirmResult{Payment: p}
		if stay != nil && post.Type == listing.TypeRent {
			conflict, err := s.bookings.FindConflict(ctx, tx, booking.ConflictQuery{
				PostID:       post.ID,
				Range:        *stay,
				PendingSince: now.Add(-s.cfg.StaleAfter),
			})
			if err != nil {
				return err
			}
			if conflict != nil {
				return apperror.New(apperror.ErrDateConflict, "selected dates are no longer available")
			}

			guests := in.BookingData.Guests
			if guests == 0 {
				guests = 1
			}
			paymentID := p.ID
			b := &booking.Booking{
				PostID:          post.ID,
				UserID:          requesterID,
				StartDate:       stay.Start,
				EndDate:         stay.End,
				TotalAmount:     intent.Amount,
				Currency:        p.Currency,
				Status:          booking.StatusConfirmed,
				Guests:          guests,
				SpecialRequests: in.BookingData.SpecialRequests,
				PaymentID:       &paymentID,
				ConfirmedAt:     &now,
				CreatedAt:       now,
			}
			if err := s.bookings.Create(ctx, tx, b); err != nil {
				return err
			}
			res.Booking = b
		}

		result = res
		return nil
	})
	if err != nil {
		var appErr *apperror.Error
		switch {
		case errors.As(err, &appErr):
			return nil, err
		case database.IsUniqueViolation(err):
			return nil, apperror.Wrap(apperror.ErrDuplicateTransaction, "payment already processed", err)
		default:
			log.Error("confirm transaction failed", zap.Error(err))
			return nil, apperror.Wrap(apperror.ErrStorage, "failed to record payment", err)
		}
	}

	fields := []zap.Field{zap.Int64("payment_id", result.Payment.ID), zap.String("type", string(txType))}
	if result.Booking != nil {
		fields = append(fields, zap.Int64("booking_id", result.Booking.ID))
	}
	log.Info("payment confirmed", fields...)
	return result, nil
}

// matchPaidDates requires the booked stay to be the one the intent was
// issued for, when the intent carries dates.
func matchPaidDates(intent *gateway.Intent, stay *booking.Range) error {
	raw := intent.Metadata[gateway.MetaBookingDates]
	if raw == "" {
		return nil
	}
	var hint DateHint
	if err := json.Unmarshal([]byte(raw), &hint); err != nil {
		return apperror.Wrap(apperror.ErrValidation, "payment intent carries unreadable booking dates", err)
	}
	paid, err := booking.ParseRange(hint.StartDate, hint.EndDate)
	if err != nil {
		return apperror.Wrap(apperror.ErrValidation, "payment intent carries invalid booking dates", err)
	}
	if stay == nil || !stay.Start.Equal(paid.Start) || !stay.End.Equal(paid.End) {
		return apperror.New(apperror.ErrValidation, "booking dates do not match the dates that were paid for")
	}
	return nil
}

func confirmOutcome(err error) string {
	if err == nil {
		return "completed"
	}
	switch apperror.KindOf(err) {
	case apperror.ErrDateConflict:
		return "date_conflict"
	case apperror.ErrDuplicateTransaction:
		return "duplicate"
	case apperror.ErrPaymentNotCompleted:
		return "not_completed"
	case apperror.ErrGatewayUnavailable:
		return "gateway_unavailable"
	case apperror.ErrStorage:
		return "storage_failure"
	default:
		return "rejected"
	}
}
