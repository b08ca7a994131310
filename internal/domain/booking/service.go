package booking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/teslimakintunde/shortlets-backend-api/internal/database"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/listing"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/user"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type listingReader interface {
	GetByID(ctx context.Context, db *gorm.DB, id int64) (*listing.Post, error)
}

// Service serves the booking views and the back-office status update.
// Bookings themselves are created by the payment confirmation flow.
type Service struct {
	db          *gorm.DB
	repo        *Repository
	listings    listingReader
	log         *zap.Logger
	staleAfter  time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewService(db *gorm.DB, repo *Repository, listings listingReader, log *zap.Logger, staleAfter time.Duration) *Service {
	return &Service{
		db:          db,
		repo:        repo,
		listings:    listings,
		log:         log.Named("booking.service"),
		staleAfter:  staleAfter,
		maxAttempts: 3,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type Page struct {
	Items  []Booking `json:"items"`
	Total  int64     `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

func (s *Service) List(ctx context.Context, f ListFilter) (*Page, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperror.New(apperror.ErrValidation, "unknown booking status")
	}
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)

	items, total, err := s.repo.List(ctx, s.db, f)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrStorage, "failed to list bookings", err)
	}
	return &Page{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// ListForUser lists a renter's bookings. Staff may list anyone's.
func (s *Service) ListForUser(ctx context.Context, requesterID int64, role string, userID int64, f ListFilter) (*Page, error) {
	if requesterID == 0 {
		return nil, apperror.ErrUnauthenticated
	}
	if requesterID != userID && !user.IsStaff(role) {
		return nil, apperror.New(apperror.ErrForbidden, "cannot view another user's bookings")
	}
	f.UserID = userID
	return s.List(ctx, f)
}

// Get returns a booking visible to its renter, the listing owner and staff.
func (s *Service) Get(ctx context.Context, requesterID int64, role string, id int64) (*Booking, error) {
	if requesterID == 0 {
		return nil, apperror.ErrUnauthenticated
	}

	b, err := s.repo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, storageOr(err, "failed to load booking")
	}
	if b.UserID == requesterID || user.IsStaff(role) {
		return b, nil
	}

	post, err := s.listings.GetByID(ctx, s.db, b.PostID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, storageOr(err, "failed to load listing")
	}
	if post != nil && post.IsOwnedBy(requesterID) {
		return b, nil
	}
	return nil, apperror.New(apperror.ErrNotFound, "booking not found")
}

// UpdateStatus is the back-office transition. Moving a booking into a
// blocking status re-checks the dates against other blocking bookings.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status, reason string) (*Booking, error) {
	if !status.Valid() {
		return nil, apperror.New(apperror.ErrValidation, "unknown booking status")
	}

	var updated *Booking
	err := database.RunSerializable(ctx, s.db, s.maxAttempts, func(tx *gorm.DB) error {
		b, err := s.repo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if b.Status == status {
			updated = b
			return nil
		}

		now := s.now()
		// a pending booking past StaleAfter no longer holds its dates, so any
		// move into a blocking status is re-checked, not only reinstatements
		if status.Blocking() {
			conflict, err := s.repo.FindConflict(ctx, tx, ConflictQuery{
				PostID:       b.PostID,
				Range:        b.Range(),
				PendingSince: now.Add(-s.staleAfter),
				ExcludeID:    b.ID,
			})
			if err != nil {
				return err
			}
			if conflict != nil {
				return apperror.New(apperror.ErrDateConflict, "dates overlap an existing booking")
			}
		}

		b.Status = status
		switch status {
		case StatusConfirmed:
			b.ConfirmedAt = &now
		case StatusCancelled, StatusRejected:
			b.CancelledAt = &now
			b.CancellationReason = reason
		}
		if err := s.repo.UpdateStatus(ctx, tx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, storageOr(err, "failed to update booking")
	}

	s.log.Info("booking status updated",
		zap.Int64("booking_id", updated.ID),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func storageOr(err error, message string) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) || errors.Is(err, apperror.ErrUnauthenticated) {
		return err
	}
	return apperror.Wrap(apperror.ErrStorage, message, err)
}
