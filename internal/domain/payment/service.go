package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/user"
	"github.com/teslimakintunde/shortlets-backend-api/internal/metrics"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

const (
	UnreachableFail  = "fail"
	UnreachableDefer = "defer"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Config struct {
	SupportedCurrencies []string
	DefaultCurrency     string
	PublishableKey      string
	ConfirmAttempts     int

	// StaleAfter is both the reconciler threshold and the age after which
	// a pending_payment booking stops blocking its dates.
	StaleAfter        time.Duration
	BatchSize         int
	UnreachablePolicy string
}

func (c Config) withDefaults() Config {
	if len(c.SupportedCurrencies) == 0 {
		c.SupportedCurrencies = []string{"USD", "EUR", "GBP", "NGN"}
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = "NGN"
	}
	if c.ConfirmAttempts < 1 {
		c.ConfirmAttempts = 3
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = time.Hour
	}
	if c.BatchSize < 1 {
		c.BatchSize = 100
	}
	if c.UnreachablePolicy == "" {
		c.UnreachablePolicy = UnreachableFail
	}
	return c
}

type Deps struct {
	DB       *gorm.DB
	Gateway  Gateway
	Payments paymentStore
	Bookings bookingStore
	Listings listingStore
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Config   Config
}

type Service struct {
	db       *gorm.DB
	gateway  Gateway
	payments paymentStore
	bookings bookingStore
	listings listingStore
	log      *zap.Logger
	metrics  *metrics.Metrics
	cfg      Config
	now      func() time.Time
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:       d.DB,
		gateway:  d.Gateway,
		payments: d.Payments,
		bookings: d.Bookings,
		listings: d.Listings,
		log:      log.Named("payment"),
		metrics:  d.Metrics,
		cfg:      d.Config.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type Page struct {
	Items  []Payment `json:"items"`
	Total  int64     `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// List is the back-office ledger view.
func (s *Service) List(ctx context.Context, f ListFilter) (*Page, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperror.New(apperror.ErrValidation, "unknown payment status")
	}
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset)

	items, total, err := s.payments.List(ctx, s.db, f)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrStorage, "failed to list payments", err)
	}
	return &Page{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// ListSales lists sale payments for userID. Non-staff may only list their own.
func (s *Service) ListSales(ctx context.Context, requesterID int64, role string, userID int64, f ListFilter) (*Page, error) {
	if requesterID == 0 {
		return nil, apperror.ErrUnauthenticated
	}
	if requesterID != userID && !user.IsStaff(role) {
		return nil, apperror.New(apperror.ErrForbidden, "cannot view another user's sales")
	}
	f.UserID = userID
	f.TransactionType = TransactionSale
	return s.List(ctx, f)
}

// Get returns a payment to its owner or to staff.
func (s *Service) Get(ctx context.Context, requesterID int64, role string, id int64) (*Payment, error) {
	if requesterID == 0 {
		return nil, apperror.ErrUnauthenticated
	}

	p, err := s.payments.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, storageOr(err, "failed to load payment")
	}
	if p.UserID != requesterID && !user.IsStaff(role) {
		return nil, apperror.New(apperror.ErrNotFound, "payment not found")
	}
	return p, nil
}

// GetSale returns a sale payment to its buyer, the seller of the listing
// and staff.
func (s *Service) GetSale(ctx context.Context, requesterID int64, role string, id int64) (*Payment, error) {
	if requesterID == 0 {
		return nil, apperror.ErrUnauthenticated
	}

	p, err := s.loadSale(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if p.UserID == requesterID || user.IsStaff(role) {
		return p, nil
	}
	if p.PostID != nil {
		post, err := s.listings.GetByID(ctx, s.db, *p.PostID)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return nil, storageOr(err, "failed to load listing")
		}
		if post != nil && post.IsOwnedBy(requesterID) {
			return p, nil
		}
	}
	return nil, apperror.New(apperror.ErrNotFound, "sale not found")
}

// UpdateSaleStatus is the staff override for a sale payment's status.
// Moving to completed stamps CompletedAt when it is not already set.
func (s *Service) UpdateSaleStatus(ctx context.Context, id int64, status Status) (*Payment, error) {
	if !status.Valid() {
		return nil, apperror.New(apperror.ErrValidation, "unknown payment status")
	}

	var updated *Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.loadSale(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.Status == status {
			updated = p
			return nil
		}

		p.Status = status
		if status == StatusCompleted && p.CompletedAt == nil {
			now := s.now()
			p.CompletedAt = &now
		}
		if err := s.payments.SetStatus(ctx, tx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, storageOr(err, "failed to update sale")
	}

	s.log.Info("sale status updated",
		zap.Int64("payment_id", updated.ID),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

func (s *Service) loadSale(ctx context.Context, db *gorm.DB, id int64) (*Payment, error) {
	p, err := s.payments.GetByID(ctx, db, id)
	if err != nil {
		return nil, storageOr(err, "failed to load sale")
	}
	if p.TransactionType != TransactionSale {
		return nil, apperror.New(apperror.ErrNotFound, "sale not found")
	}
	return p, nil
}

func (s *Service) supportsCurrency(code string) bool {
	for _, c := range s.cfg.SupportedCurrencies {
		if strings.EqualFold(c, code) {
			return true
		}
	}
	return false
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

// storageOr passes classified errors through and wraps anything else as a
// storage failure.
func storageOr(err error, message string) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) || errors.Is(err, apperror.ErrUnauthenticated) {
		return err
	}
	return apperror.Wrap(apperror.ErrStorage, message, err)
}
