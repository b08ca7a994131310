package card

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/teslimakintunde/shortlets-backend-api/internal/database"
	"github.com/teslimakintunde/shortlets-backend-api/internal/gateway"
	"github.com/teslimakintunde/shortlets-backend-api/internal/metrics"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

type Deps struct {
	DB      *gorm.DB
	Gateway Gateway
	Cipher  Cipher
	Cards   cardStore
	Users   userStore
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

// Service manages a user's stored payment methods. The gateway keeps the
// credentials; the local table only mirrors what is safe to display.
type Service struct {
	db      *gorm.DB
	gateway Gateway
	cipher  Cipher
	cards   cardStore
	users   userStore
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:      d.DB,
		gateway: d.Gateway,
		cipher:  d.Cipher,
		cards:   d.Cards,
		users:   d.Users,
		log:     log.Named("card").Named("vault"),
		metrics: d.Metrics,
	}
}

type AddCardInput struct {
	Token     string `json:"token" binding:"required"`
	IsDefault bool   `json:"isDefault"`
}

// AddCard attaches the gateway payment method behind token to the user's
// gateway customer, creating the customer on first use.
func (s *Service) AddCard(ctx context.Context, requesterID int64, in AddCardInput) (*View, error) {
	v, err := s.addCard(ctx, requesterID, in)
	s.metrics.CardOperation("add", outcome(err))
	return v, err
}

func (s *Service) addCard(ctx context.Context, requesterID int64, in AddCardInput) (*View, error) {
	if requesterID == 0 {
		return nil, apperror.ErrUnauthenticated
	}
	token := strings.TrimSpace(in.Token)
	if token == "" {
		return nil, apperror.New(apperror.ErrValidation, "card token is required")
	}

	customerID, err := s.ensureCustomer(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	pm, err := s.gateway.AttachPaymentMethod(ctx, token, customerID)
	if err != nil {
		return nil, gatewayError(err, "card could not be attached")
	}

	c := &Card{
		UserID:                 requesterID,
		GatewayPaymentMethodID: pm.ID,
		Last4:                  pm.Last4,
		Brand:                  pm.Brand,
		ExpMonth:               pm.ExpMonth,
		ExpYear:                pm.ExpYear,
		IsDefault:              in.IsDefault,
		IsActive:               true,
	}
	if pm.HolderName != "" {
		sealed, err := s.cipher.Encrypt(pm.HolderName, holderNameAD(requesterID))
		if err != nil {
			return nil, apperror.Wrap(apperror.ErrStorage, "failed to seal card holder name", err)
		}
		c.HolderNameEnc = sealed
	}

	if err := s.saveCard(ctx, c); err != nil {
		return nil, err
	}

	if c.IsDefault {
		s.pushDefault(ctx, customerID, c.GatewayPaymentMethodID)
	}

	s.log.Info("card added",
		zap.Int64("user_id", requesterID),
		zap.Int64("card_id", c.ID),
		zap.Bool("default", c.IsDefault),
	)
	view := s.view(c)
	return &view, nil
}

// saveCard inserts c, clearing the user's previous default first when c is
// the new default. A unique violation is either the payment method already
// being saved or, on PostgreSQL, a concurrent default insert tripping the
// one-default index; the latter is retried once, after the winner commits.
func (s *Service) saveCard(ctx context.Context, c *Card) error {
	insert := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if c.IsDefault {
				if err := s.cards.ClearDefault(ctx, tx, c.UserID, 0); err != nil {
					return err
				}
			}
			return s.cards.Create(ctx, tx, c)
		})
	}

	err := insert()
	for attempt := 0; err != nil && database.IsUniqueViolation(err); attempt++ {
		saved, lookupErr := s.cards.ExistsByPaymentMethod(ctx, s.db, c.GatewayPaymentMethodID)
		if lookupErr != nil {
			return apperror.Wrap(apperror.ErrStorage, "failed to save card", lookupErr)
		}
		if saved {
			return apperror.Wrap(apperror.ErrValidation, "card is already saved", err)
		}
		if !c.IsDefault || attempt > 0 {
			return apperror.Wrap(apperror.ErrStorage, "another default card was saved at the same time, try again", err)
		}
		s.log.Info("default card insert raced another, retrying", zap.Int64("user_id", c.UserID))
		c.ID = 0
		err = insert()
	}
	if err != nil {
		return apperror.Wrap(apperror.ErrStorage, "failed to save card", err)
	}
	return nil
}

// ensureCustomer returns the user's gateway customer reference, creating and
// storing it when missing. Two concurrent first-card requests may both
// create a customer; the one whose write lands second adopts the stored id.
func (s *Service) ensureCustomer(ctx context.Context, userID int64) (string, error) {
	u, err := s.users.GetByID(ctx, s.db, userID)
	if err != nil {
		return "", storageOr(err, "failed to load user")
	}
	if u.GatewayCustomerID != nil && *u.GatewayCustomerID != "" {
		return *u.GatewayCustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, gateway.CustomerParams{
		Email:  u.Email,
		Name:   u.Username,
		UserID: u.ID,
	})
	if err != nil {
		return "", gatewayError(err, "customer could not be created")
	}

	stored, err := s.users.SetGatewayCustomerID(ctx, s.db, userID, customerID)
	if err != nil {
		return "", apperror.Wrap(apperror.ErrStorage, "failed to store customer reference", err)
	}
	if stored {
		return customerID, nil
	}

	u, err = s.users.GetByID(ctx, s.db, userID)
	if err != nil {
		return "", storageOr(err, "failed to load user")
	}
	if u.GatewayCustomerID == nil || *u.GatewayCustomerID == "" {
		return "", apperror.New(apperror.ErrStorage, "customer reference was not stored")
	}
	s.log.Warn("lost customer creation race, orphaned gateway customer",
		zap.Int64("user_id", userID),
		zap.String("orphan_customer_id", customerID),
	)
	return *u.GatewayCustomerID, nil
}

// SetDefaultCard makes cardID the user's only default card.
func (s *Service) SetDefaultCard(ctx context.Context, requesterID, cardID int64) (*View, error) {
	v, err := s.setDefault(ctx, requesterID, cardID)
	s.metrics.CardOperation("set_default", outcome(err))
	return v, err
}

func (s *Service) setDefault(ctx context.Context, requesterID, cardID int64) (*View, error) {
	if requesterID == 0 {
		return nil, apperror.ErrUnauthenticated
	}

	var c *Card
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned, err := s.cards.GetOwned(ctx, tx, requesterID, cardID)
		if err != nil {
			return err
		}
		if err := s.cards.ClearDefault(ctx, tx, requesterID, owned.ID); err != nil {
			return err
		}
		if err := s.cards.MarkDefault(ctx, tx, owned.ID); err != nil {
			return err
		}
		owned.IsDefault = true
		c = owned
		return nil
	})
	if err != nil {
		return nil, storageOr(err, "failed to update default card")
	}

	if u, err := s.users.GetByID(ctx, s.db, requesterID); err == nil && u.GatewayCustomerID != nil {
		s.pushDefault(ctx, *u.GatewayCustomerID, c.GatewayPaymentMethodID)
	}

	view := s.view(c)
	return &view, nil
}

// ListCards returns the user's active cards with masked numbers.
func (s *Service) ListCards(ctx context.Context, requesterID int64) ([]View, error) {
	if requesterID == 0 {
		return nil, apperror.ErrUnauthenticated
	}

	cards, err := s.cards.ListActive(ctx, s.db, requesterID)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrStorage, "failed to list cards", err)
	}

	views := make([]View, 0, len(cards))
	for i := range cards {
		views = append(views, s.view(&cards[i]))
	}
	return views, nil
}

// DeleteCard removes a card. Detaching it at the gateway is attempted
// first; a failure there is logged and the local row is removed anyway.
func (s *Service) DeleteCard(ctx context.Context, requesterID, cardID int64) error {
	err := s.deleteCard(ctx, requesterID, cardID)
	s.metrics.CardOperation("delete", outcome(err))
	return err
}

func (s *Service) deleteCard(ctx context.Context, requesterID, cardID int64) error {
	if requesterID == 0 {
		return apperror.ErrUnauthenticated
	}

	c, err := s.cards.GetOwned(ctx, s.db, requesterID, cardID)
	if err != nil {
		return storageOr(err, "failed to load card")
	}

	if c.GatewayPaymentMethodID != "" {
		if err := s.gateway.DetachPaymentMethod(ctx, c.GatewayPaymentMethodID); err != nil {
			s.log.Warn("detach payment method failed",
				zap.Int64("card_id", c.ID),
				zap.Error(err),
			)
		}
	}

	if err := s.cards.Delete(ctx, s.db, c.ID); err != nil {
		return apperror.Wrap(apperror.ErrStorage, "failed to delete card", err)
	}

	s.log.Info("card deleted", zap.Int64("user_id", requesterID), zap.Int64("card_id", c.ID))
	return nil
}

func (s *Service) pushDefault(ctx context.Context, customerID, paymentMethodID string) {
	if err := s.gateway.SetDefaultPaymentMethod(ctx, customerID, paymentMethodID); err != nil {
		s.log.Warn("update gateway default payment method failed",
			zap.String("customer_id", customerID),
			zap.Error(err),
		)
	}
}

func (s *Service) view(c *Card) View {
	v := View{
		ID:         c.ID,
		CardNumber: MaskNumber(c.Last4),
		Last4:      c.Last4,
		Brand:      c.Brand,
		ExpMonth:   c.ExpMonth,
		ExpYear:    c.ExpYear,
		IsDefault:  c.IsDefault,
		CreatedAt:  c.CreatedAt,
	}
	if c.HolderNameEnc != "" {
		name, err := s.cipher.Decrypt(c.HolderNameEnc, holderNameAD(c.UserID))
		if err != nil {
			s.log.Error("open card holder name failed", zap.Int64("card_id", c.ID), zap.Error(err))
		} else {
			v.HolderName = name
		}
	}
	return v
}

func gatewayError(err error, message string) error {
	switch {
	case errors.Is(err, gateway.ErrRejected), errors.Is(err, gateway.ErrNotFound):
		return apperror.Wrap(apperror.ErrValidation, message, err)
	default:
		return apperror.Wrap(apperror.ErrGatewayUnavailable, "payment provider unavailable", err)
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, apperror.ErrGatewayUnavailable) {
		return "gateway_error"
	}
	return "error"
}

func storageOr(err error, message string) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) || errors.Is(err, apperror.ErrUnauthenticated) {
		return err
	}
	return apperror.Wrap(apperror.ErrStorage, message, err)
}
