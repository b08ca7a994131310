package booking

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/listing"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/apperror"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:booking_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Booking{}, &listing.Post{}))
	return db
}

func seedBooking(t *testing.T, db *gorm.DB, postID int64, start, end string, status Status, createdAt time.Time) *Booking {
	t.Helper()
	b := &Booking{
		PostID:      postID,
		UserID:      7,
		StartDate:   day(start),
		EndDate:     day(end),
		TotalAmount: 10000,
		Currency:    "NGN",
		Status:      status,
		Guests:      1,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(b).Error)
	return b
}

func TestRepository_FindConflict(t *testing.T) {
	db := setupDB(t)
	repo := NewRepository()
	ctx := context.Background()
	now := time.Now().UTC()
	cutoff := now.Add(-time.Hour)

	seedBooking(t, db, 1, "2025-02-01", "2025-02-05", StatusConfirmed, now)
	seedBooking(t, db, 1, "2025-02-10", "2025-02-12", StatusCancelled, now)
	seedBooking(t, db, 1, "2025-02-20", "2025-02-22", StatusPendingPayment, now.Add(-3*time.Hour))
	fresh := seedBooking(t, db, 1, "2025-03-01", "2025-03-03", StatusPendingPayment, now)
	seedBooking(t, db, 2, "2025-02-01", "2025-02-05", StatusActive, now)

	query := func(start, end string) ConflictQuery {
		r, err := ParseRange(start, end)
		require.NoError(t, err)
		return ConflictQuery{PostID: 1, Range: r, PendingSince: cutoff}
	}

	tests := []struct {
		name     string
		q        ConflictQuery
		conflict bool
	}{
		{"overlaps confirmed", query("2025-02-03", "2025-02-07"), true},
		{"touches confirmed checkout", query("2025-02-05", "2025-02-06"), true},
		{"cancelled does not block", query("2025-02-10", "2025-02-12"), false},
		{"stale pending does not block", query("2025-02-20", "2025-02-22"), false},
		{"fresh pending blocks", query("2025-03-02", "2025-03-04"), true},
		{"free dates", query("2025-04-01", "2025-04-03"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindConflict(ctx, db, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.conflict, got != nil)
		})
	}

	t.Run("exclude self", func(t *testing.T) {
		q := query("2025-03-01", "2025-03-03")
		q.ExcludeID = fresh.ID
		got, err := repo.FindConflict(ctx, db, q)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

// Any set of bookings admitted one at a time through FindConflict must be
// pairwise non-overlapping per listing.
func TestRepository_AdmittedBookingsNeverOverlap(t *testing.T) {
	db := setupDB(t)
	repo := NewRepository()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	origin := day("2025-06-01")
	now := time.Now().UTC()

	for i := 0; i < 150; i++ {
		postID := int64(1 + rng.Intn(3))
		start := origin.AddDate(0, 0, rng.Intn(90))
		r, err := NewRange(start, start.AddDate(0, 0, 1+rng.Intn(10)))
		require.NoError(t, err)

		conflict, err := repo.FindConflict(ctx, db, ConflictQuery{PostID: postID, Range: r, PendingSince: now.Add(-time.Hour)})
		require.NoError(t, err)
		if conflict != nil {
			continue
		}
		status := []Status{StatusConfirmed, StatusActive, StatusPendingPayment}[rng.Intn(3)]
		require.NoError(t, repo.Create(ctx, db, &Booking{
			PostID: postID, UserID: 1, StartDate: r.Start, EndDate: r.End,
			TotalAmount: 1, Currency: "NGN", Status: status, Guests: 1,
		}))
	}

	var all []Booking
	require.NoError(t, db.Find(&all).Error)
	require.NotEmpty(t, all)
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			if all[i].PostID != all[j].PostID {
				continue
			}
			assert.False(t, all[i].Range().Overlaps(all[j].Range()), "bookings %d and %d overlap", all[i].ID, all[j].ID)
		}
	}
}

func TestRepository_CancelPendingByPaymentLeavesConfirmed(t *testing.T) {
	db := setupDB(t)
	repo := NewRepository()
	ctx := context.Background()
	now := time.Now().UTC()
	paymentID := int64(99)

	pending := seedBooking(t, db, 1, "2025-02-01", "2025-02-03", StatusPendingPayment, now)
	confirmed := seedBooking(t, db, 1, "2025-02-10", "2025-02-12", StatusConfirmed, now)
	require.NoError(t, db.Model(&Booking{}).Where("id IN ?", []int64{pending.ID, confirmed.ID}).Update("payment_id", paymentID).Error)

	n, err := repo.CancelPendingByPayment(ctx, db, paymentID, "payment_failed", now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := repo.GetByID(ctx, db, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)

	got, err = repo.GetByID(ctx, db, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.Nil(t, got.CancelledAt)
}

func TestService_UpdateStatus(t *testing.T) {
	db := setupDB(t)
	repo := NewRepository()
	svc := NewService(db, repo, listing.NewRepository(), zap.NewNop(), time.Hour)
	ctx := context.Background()
	now := time.Now().UTC()

	seedBooking(t, db, 1, "2025-02-01", "2025-02-05", StatusConfirmed, now)
	cancelled := seedBooking(t, db, 1, "2025-02-03", "2025-02-04", StatusCancelled, now)
	other := seedBooking(t, db, 1, "2025-03-01", "2025-03-02", StatusPendingPayment, now)

	_, err := svc.UpdateStatus(ctx, cancelled.ID, StatusConfirmed, "")
	assert.ErrorIs(t, err, apperror.ErrDateConflict)

	got, err := svc.UpdateStatus(ctx, other.ID, StatusCancelled, "guest request")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, "guest request", got.CancellationReason)
	require.NotNil(t, got.CancelledAt)

	_, err = svc.UpdateStatus(ctx, other.ID, Status("teleported"), "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.UpdateStatus(ctx, 9999, StatusConfirmed, "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestService_UpdateStatus_StalePendingCannotBePromotedOverConfirmed(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, NewRepository(), listing.NewRepository(), zap.NewNop(), time.Hour)
	ctx := context.Background()
	now := time.Now().UTC()

	stale := seedBooking(t, db, 1, "2025-01-10", "2025-01-15", StatusPendingPayment, now.Add(-3*time.Hour))
	seedBooking(t, db, 1, "2025-01-12", "2025-01-18", StatusConfirmed, now)
	fresh := seedBooking(t, db, 1, "2025-06-01", "2025-06-03", StatusPendingPayment, now)

	for _, target := range []Status{StatusConfirmed, StatusActive} {
		_, err := svc.UpdateStatus(ctx, stale.ID, target, "")
		assert.ErrorIs(t, err, apperror.ErrDateConflict, target)
	}

	var confirmed int64
	require.NoError(t, db.Model(&Booking{}).
		Where("post_id = ? AND status IN ?", 1, []Status{StatusConfirmed, StatusActive}).
		Count(&confirmed).Error)
	assert.EqualValues(t, 1, confirmed)

	got, err := svc.UpdateStatus(ctx, fresh.ID, StatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)
	assert.NotNil(t, got.ConfirmedAt)
}

func TestService_Get(t *testing.T) {
	db := setupDB(t)
	repo := NewRepository()
	svc := NewService(db, repo, listing.NewRepository(), zap.NewNop(), time.Hour)
	ctx := context.Background()

	post := &listing.Post{OwnerID: 50, Title: "Ikoyi studio", Price: 1000, Type: listing.TypeRent, IsActive: true}
	require.NoError(t, db.Create(post).Error)
	b := seedBooking(t, db, post.ID, "2025-02-01", "2025-02-05", StatusConfirmed, time.Now().UTC())

	_, err := svc.Get(ctx, 0, "", b.ID)
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	got, err := svc.Get(ctx, 7, "user", b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = svc.Get(ctx, 50, "user", b.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, 3, "admin", b.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, 3, "user", b.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestService_ListForUser(t *testing.T) {
	db := setupDB(t)
	svc := NewService(db, NewRepository(), listing.NewRepository(), zap.NewNop(), time.Hour)
	ctx := context.Background()
	seedBooking(t, db, 1, "2025-02-01", "2025-02-05", StatusConfirmed, time.Now().UTC())

	page, err := svc.ListForUser(ctx, 7, "user", 7, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, defaultPageSize, page.Limit)

	_, err = svc.ListForUser(ctx, 8, "user", 7, ListFilter{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	page, err = svc.ListForUser(ctx, 8, "support", 7, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}
