package scheduler

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cancha-app/cancha/internal/booking"
	"github.com/cancha-app/cancha/internal/store"
	"github.com/cancha-app/cancha/internal/testutil"
)

type recordingSender struct {
	calls     int32
	delivered chan string
}

func newRecordingSender() *recordingSender {
	return &recordingSender{delivered: make(chan string, 4)}
}

func (r *recordingSender) Send(ctx context.Context, recipient, subject, body string) error {
	atomic.AddInt32(&r.calls, 1)
	r.delivered <- recipient
	return nil
}

func (r *recordingSender) SendFrom(ctx context.Context, recipient, subject, body, sender string) error {
	return r.Send(ctx, recipient, subject, body)
}

func seedPendingHold(t *testing.T, st *store.Store, courtID int64, start, end int) booking.Reservation {
	t.Helper()

	created, err := st.InsertReservation(context.Background(), booking.NewReservation{
		CourtID:       courtID,
		Date:          time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		StartMinute:   start,
		EndMinute:     end,
		Status:        booking.StatusPending,
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@example.com",
		Price:         decimal.NewFromInt(400),
		DepositAmount: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("seed pending hold: %v", err)
	}
	return created
}

func TestExpirePendingHolds_ReleasesStaleHoldsAndNotifies(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := testutil.SeedCourt(t, database)
	st := store.New(database)
	sender := newRecordingSender()
	ctx := context.Background()

	hold := seedPendingHold(t, st, courtID, 600, 660)

	// A sweep clock far in the future makes every freshly inserted hold stale.
	released, err := ExpirePendingHolds(ctx, st, sender, 30*time.Minute, time.Now().UTC().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if released != 1 {
		t.Fatalf("released = %d, want 1", released)
	}

	after, err := st.GetReservation(ctx, hold.ID)
	if err != nil {
		t.Fatalf("get reservation: %v", err)
	}
	if after.Status != booking.StatusCancelled {
		t.Errorf("status = %s, want cancelled", after.Status)
	}

	select {
	case recipient := <-sender.delivered:
		if recipient != "dana@example.com" {
			t.Errorf("recipient = %q, want dana@example.com", recipient)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected expiry notification")
	}
}

func TestExpirePendingHolds_FreshHoldsSurvive(t *testing.T) {
	database := testutil.NewTestDB(t)
	courtID := testutil.SeedCourt(t, database)
	st := store.New(database)
	sender := newRecordingSender()
	ctx := context.Background()

	hold := seedPendingHold(t, st, courtID, 600, 660)

	released, err := ExpirePendingHolds(ctx, st, sender, 30*time.Minute, time.Now().UTC())
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if released != 0 {
		t.Fatalf("released = %d, want 0", released)
	}

	after, err := st.GetReservation(ctx, hold.ID)
	if err != nil {
		t.Fatalf("get reservation: %v", err)
	}
	if after.Status != booking.StatusPending {
		t.Errorf("status = %s, want pending", after.Status)
	}
	if atomic.LoadInt32(&sender.calls) != 0 {
		t.Errorf("expected no notifications for fresh holds")
	}
}

func TestRegisterPendingHoldSweep_RejectsEmptyCron(t *testing.T) {
	svc, err := New()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop() })

	_, err = svc.AddJob("pending-hold-expiry", "", func() {})
	if err == nil || !strings.Contains(err.Error(), "cron expression") {
		t.Fatalf("expected empty cron error, got %v", err)
	}
}
