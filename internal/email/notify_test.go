package email

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cancha-app/cancha/internal/booking"
)

type fakeSender struct {
	sendCalls     int32
	sendFromCalls int32
	delivered     chan delivery
}

type delivery struct {
	recipient string
	subject   string
	body      string
	sender    string
}

func newFakeSender() *fakeSender {
	return &fakeSender{delivered: make(chan delivery, 4)}
}

func (f *fakeSender) Send(ctx context.Context, recipient, subject, body string) error {
	atomic.AddInt32(&f.sendCalls, 1)
	f.delivered <- delivery{recipient: recipient, subject: subject, body: body}
	return nil
}

func (f *fakeSender) SendFrom(ctx context.Context, recipient, subject, body, sender string) error {
	atomic.AddInt32(&f.sendFromCalls, 1)
	f.delivered <- delivery{recipient: recipient, subject: subject, body: body, sender: sender}
	return nil
}

func waitForDelivery(t *testing.T, ch <-chan delivery) delivery {
	t.Helper()

	select {
	case d := <-ch:
		return d
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected email delivery")
		return delivery{}
	}
}

func testReservation() booking.Reservation {
	return booking.Reservation{
		ID:            7,
		CourtID:       1,
		Date:          time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		StartMinute:   18 * 60,
		EndMinute:     19 * 60,
		Status:        booking.StatusConfirmed,
		CustomerName:  "Ana Torres",
		CustomerEmail: "ana@example.com",
		Price:         decimal.NewFromInt(400),
		DepositAmount: decimal.NewFromInt(100),
	}
}

func TestSendBookingConfirmation_DeliversToCustomer(t *testing.T) {
	sender := newFakeSender()
	r := testReservation()
	msg := BuildBookingConfirmation(DetailsFromReservation(r, "Complejo Central", "Cancha 1"))

	SendBookingConfirmation(context.Background(), sender, r, msg, nil)

	d := waitForDelivery(t, sender.delivered)
	if d.recipient != "ana@example.com" {
		t.Errorf("recipient = %q, want ana@example.com", d.recipient)
	}
	if !strings.Contains(d.subject, "Complejo Central") {
		t.Errorf("subject %q missing complex name", d.subject)
	}
	if !strings.Contains(d.body, "Cancha 1") {
		t.Errorf("body missing court name:\n%s", d.body)
	}
	if !strings.Contains(d.body, "18:00 - 19:00") {
		t.Errorf("body missing time range:\n%s", d.body)
	}
	if !strings.Contains(d.body, "$100.00") {
		t.Errorf("body missing deposit amount:\n%s", d.body)
	}
}

func TestSendBookingConfirmation_NoRecipientSkipsSend(t *testing.T) {
	sender := newFakeSender()
	r := testReservation()
	r.CustomerEmail = "   "
	msg := BuildBookingConfirmation(DetailsFromReservation(r, "Complejo Central", "Cancha 1"))

	SendBookingConfirmation(context.Background(), sender, r, msg, nil)

	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&sender.sendCalls); n != 0 {
		t.Fatalf("expected no send calls, got %d", n)
	}
}

func TestSendBookingConfirmation_NilClientIsNoop(t *testing.T) {
	// Must not panic.
	SendBookingConfirmation(context.Background(), nil, testReservation(), Message{Subject: "s", Body: "b"}, nil)
}

func TestSendBookingCancellation_UsesSenderOverride(t *testing.T) {
	sender := newFakeSender()
	r := testReservation()
	msg := BuildBookingCancellation(DetailsFromReservation(r, "Complejo Central", "Cancha 1"), "complex closed for maintenance")

	SendBookingCancellation(context.Background(), sender, r, msg, "avisos@complejocentral.mx", nil)

	d := waitForDelivery(t, sender.delivered)
	if d.sender != "avisos@complejocentral.mx" {
		t.Errorf("sender = %q, want override address", d.sender)
	}
	if !strings.Contains(d.body, "complex closed for maintenance") {
		t.Errorf("body missing cancellation reason:\n%s", d.body)
	}
	if atomic.LoadInt32(&sender.sendFromCalls) != 1 {
		t.Fatalf("expected one SendFrom call")
	}
}

func TestBuildBookingConfirmation_Defaults(t *testing.T) {
	msg := BuildBookingConfirmation(BookingDetails{Price: decimal.Zero, DepositAmount: decimal.Zero})
	if !strings.Contains(msg.Subject, "your complex") {
		t.Errorf("subject %q missing fallback complex name", msg.Subject)
	}
	if strings.Contains(msg.Body, "Deposit due") {
		t.Errorf("zero deposit should omit the deposit line:\n%s", msg.Body)
	}
	if !strings.Contains(msg.Body, "Contact the complex") {
		t.Errorf("body missing fallback cancellation policy:\n%s", msg.Body)
	}
}

func TestBuildPendingExpiry(t *testing.T) {
	r := testReservation()
	msg := BuildPendingExpiry(DetailsFromReservation(r, "Complejo Central", "Cancha 1"))
	if !strings.Contains(msg.Subject, "Hold Expired") {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "released") {
		t.Errorf("body missing release notice:\n%s", msg.Body)
	}
}
