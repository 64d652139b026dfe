package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"ypg-admin-api/internal/events"
	"ypg-admin-api/internal/features"
	"ypg-admin-api/internal/models"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func sampleDonation() models.Donation {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	return models.Donation{
		DonorName:     "Kofi Boateng",
		Email:         "kofi@example.com",
		Amount:        decimal.RequireFromString("75"),
		Currency:      "GHS",
		PaymentMethod: models.MethodMomo,
		Status:        models.StatusPending,
		Purpose:       models.PurposeBuilding,
		ReceiptCode:   "YPG-1A2B3C4D",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestNotifyDonor_RendersReceipt(t *testing.T) {
	mailer := &fakeMailer{}
	d := NewDispatcher(mailer, Options{OrgName: "YPG District"})

	d.NotifyDonor(context.Background(), sampleDonation())

	if len(mailer.sent) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "kofi@example.com" {
		t.Errorf("Unexpected recipient %s", msg.To)
	}
	for _, want := range []string{"YPG-1A2B3C4D", "75.00 GHS", "Building Fund", "Mobile Money", "pending", "2024-03-10"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("Expected body to contain %q:\n%s", want, msg.Body)
		}
	}
}

func TestNotifyDonor_SkipsMissingEmail(t *testing.T) {
	mailer := &fakeMailer{}
	d := NewDispatcher(mailer, Options{AdminEmail: "admin@example.com"})

	donation := sampleDonation()
	donation.Email = ""
	d.NotifyDonor(context.Background(), donation)
	d.NotifyVerified(context.Background(), donation)

	if len(mailer.sent) != 0 {
		t.Errorf("Expected no donor mail without an address, got %d", len(mailer.sent))
	}
}

func TestSend_SwallowsErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	mailer := &fakeMailer{err: errors.New("relay unavailable")}
	d := NewDispatcher(mailer, Options{AdminEmail: "admin@example.com", Logger: zap.New(core)})

	d.NotifyAdmin(context.Background(), sampleDonation())

	if logs.FilterMessage("failed to send notification").Len() != 1 {
		t.Error("Expected the failure to be logged")
	}
}

func TestSend_RespectsFeatureFlag(t *testing.T) {
	mailer := &fakeMailer{}
	flags := features.FromConfig(true, false, true)
	d := NewDispatcher(mailer, Options{AdminEmail: "admin@example.com", Flags: flags})

	d.NotifyAdmin(context.Background(), sampleDonation())

	if len(mailer.sent) != 0 {
		t.Errorf("Expected no mail with notifications disabled, got %d", len(mailer.sent))
	}
}

func TestSubscribe(t *testing.T) {
	mailer := &fakeMailer{}
	d := NewDispatcher(mailer, Options{AdminEmail: "admin@example.com"})
	m := events.NewManager(true, zap.NewNop())
	d.Subscribe(m)

	donation := sampleDonation()
	m.PublishDonationSubmitted(context.Background(), donation)

	if len(mailer.sent) != 2 {
		t.Fatalf("Expected donor and admin mail, got %d", len(mailer.sent))
	}
	if mailer.sent[1].To != "admin@example.com" {
		t.Errorf("Expected admin mail second, got %s", mailer.sent[1].To)
	}

	donation.MarkVerified("Treasurer", donation.CreatedAt.Add(time.Hour))
	m.PublishDonationVerified(context.Background(), donation)

	if len(mailer.sent) != 3 {
		t.Fatalf("Expected verified notice, got %d messages", len(mailer.sent))
	}
	if !strings.Contains(mailer.sent[2].Body, "verified by Treasurer") {
		t.Errorf("Unexpected verified body:\n%s", mailer.sent[2].Body)
	}
}
