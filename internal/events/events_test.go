package events

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"ypg-admin-api/internal/models"
)

func TestPublish_RunsHandlersSynchronously(t *testing.T) {
	m := NewManager(true, zap.NewNop())

	var order []string
	m.Subscribe(EventDonationSubmitted, func(ctx context.Context, e Event) error {
		order = append(order, "first")
		return nil
	})
	m.Subscribe(EventDonationSubmitted, func(ctx context.Context, e Event) error {
		data := e.Data.(DonationData)
		order = append(order, data.Donation.ReceiptCode)
		return nil
	})

	m.PublishDonationSubmitted(context.Background(), models.Donation{ReceiptCode: "YPG-0000ABCD"})

	if len(order) != 2 || order[0] != "first" || order[1] != "YPG-0000ABCD" {
		t.Errorf("Expected both handlers to have run in order, got %v", order)
	}
}

func TestPublish_SwallowsErrorsAndPanics(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := NewManager(true, zap.New(core))

	reached := false
	m.Subscribe(EventDonationVerified, func(ctx context.Context, e Event) error {
		return errors.New("smtp down")
	})
	m.Subscribe(EventDonationVerified, func(ctx context.Context, e Event) error {
		panic("boom")
	})
	m.Subscribe(EventDonationVerified, func(ctx context.Context, e Event) error {
		reached = true
		return nil
	})

	m.PublishDonationVerified(context.Background(), models.Donation{})

	if !reached {
		t.Error("Expected later handlers to run after a failure")
	}
	if logs.Len() != 2 {
		t.Errorf("Expected 2 logged failures, got %d", logs.Len())
	}
}

func TestPublish_Disabled(t *testing.T) {
	m := NewManager(false, nil)

	called := false
	m.Subscribe(EventPaymentFailed, func(ctx context.Context, e Event) error {
		called = true
		return nil
	})
	m.PublishPaymentFailed(context.Background(), models.Donation{})

	if called {
		t.Error("Expected disabled manager to ignore subscriptions")
	}
}

func TestShutdown(t *testing.T) {
	m := NewManager(true, nil)

	called := false
	m.Subscribe(EventDonationSubmitted, func(ctx context.Context, e Event) error {
		called = true
		return nil
	})
	m.Shutdown()
	m.PublishDonationSubmitted(context.Background(), models.Donation{})

	if called {
		t.Error("Expected no delivery after shutdown")
	}
}
