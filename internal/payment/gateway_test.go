package payment

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func charge(g Gateway) (ChargeResult, error) {
	return g.Charge(context.Background(), ChargeRequest{
		Reference: "YPG-00000001",
		Amount:    decimal.NewFromInt(100),
		Currency:  "GHS",
	})
}

func TestSimulatedGateway_Extremes(t *testing.T) {
	always := NewSimulatedGateway(1, rand.NewSource(1))
	for i := 0; i < 20; i++ {
		res, err := charge(always)
		if err != nil {
			t.Fatalf("Expected approval, got %v", err)
		}
		if !strings.HasPrefix(res.TransactionID, "TXN-") {
			t.Errorf("Unexpected transaction id %q", res.TransactionID)
		}
	}

	never := NewSimulatedGateway(0, rand.NewSource(1))
	for i := 0; i < 20; i++ {
		if _, err := charge(never); !errors.Is(err, ErrDeclined) {
			t.Fatalf("Expected ErrDeclined, got %v", err)
		}
	}
}

func TestSimulatedGateway_Rate(t *testing.T) {
	g := NewSimulatedGateway(0.8, rand.NewSource(42))

	approved := 0
	const n = 2000
	for i := 0; i < n; i++ {
		if _, err := charge(g); err == nil {
			approved++
		}
	}

	share := float64(approved) / n
	if share < 0.75 || share > 0.85 {
		t.Errorf("Expected roughly 80%% approvals, got %.2f", share)
	}
}

func TestSimulatedGateway_CancelledContext(t *testing.T) {
	g := NewSimulatedGateway(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Charge(ctx, ChargeRequest{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
