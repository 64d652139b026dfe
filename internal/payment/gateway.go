// Package payment charges card donations through a gateway.
package payment

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"ypg-admin-api/internal/ident"
)

// ErrDeclined is returned when the gateway refuses a charge.
var ErrDeclined = errors.New("card declined")

// ChargeRequest describes one card charge.
type ChargeRequest struct {
	Reference string
	Amount    decimal.Decimal
	Currency  string
	CardToken string
}

// ChargeResult is the gateway's answer to an accepted charge.
type ChargeResult struct {
	TransactionID string
	ProcessedAt   time.Time
}

// Gateway charges cards.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// SimulatedGateway accepts a configurable share of charges at random. It
// stands in for a real processor until one is contracted.
type SimulatedGateway struct {
	successRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulatedGateway returns a gateway that approves charges with
// probability successRate. A nil src seeds from the clock.
func NewSimulatedGateway(successRate float64, src rand.Source) *SimulatedGateway {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &SimulatedGateway{
		successRate: successRate,
		rnd:         rand.New(src),
	}
}

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}

	g.mu.Lock()
	roll := g.rnd.Float64()
	g.mu.Unlock()

	if roll >= g.successRate {
		return ChargeResult{}, ErrDeclined
	}

	return ChargeResult{
		TransactionID: ident.NewTransactionID(),
		ProcessedAt:   time.Now().UTC(),
	}, nil
}
