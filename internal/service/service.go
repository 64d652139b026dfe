package service

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"ypg-admin-api/internal/apperrors"
	"ypg-admin-api/internal/auth"
	"ypg-admin-api/internal/cache"
	"ypg-admin-api/internal/database"
	"ypg-admin-api/internal/events"
	"ypg-admin-api/internal/features"
	"ypg-admin-api/internal/ident"
	"ypg-admin-api/internal/payment"
)

// maxReceiptAttempts bounds receipt regeneration when a code collides.
const maxReceiptAttempts = 5

// maxSlugAttempts bounds the numeric suffixes tried for one slug base.
const maxSlugAttempts = 1000

// Service provides the business workflows of the admin API.
type Service struct {
	db       *database.DB
	gateway  payment.Gateway
	events   *events.Manager
	flags    *features.Manager
	tokens   *auth.TokenManager
	counters cache.Store
	logger   *zap.Logger

	receiptPrefix   string
	defaultCurrency string
	now             func() time.Time
}

// Options carries the collaborators of a Service. Zero values fall back to
// working defaults so tests only set what they exercise.
type Options struct {
	Gateway         payment.Gateway
	Events          *events.Manager
	Flags           *features.Manager
	Tokens          *auth.TokenManager
	Counters        cache.Store
	Logger          *zap.Logger
	ReceiptPrefix   string
	DefaultCurrency string
	Now             func() time.Time
}

// NewService creates a new service instance.
func NewService(db *database.DB, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Events == nil {
		opts.Events = events.NewManager(true, opts.Logger)
	}
	if opts.Gateway == nil {
		opts.Gateway = payment.NewSimulatedGateway(0.8, nil)
	}
	if opts.Counters == nil {
		opts.Counters = cache.NewMemoryStore()
	}
	if opts.ReceiptPrefix == "" {
		opts.ReceiptPrefix = ident.DefaultReceiptPrefix
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "GHS"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		db:              db,
		gateway:         opts.Gateway,
		events:          opts.Events,
		flags:           opts.Flags,
		tokens:          opts.Tokens,
		counters:        opts.Counters,
		logger:          opts.Logger,
		receiptPrefix:   opts.ReceiptPrefix,
		defaultCurrency: opts.DefaultCurrency,
		now:             opts.Now,
	}
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// storeErr translates storage sentinels into the API taxonomy.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("%s: %w", what, apperrors.ErrNotFound)
	case errors.Is(err, database.ErrStatusConflict):
		return fmt.Errorf("%s: %w", what, apperrors.ErrInvalidTransition)
	case errors.Is(err, database.ErrDuplicate):
		return fmt.Errorf("%s: %w", what, apperrors.ErrConflict)
	default:
		return err
	}
}
