package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"ypg-admin-api/internal/apperrors"
	"ypg-admin-api/internal/database"
	"ypg-admin-api/internal/features"
	"ypg-admin-api/internal/ident"
	"ypg-admin-api/internal/metrics"
	"ypg-admin-api/internal/models"
	"ypg-admin-api/internal/payment"
	"ypg-admin-api/internal/tracing"
	"ypg-admin-api/internal/validation"
)

// SubmitDonation validates and stores a donation. Cash and bank donations
// are verified on the spot when auto verification is on; everything else
// stays pending. On validation failure nothing is written and the returned
// error is an apperrors.ValidationErrors listing every violated field.
func (s *Service) SubmitDonation(ctx context.Context, in models.DonationInput, now time.Time) (d models.Donation, err error) {
	ctx, span := tracing.Start(ctx, "service.SubmitDonation")
	defer func() { tracing.End(span, err) }()

	in = in.Normalize()
	if errs := validation.ValidateDonation(in); !errs.Empty() {
		return models.Donation{}, errs
	}
	in = validation.SanitizeDonation(in)

	now = now.UTC()
	d, err = models.NewDonation(in, "", s.defaultCurrency, now)
	if err != nil {
		return models.Donation{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	if d.PaymentMethod.AutoVerifies() && s.flags.IsEnabled(features.FeatureAutoVerification) {
		d.MarkVerified(models.AutoVerifier, now)
	}

	if err := s.insertWithReceipt(ctx, &d); err != nil {
		return models.Donation{}, err
	}

	span.SetAttributes(
		attribute.String("donation.receipt_code", d.ReceiptCode),
		attribute.String("donation.payment_method", string(d.PaymentMethod)),
		attribute.String("donation.status", string(d.Status)),
	)
	s.logger.Info("donation submitted",
		zap.Int64("donation_id", d.ID),
		zap.String("receipt_code", d.ReceiptCode),
		zap.String("payment_method", string(d.PaymentMethod)),
		zap.String("status", string(d.Status)),
	)
	metrics.DonationsSubmitted.WithLabelValues(string(d.PaymentMethod), string(d.Status)).Inc()

	s.events.PublishDonationSubmitted(ctx, d)
	return d, nil
}

// insertWithReceipt assigns a fresh receipt code and inserts d, drawing a
// new code whenever the store reports a collision.
func (s *Service) insertWithReceipt(ctx context.Context, d *models.Donation) error {
	var err error
	for attempt := 0; attempt < maxReceiptAttempts; attempt++ {
		d.ReceiptCode = ident.NewReceiptCode(s.receiptPrefix)
		err = s.db.InsertDonation(ctx, d)
		if !errors.Is(err, database.ErrDuplicate) {
			return err
		}
		s.logger.Warn("receipt code collision", zap.String("receipt_code", d.ReceiptCode))
	}
	return fmt.Errorf("failed to allocate a unique receipt code: %w", err)
}

// VerifyDonation marks a pending donation verified by verifier. Verifying
// an already verified donation returns it unchanged. Failed and cancelled
// donations cannot be verified.
func (s *Service) VerifyDonation(ctx context.Context, id int64, verifier string) (d models.Donation, err error) {
	ctx, span := tracing.Start(ctx, "service.VerifyDonation", attribute.Int64("donation.id", id))
	defer func() { tracing.End(span, err) }()

	d, err = s.db.GetDonation(ctx, id)
	if err != nil {
		return models.Donation{}, storeErr(err, "donation")
	}

	if d.Status == models.StatusVerified {
		return d, nil
	}
	if !d.Status.CanTransitionTo(models.StatusVerified) {
		return models.Donation{}, fmt.Errorf("cannot verify a %s donation: %w", d.Status, apperrors.ErrInvalidTransition)
	}

	d.MarkVerified(verifier, s.clock())
	if err := s.db.UpdateDonationStatus(ctx, d, models.StatusPending); err != nil {
		if errors.Is(err, database.ErrStatusConflict) {
			// Lost a race with another transition; settle on what won.
			current, getErr := s.db.GetDonation(ctx, id)
			if getErr == nil && current.Status == models.StatusVerified {
				return current, nil
			}
		}
		return models.Donation{}, storeErr(err, "donation")
	}

	s.logger.Info("donation verified",
		zap.Int64("donation_id", d.ID),
		zap.String("verified_by", verifier),
	)
	s.events.PublishDonationVerified(ctx, d)
	return d, nil
}

// CancelDonation moves a pending donation to cancelled.
func (s *Service) CancelDonation(ctx context.Context, id int64) (d models.Donation, err error) {
	ctx, span := tracing.Start(ctx, "service.CancelDonation", attribute.Int64("donation.id", id))
	defer func() { tracing.End(span, err) }()

	d, err = s.db.GetDonation(ctx, id)
	if err != nil {
		return models.Donation{}, storeErr(err, "donation")
	}
	if !d.Status.CanTransitionTo(models.StatusCancelled) {
		return models.Donation{}, fmt.Errorf("cannot cancel a %s donation: %w", d.Status, apperrors.ErrInvalidTransition)
	}

	d.Status = models.StatusCancelled
	d.UpdatedAt = s.clock()
	if err := s.db.UpdateDonationStatus(ctx, d, models.StatusPending); err != nil {
		return models.Donation{}, storeErr(err, "donation")
	}

	s.logger.Info("donation cancelled", zap.Int64("donation_id", d.ID))
	return d, nil
}

// ProcessCardPayment charges a pending card donation through the gateway.
// An approved charge verifies the donation; a declined one fails it and
// returns apperrors.ErrPaymentFailed alongside the failed donation.
func (s *Service) ProcessCardPayment(ctx context.Context, id int64, cardToken string) (d models.Donation, err error) {
	ctx, span := tracing.Start(ctx, "service.ProcessCardPayment", attribute.Int64("donation.id", id))
	defer func() { tracing.End(span, err) }()

	d, err = s.db.GetDonation(ctx, id)
	if err != nil {
		return models.Donation{}, storeErr(err, "donation")
	}
	if d.PaymentMethod != models.MethodCard {
		return models.Donation{}, fmt.Errorf("donation %d is paid by %s: %w", id, d.PaymentMethod, apperrors.ErrInvalidPaymentMethod)
	}
	if d.Status != models.StatusPending {
		return models.Donation{}, fmt.Errorf("cannot charge a %s donation: %w", d.Status, apperrors.ErrInvalidTransition)
	}

	res, chargeErr := s.gateway.Charge(ctx, payment.ChargeRequest{
		Reference: d.ReceiptCode,
		Amount:    d.Amount,
		Currency:  d.Currency,
		CardToken: cardToken,
	})

	switch {
	case errors.Is(chargeErr, payment.ErrDeclined):
		metrics.CardPayments.WithLabelValues(metrics.ResultDeclined).Inc()
		d.Status = models.StatusFailed
		d.UpdatedAt = s.clock()
		if err := s.db.UpdateDonationStatus(ctx, d, models.StatusPending); err != nil {
			return models.Donation{}, storeErr(err, "donation")
		}
		s.logger.Info("card payment declined",
			zap.Int64("donation_id", d.ID),
			zap.String("receipt_code", d.ReceiptCode),
		)
		s.events.PublishPaymentFailed(ctx, d)
		return d, apperrors.ErrPaymentFailed

	case chargeErr != nil:
		metrics.CardPayments.WithLabelValues(metrics.ResultError).Inc()
		return models.Donation{}, fmt.Errorf("card gateway: %w", chargeErr)
	}

	metrics.CardPayments.WithLabelValues(metrics.ResultApproved).Inc()
	d.MarkVerified(models.CardGatewayVerifier, s.clock())
	d.TransactionID = res.TransactionID
	if err := s.db.UpdateDonationStatus(ctx, d, models.StatusPending); err != nil {
		s.logger.Error("charge approved but donation state changed",
			zap.Int64("donation_id", d.ID),
			zap.String("transaction_id", res.TransactionID),
			zap.Error(err),
		)
		return models.Donation{}, storeErr(err, "donation")
	}

	s.logger.Info("card payment approved",
		zap.Int64("donation_id", d.ID),
		zap.String("transaction_id", d.TransactionID),
	)
	s.events.PublishDonationVerified(ctx, d)
	return d, nil
}

// ListDonations returns the donations matching filter with their analytics.
func (s *Service) ListDonations(ctx context.Context, filter models.DonationFilter) ([]models.Donation, models.DonationAnalytics, error) {
	ctx, span := tracing.Start(ctx, "service.ListDonations")
	defer span.End()

	errs := validation.ValidateDonationFilter(filter)
	if !errs.Empty() {
		return nil, models.DonationAnalytics{}, errs
	}

	donations, err := s.db.ListDonations(ctx, filter)
	if err != nil {
		return nil, models.DonationAnalytics{}, err
	}
	return donations, models.SummarizeDonations(donations), nil
}

// DeleteDonation removes a donation permanently.
func (s *Service) DeleteDonation(ctx context.Context, id int64) error {
	if err := s.db.DeleteDonation(ctx, id); err != nil {
		return storeErr(err, "donation")
	}
	s.logger.Info("donation deleted", zap.Int64("donation_id", id))
	return nil
}
