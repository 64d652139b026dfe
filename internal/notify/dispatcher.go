// Package notify sends donation emails to donors and administrators.
// Delivery is best effort: failures are logged and never reach the caller.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"go.uber.org/zap"
	"ypg-admin-api/internal/events"
	"ypg-admin-api/internal/features"
	"ypg-admin-api/internal/models"
)

var templates = template.Must(template.New("notify").Parse(`
{{define "donor"}}Dear {{.DonorName}},

Thank you for your donation to {{.OrgName}}.

Receipt code:   {{.ReceiptCode}}
Amount:         {{.Amount}} {{.Currency}}
Purpose:        {{.Purpose}}
Payment method: {{.Method}}
Status:         {{.Status}}
Date:           {{.Timestamp}}
{{if eq .Status "pending"}}
We will confirm your donation once the payment has been received.
{{end}}
God bless you.
{{end}}

{{define "admin"}}A new donation has been submitted.

Donor:          {{.DonorName}}
Email:          {{.Email}}
Phone:          {{.Phone}}
Receipt code:   {{.ReceiptCode}}
Amount:         {{.Amount}} {{.Currency}}
Purpose:        {{.Purpose}}
Payment method: {{.Method}}
Status:         {{.Status}}
Date:           {{.Timestamp}}
{{with .Message}}
Message:
{{.}}
{{end}}{{end}}

{{define "verified"}}Dear {{.DonorName}},

Your donation {{.ReceiptCode}} of {{.Amount}} {{.Currency}} towards {{.Purpose}}
has been verified by {{.VerifiedBy}} on {{.Timestamp}}.

Thank you for supporting {{.OrgName}}.
{{end}}
`))

// Dispatcher renders and sends donation notifications.
type Dispatcher struct {
	mailer     Mailer
	adminEmail string
	orgName    string
	flags      *features.Manager
	logger     *zap.Logger
}

// Options configure a Dispatcher.
type Options struct {
	AdminEmail string
	OrgName    string
	Flags      *features.Manager
	Logger     *zap.Logger
}

// NewDispatcher returns a dispatcher sending through mailer. A nil mailer
// makes every notification a no-op.
func NewDispatcher(mailer Mailer, opts Options) *Dispatcher {
	if mailer == nil {
		mailer = NopMailer{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Dispatcher{
		mailer:     mailer,
		adminEmail: opts.AdminEmail,
		orgName:    opts.OrgName,
		flags:      opts.Flags,
		logger:     opts.Logger,
	}
}

type donationView struct {
	OrgName     string
	DonorName   string
	Email       string
	Phone       string
	ReceiptCode string
	Amount      string
	Currency    string
	Purpose     string
	Method      string
	Status      string
	Message     string
	VerifiedBy  string
	Timestamp   string
}

func (d *Dispatcher) view(donation models.Donation, at time.Time) donationView {
	v := donationView{
		OrgName:     d.orgName,
		DonorName:   donation.DonorName,
		Email:       donation.Email,
		Phone:       donation.Phone,
		ReceiptCode: donation.ReceiptCode,
		Amount:      donation.Amount.StringFixed(2),
		Currency:    donation.Currency,
		Purpose:     donation.Purpose.Label(),
		Method:      donation.PaymentMethod.Label(),
		Status:      string(donation.Status),
		Message:     donation.Message,
		Timestamp:   at.UTC().Format("2006-01-02 15:04 MST"),
	}
	if donation.VerifiedBy != nil {
		v.VerifiedBy = *donation.VerifiedBy
	}
	return v
}

// NotifyDonor sends the submission receipt to the donor. Donations without
// an email address are skipped.
func (d *Dispatcher) NotifyDonor(ctx context.Context, donation models.Donation) {
	if donation.Email == "" {
		return
	}
	d.send(ctx, "donor", donation.Email,
		fmt.Sprintf("Donation received - %s", donation.ReceiptCode),
		d.view(donation, donation.CreatedAt))
}

// NotifyAdmin tells the administrator about a new donation.
func (d *Dispatcher) NotifyAdmin(ctx context.Context, donation models.Donation) {
	if d.adminEmail == "" {
		return
	}
	d.send(ctx, "admin", d.adminEmail,
		fmt.Sprintf("New %s donation - %s %s", donation.PaymentMethod.Label(), donation.Amount.StringFixed(2), donation.Currency),
		d.view(donation, donation.CreatedAt))
}

// NotifyVerified tells the donor that a donation has been confirmed.
func (d *Dispatcher) NotifyVerified(ctx context.Context, donation models.Donation) {
	if donation.Email == "" {
		return
	}
	at := donation.UpdatedAt
	if donation.VerifiedAt != nil {
		at = *donation.VerifiedAt
	}
	d.send(ctx, "verified", donation.Email,
		fmt.Sprintf("Donation verified - %s", donation.ReceiptCode),
		d.view(donation, at))
}

func (d *Dispatcher) send(ctx context.Context, tmpl, to, subject string, data donationView) {
	if !d.flags.IsEnabled(features.FeatureEmailNotifications) {
		return
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		d.logger.Error("failed to render notification",
			zap.String("template", tmpl),
			zap.String("receipt_code", data.ReceiptCode),
			zap.Error(err),
		)
		return
	}

	if err := d.mailer.Send(ctx, Message{To: to, Subject: subject, Body: body.String()}); err != nil {
		d.logger.Warn("failed to send notification",
			zap.String("template", tmpl),
			zap.String("receipt_code", data.ReceiptCode),
			zap.Error(err),
		)
		return
	}

	d.logger.Debug("notification sent",
		zap.String("template", tmpl),
		zap.String("receipt_code", data.ReceiptCode),
	)
}

// Subscribe wires the dispatcher to donation events.
func (d *Dispatcher) Subscribe(m *events.Manager) {
	m.Subscribe(events.EventDonationSubmitted, func(ctx context.Context, e events.Event) error {
		data, ok := e.Data.(events.DonationData)
		if !ok {
			return fmt.Errorf("unexpected payload %T", e.Data)
		}
		d.NotifyDonor(ctx, data.Donation)
		d.NotifyAdmin(ctx, data.Donation)
		return nil
	})
	m.Subscribe(events.EventDonationVerified, func(ctx context.Context, e events.Event) error {
		data, ok := e.Data.(events.DonationData)
		if !ok {
			return fmt.Errorf("unexpected payload %T", e.Data)
		}
		d.NotifyVerified(ctx, data.Donation)
		return nil
	})
}
