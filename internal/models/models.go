package models

import "time"

// ErrorResponse is the envelope returned for every failed request.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// MessageResponse carries a confirmation message only.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubmitDonationResponse is returned by POST /api/donations/submit/.
type SubmitDonationResponse struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	DonationID  int64          `json:"donation_id"`
	ReceiptCode string         `json:"receipt_code"`
	Status      DonationStatus `json:"status"`
}

// DonationListResponse is returned by GET /api/donations/.
type DonationListResponse struct {
	Success   bool              `json:"success"`
	Donations []Donation        `json:"donations"`
	Analytics DonationAnalytics `json:"analytics"`
}

// DonationResponse wraps a single donation.
type DonationResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message,omitempty"`
	Donation Donation `json:"donation"`
}

// ProcessPaymentRequest is the body of POST /api/donations/process-payment/.
type ProcessPaymentRequest struct {
	DonationID int64  `json:"donation_id"`
	CardToken  string `json:"card_token"`
}

// ProcessPaymentResponse is returned after a successful simulated charge.
type ProcessPaymentResponse struct {
	Success       bool     `json:"success"`
	TransactionID string   `json:"transaction_id"`
	Donation      Donation `json:"donation"`
}

// PaymentDeclinedResponse reports a declined charge with the failed donation.
type PaymentDeclinedResponse struct {
	Success  bool     `json:"success"`
	Error    string   `json:"error"`
	Donation Donation `json:"donation"`
}

// BlogListResponse is returned by GET /api/blog/.
type BlogListResponse struct {
	Success bool       `json:"success"`
	Blog    []BlogPost `json:"blog"`
}

// BlogPostResponse wraps a single post.
type BlogPostResponse struct {
	Success bool     `json:"success"`
	Post    BlogPost `json:"post"`
}

// CreateBlogPostResponse is returned by POST /api/blog/create/.
type CreateBlogPostResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	PostID  int64  `json:"post_id"`
	Slug    string `json:"slug"`
}

// TeamListResponse is returned by GET /api/team/.
type TeamListResponse struct {
	Success bool         `json:"success"`
	Team    []TeamMember `json:"team"`
}

// TeamMemberResponse wraps a single member.
type TeamMemberResponse struct {
	Success bool       `json:"success"`
	Member  TeamMember `json:"member"`
}

// LoginResponse is returned after a successful supervisor login.
type LoginResponse struct {
	Success    bool       `json:"success"`
	Token      string     `json:"token"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Supervisor Supervisor `json:"supervisor"`
}

// SupervisorResponse wraps the authenticated supervisor.
type SupervisorResponse struct {
	Success    bool       `json:"success"`
	Supervisor Supervisor `json:"supervisor"`
}
