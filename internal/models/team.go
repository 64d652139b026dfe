package models

import "time"

// TeamMember is an executive listed in the team directory.
type TeamMember struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Position      string    `json:"position"`
	Congregation  string    `json:"congregation"`
	Quote         string    `json:"quote"`
	IsActive      bool      `json:"is_active"`
	IsCouncil     bool      `json:"is_council"`
	PositionOrder int       `json:"position_order"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TeamMemberInput is the body of a create or update request.
type TeamMemberInput struct {
	Name         string `json:"name"`
	Position     string `json:"position"`
	Congregation string `json:"congregation"`
	Quote        string `json:"quote"`
	IsActive     *bool  `json:"is_active"`
	IsCouncil    *bool  `json:"is_council"`
}

// Apply copies the non-empty fields of in onto m.
func (in TeamMemberInput) Apply(m *TeamMember, now time.Time) {
	if in.Name != "" {
		m.Name = in.Name
	}
	if in.Position != "" {
		m.Position = in.Position
	}
	if in.Congregation != "" {
		m.Congregation = in.Congregation
	}
	if in.Quote != "" {
		m.Quote = in.Quote
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	if in.IsCouncil != nil {
		m.IsCouncil = *in.IsCouncil
	}
	m.UpdatedAt = now
}

// TeamFilter narrows the directory listing.
type TeamFilter struct {
	IncludeInactive bool
	CouncilOnly     bool
}
