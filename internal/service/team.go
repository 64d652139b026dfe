package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"ypg-admin-api/internal/models"
	"ypg-admin-api/internal/validation"
)

// unrankedPosition sorts titles outside the executive order last.
const unrankedPosition = 999

var positionRanks = map[string]int{
	"president":                 1,
	"president_rep":             2,
	"president_representative":  2,
	"presidents_representative": 2,
	"secretary":                 3,
	"assistant_secretary":       4,
	"financial_secretary":       5,
	"treasurer":                 6,
	"organizing_secretary":      7,
	"organising_secretary":      7,
	"evangelism_secretary":      8,
	"welfare_secretary":         9,
}

// PositionOrder ranks an executive title for the team directory. Matching
// ignores case, apostrophes and punctuation, so "President's Rep" and
// "president_rep" rank the same.
func PositionOrder(title string) int {
	key := strings.ToLower(strings.TrimSpace(title))
	key = strings.NewReplacer("'s", "", "’s", "").Replace(key)

	var b strings.Builder
	underscore := false
	for _, r := range key {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if underscore && b.Len() > 0 {
				b.WriteByte('_')
			}
			underscore = false
			b.WriteRune(r)
			continue
		}
		underscore = true
	}

	if rank, ok := positionRanks[b.String()]; ok {
		return rank
	}
	return unrankedPosition
}

func sanitizeTeamInput(in models.TeamMemberInput) models.TeamMemberInput {
	in.Name = validation.SanitizeString(in.Name)
	in.Position = validation.SanitizeString(in.Position)
	in.Congregation = validation.SanitizeString(in.Congregation)
	in.Quote = validation.SanitizeString(in.Quote)
	return in
}

// CreateTeamMember adds a member to the directory. New members are active
// unless the input says otherwise.
func (s *Service) CreateTeamMember(ctx context.Context, in models.TeamMemberInput) (models.TeamMember, error) {
	in = sanitizeTeamInput(in)
	if errs := validation.ValidateTeamMember(in, true); !errs.Empty() {
		return models.TeamMember{}, errs
	}

	now := s.clock()
	m := models.TeamMember{IsActive: true, CreatedAt: now}
	in.Apply(&m, now)
	m.PositionOrder = PositionOrder(m.Position)

	if err := s.db.InsertTeamMember(ctx, &m); err != nil {
		return models.TeamMember{}, err
	}

	s.logger.Info("team member created",
		zap.Int64("member_id", m.ID),
		zap.String("position", m.Position),
		zap.Int("position_order", m.PositionOrder),
	)
	return m, nil
}

// ListTeamMembers returns the directory in executive order.
func (s *Service) ListTeamMembers(ctx context.Context, filter models.TeamFilter) ([]models.TeamMember, error) {
	return s.db.ListTeamMembers(ctx, filter)
}

// UpdateTeamMember edits a member and re-ranks it when the title changes.
func (s *Service) UpdateTeamMember(ctx context.Context, id int64, in models.TeamMemberInput) (models.TeamMember, error) {
	in = sanitizeTeamInput(in)
	if errs := validation.ValidateTeamMember(in, false); !errs.Empty() {
		return models.TeamMember{}, errs
	}

	m, err := s.db.GetTeamMember(ctx, id)
	if err != nil {
		return models.TeamMember{}, storeErr(err, "team member")
	}

	in.Apply(&m, s.clock())
	m.PositionOrder = PositionOrder(m.Position)

	if err := s.db.UpdateTeamMember(ctx, m); err != nil {
		return models.TeamMember{}, storeErr(err, "team member")
	}

	s.logger.Info("team member updated", zap.Int64("member_id", m.ID))
	return m, nil
}

// DeleteTeamMember removes a member permanently.
func (s *Service) DeleteTeamMember(ctx context.Context, id int64) error {
	if err := s.db.DeleteTeamMember(ctx, id); err != nil {
		return storeErr(err, "team member")
	}
	s.logger.Info("team member deleted", zap.Int64("member_id", id))
	return nil
}
