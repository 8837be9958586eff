package service

import (
	"context"
	"strings"

	"giveaway-draw-bot/internal/common/logger"
	"giveaway-draw-bot/internal/features/giveaway/models"
)

// NormalizeUsername lowercases a username and strips a leading @.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(username, "@"))
}

// ExcludedUsernamesFromList builds the exclusion set from a configured list,
// normalizing each entry and dropping blanks.
func ExcludedUsernamesFromList(usernames []string) map[string]struct{} {
	set := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		if n := NormalizeUsername(strings.TrimSpace(u)); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// FilterEligible removes bots, blocklisted usernames, channel administrators
// and the privileged account itself from the roster, preserving roster order.
//
// The admin and identity lookups are best-effort: a failing admin fetch is
// treated as an empty admin set and a failing identity fetch skips the
// self-exclusion check, so a proxy hiccup on either never blocks a draw.
func (s *GiveawayService) FilterEligible(ctx context.Context, channel string, roster []models.Candidate, excluded map[string]struct{}) []models.Candidate {
	adminIDs := make(map[string]struct{})
	if admins, err := s.proxy.FetchAdmins(ctx, channel); err != nil {
		logger.Warn().Err(err).Str("channel", channel).Msg("admin list unavailable, treating as empty")
	} else {
		for _, a := range admins {
			adminIDs[a.UserID] = struct{}{}
		}
	}

	selfID := ""
	if me, err := s.proxy.Me(ctx); err != nil {
		logger.Warn().Err(err).Msg("proxy identity unavailable, skipping self exclusion")
	} else if me != nil {
		selfID = me.UserID
	}

	eligible := make([]models.Candidate, 0, len(roster))
	for _, m := range roster {
		if m.IsBot {
			continue
		}
		if _, ok := excluded[NormalizeUsername(m.Username)]; ok {
			continue
		}
		if _, ok := adminIDs[m.UserID]; ok {
			continue
		}
		if selfID != "" && m.UserID == selfID {
			continue
		}
		eligible = append(eligible, m)
	}
	return eligible
}
