package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"giveaway-draw-bot/internal/common/ephemeral"
	"giveaway-draw-bot/internal/common/logger"
	"giveaway-draw-bot/internal/common/scheduler"
	"giveaway-draw-bot/internal/features/giveaway/models"
	"giveaway-draw-bot/internal/features/giveaway/registry"
	"giveaway-draw-bot/internal/features/giveaway/repository"
	"giveaway-draw-bot/internal/utils/random"

	"github.com/google/uuid"
)

const (
	rosterPageSize = 500
	rosterHardMax  = 100000

	entryButtonLabel  = "✅ Enter"
	closedButtonLabel = "🔒 Closed"
)

// GiveawayService orchestrates the giveaway lifecycle: direct draws, post
// based giveaways with scheduled or manual finalization, and history.
type GiveawayService struct {
	proxy    MemberProxy
	registry *registry.Registry
	history  repository.HistoryRepository
	tokens   *ephemeral.Store
	sched    *scheduler.Scheduler

	// rand is the randomness source for winner selection; production wiring
	// passes crypto/rand.Reader, tests inject a seeded one.
	rand io.Reader

	// botUsername builds the entry deep link on announcement buttons.
	botUsername string
}

func NewGiveawayService(
	proxy MemberProxy,
	reg *registry.Registry,
	history repository.HistoryRepository,
	tokens *ephemeral.Store,
	sched *scheduler.Scheduler,
	rand io.Reader,
	botUsername string,
) *GiveawayService {
	return &GiveawayService{
		proxy:       proxy,
		registry:    reg,
		history:     history,
		tokens:      tokens,
		sched:       sched,
		rand:        rand,
		botUsername: botUsername,
	}
}

// DirectDrawResult is the outcome of a one-shot draw. Token references the
// winner id list for the follow-up "message the winners" action.
type DirectDrawResult struct {
	Winners []models.Candidate
	Token   string
}

// RunDirectDraw collects the channel roster, filters it and samples winners.
// It is a synchronous one-shot action with no registry state.
func (s *GiveawayService) RunDirectDraw(ctx context.Context, channel string, winnersCount int, excluded map[string]struct{}) (*DirectDrawResult, error) {
	members, err := s.proxy.FetchAllMembers(ctx, channel, rosterPageSize, rosterHardMax)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members of %s: %w", channel, err)
	}

	eligible := s.FilterEligible(ctx, channel, members, excluded)
	if len(eligible) == 0 {
		return nil, ErrEmptyPool
	}

	winners, err := random.PickUnique(s.rand, eligible, winnersCount)
	if err != nil {
		return nil, fmt.Errorf("failed to pick winners: %w", err)
	}

	token, err := s.tokens.Put(winnerIDs(winners), ephemeral.DefaultTTL)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("channel", channel).
		Int("eligible", len(eligible)).
		Int("winners", len(winners)).
		Msg("direct draw completed")
	return &DirectDrawResult{Winners: winners, Token: token}, nil
}

// CreateInput describes a post-based giveaway. A zero FinalizeAt means the
// giveaway waits for a manual finalize; a past FinalizeAt finalizes promptly.
type CreateInput struct {
	Channel      string
	Text         string
	WinnersCount int
	CreatedBy    int64
	FinalizeAt   time.Time
}

// CreatePostGiveaway publishes the announcement, registers the giveaway and
// arms the deferred finalize when one is scheduled. Publishing is the hard
// dependency: on failure nothing is registered.
func (s *GiveawayService) CreatePostGiveaway(ctx context.Context, in CreateInput) (string, error) {
	if in.WinnersCount <= 0 {
		return "", errors.New("winners_count must be > 0")
	}

	id := uuid.NewString()
	text := in.Text + "\n\nTap the button below to enter:"
	msgID, err := s.proxy.PostMessage(ctx, in.Channel, text, entryButtonLabel, s.entryLink(id))
	if err != nil {
		return "", &PublishError{Channel: in.Channel, Err: err}
	}

	g := &models.Giveaway{
		ID:           id,
		Channel:      in.Channel,
		MessageID:    msgID,
		WinnersCount: in.WinnersCount,
		CreatedBy:    in.CreatedBy,
		Text:         in.Text,
		ScheduledAt:  in.FinalizeAt,
	}
	s.registry.Create(g)

	if !in.FinalizeAt.IsZero() {
		s.sched.At(in.FinalizeAt, func(ctx context.Context) {
			if _, err := s.Finalize(ctx, id); err != nil && !errors.Is(err, ErrAlreadyFinished) {
				logger.Error().Err(err).Str("giveaway_id", id).Msg("scheduled finalize failed")
			}
		})
	}

	logger.Info().
		Str("giveaway_id", id).
		Str("channel", in.Channel).
		Int("winners_count", in.WinnersCount).
		Time("finalize_at", in.FinalizeAt).
		Msg("giveaway created")
	return id, nil
}

// RegisterEntry records (or overwrites) the candidate's entry and best-effort
// refreshes the announcement's entry counter.
func (s *GiveawayService) RegisterEntry(ctx context.Context, id string, c models.Candidate) (int, error) {
	count, err := s.registry.RecordEntry(id, c)
	if err != nil {
		return 0, ErrNotFound
	}

	if g, ok := s.registry.Get(id); ok {
		label := fmt.Sprintf("%s (%d)", entryButtonLabel, count)
		if err := s.proxy.EditButton(ctx, g.Channel, g.MessageID, label, s.entryLink(id)); err != nil {
			logger.Warn().Err(err).Str("giveaway_id", id).Msg("failed to update entry counter")
		}
	}
	return count, nil
}

// FinalizeResult is the outcome of a finalize: the winners in draw order, the
// final entry count and a token for messaging the winners.
type FinalizeResult struct {
	Winners    []models.Candidate
	EntryCount int
	Token      string
}

// Finalize draws the winners and retires the giveaway. It is safe to call from
// both the operator and the scheduled trigger: removal from the registry makes
// the draw happen exactly once, every later call reports ErrAlreadyFinished.
func (s *GiveawayService) Finalize(ctx context.Context, id string) (*FinalizeResult, error) {
	g, ok := s.registry.Remove(id)
	if !ok {
		return nil, ErrAlreadyFinished
	}

	pool := make([]models.Candidate, 0, len(g.Entries))
	for _, c := range g.Entries {
		pool = append(pool, c)
	}

	winners, err := random.PickUnique(s.rand, pool, g.WinnersCount)
	if err != nil {
		return nil, fmt.Errorf("failed to pick winners: %w", err)
	}

	// Results post and announcement lock-down are cosmetic: failures are
	// logged and must not stop history recording.
	if err := s.publishResults(ctx, g, winners); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", id).Msg("failed to publish results")
	}
	closed := fmt.Sprintf("%s (%d)", closedButtonLabel, len(g.Entries))
	if err := s.proxy.EditButton(ctx, g.Channel, g.MessageID, closed, ""); err != nil {
		logger.Warn().Err(err).Str("giveaway_id", id).Msg("failed to lock announcement")
	}

	record := &models.HistoryRecord{
		Channel:      g.Channel,
		MessageID:    g.MessageID,
		WinnersCount: g.WinnersCount,
		Winners:      winners,
		Text:         g.Text,
		CompletedAt:  time.Now().UTC(),
	}
	if err := s.history.Append(ctx, record); err != nil {
		logger.Error().Err(err).Str("giveaway_id", id).Msg("failed to append history record")
	}

	token, err := s.tokens.Put(winnerIDs(winners), ephemeral.DefaultTTL)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("giveaway_id", id).
		Str("channel", g.Channel).
		Int("entries", len(g.Entries)).
		Int("winners", len(winners)).
		Msg("giveaway finalized")
	return &FinalizeResult{Winners: winners, EntryCount: len(g.Entries), Token: token}, nil
}

// MessageWinners resolves a winner-list token and bulk-delivers text through
// the privileged account. Delivery is best-effort; partial failures come back
// as counts.
func (s *GiveawayService) MessageWinners(ctx context.Context, token, text string) (sent, total int, err error) {
	v, ok := s.tokens.Get(token)
	if !ok {
		return 0, 0, ErrStaleToken
	}
	ids, ok := v.([]string)
	if !ok || len(ids) == 0 {
		return 0, 0, ErrStaleToken
	}

	result, err := s.proxy.SendMessages(ctx, ids, text)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to message winners: %w", err)
	}
	return result.Sent, result.Total, nil
}

// ListEntries returns the current entries of an active giveaway.
func (s *GiveawayService) ListEntries(ctx context.Context, id string) ([]models.Candidate, error) {
	entries, ok := s.registry.Snapshot(id)
	if !ok {
		return nil, ErrNotFound
	}
	return entries, nil
}

// FetchRoster loads the full member list of a channel through the
// privileged client.
func (s *GiveawayService) FetchRoster(ctx context.Context, channel string) ([]models.Candidate, error) {
	return s.proxy.FetchAllMembers(ctx, channel, rosterPageSize, rosterHardMax)
}

// ProxyIsMember reports whether the privileged client already sits in the
// target group.
func (s *GiveawayService) ProxyIsMember(ctx context.Context, target string) (bool, error) {
	return s.proxy.IsMember(ctx, target)
}

// ProxyJoin makes the privileged client join the target group.
func (s *GiveawayService) ProxyJoin(ctx context.Context, target string) error {
	return s.proxy.JoinTarget(ctx, target)
}

// QueryHistory returns the channel's newest completed giveaways first.
func (s *GiveawayService) QueryHistory(ctx context.Context, channel string, limit, offset int) ([]models.HistoryRecord, int64, error) {
	return s.history.ListByChannel(ctx, channel, limit, offset)
}

func (s *GiveawayService) publishResults(ctx context.Context, g *models.Giveaway, winners []models.Candidate) error {
	if len(winners) == 0 {
		_, err := s.proxy.PostMessage(ctx, g.Channel, "Giveaway finished with no eligible entries.", "", "")
		return err
	}
	text := "🎉 Giveaway results:\n"
	for i, w := range winners {
		name := w.Username
		if name == "" {
			name = "id:" + w.UserID
		} else {
			name = "@" + name
		}
		text += fmt.Sprintf("%d. %s\n", i+1, name)
	}
	_, err := s.proxy.PostMessage(ctx, g.Channel, text, "", "")
	return err
}

func (s *GiveawayService) entryLink(id string) string {
	if s.botUsername == "" {
		return ""
	}
	return "https://t.me/" + s.botUsername + "?start=gw_" + id
}

func winnerIDs(winners []models.Candidate) []string {
	ids := make([]string, len(winners))
	for i, w := range winners {
		ids[i] = w.UserID
	}
	return ids
}
