package service

import (
	"context"

	"giveaway-draw-bot/internal/features/giveaway/models"
	"giveaway-draw-bot/internal/platform/mproxy"
)

// MemberProxy is the privileged-client collaborator: roster enumeration,
// announcement publishing and message delivery all go through it.
type MemberProxy interface {
	Me(ctx context.Context) (*models.Candidate, error)
	FetchMembers(ctx context.Context, channel string, limit, offset int) ([]models.Candidate, error)
	FetchAllMembers(ctx context.Context, channel string, pageSize, hardMax int) ([]models.Candidate, error)
	FetchAdmins(ctx context.Context, channel string) ([]models.Candidate, error)
	IsMember(ctx context.Context, target string) (bool, error)
	JoinTarget(ctx context.Context, target string) error
	SendMessages(ctx context.Context, userIDs []string, text string) (*mproxy.SendResult, error)
	PostMessage(ctx context.Context, channel, text, buttonText, buttonURL string) (int64, error)
	EditButton(ctx context.Context, channel string, messageID int64, buttonText, buttonURL string) error
}
