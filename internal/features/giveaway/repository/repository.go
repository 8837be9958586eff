package repository

import (
	"context"

	"giveaway-draw-bot/internal/features/giveaway/models"
)

// HistoryRepository is the append-only log of completed giveaways. Records are
// stored oldest-first per channel; reads return the newest records first, with
// offset skipping from the newest end.
type HistoryRepository interface {
	Append(ctx context.Context, record *models.HistoryRecord) error
	// ListByChannel returns up to limit records for the channel, newest
	// first, skipping offset records, plus the channel's total record count.
	ListByChannel(ctx context.Context, channel string, limit, offset int) ([]models.HistoryRecord, int64, error)
}
