package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"giveaway-draw-bot/internal/features/giveaway/models"
	"giveaway-draw-bot/internal/features/giveaway/repository"

	"github.com/redis/go-redis/v9"
)

const keyPrefixHistory = "giveaways:history:"

type redisRepository struct {
	client *redis.Client
}

// NewHistoryRepository stores each channel's history as a redis list, one JSON
// record per element, appended in completion order.
func NewHistoryRepository(client *redis.Client) repository.HistoryRepository {
	return &redisRepository{client: client}
}

func makeHistoryKey(channel string) string {
	return keyPrefixHistory + channel
}

func (r *redisRepository) Append(ctx context.Context, record *models.HistoryRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}
	if err := r.client.RPush(ctx, makeHistoryKey(record.Channel), data).Err(); err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}
	return nil
}

func (r *redisRepository) ListByChannel(ctx context.Context, channel string, limit, offset int) ([]models.HistoryRecord, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	key := makeHistoryKey(channel)

	total, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get history length: %w", err)
	}

	// The list is oldest-first; the requested page is a window counted from
	// the newest end.
	stop := total - int64(offset) - 1
	if stop < 0 {
		return []models.HistoryRecord{}, total, nil
	}
	start := stop - int64(limit) + 1
	if start < 0 {
		start = 0
	}

	raw, err := r.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read history range: %w", err)
	}

	// LRange returns oldest-first; reverse into newest-first.
	records := make([]models.HistoryRecord, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var rec models.HistoryRecord
		if err := json.Unmarshal([]byte(raw[i]), &rec); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal history record: %w", err)
		}
		records = append(records, rec)
	}
	return records, total, nil
}
