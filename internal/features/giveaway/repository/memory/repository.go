package memory

import (
	"context"
	"sync"

	"giveaway-draw-bot/internal/features/giveaway/models"
	"giveaway-draw-bot/internal/features/giveaway/repository"
)

type memoryRepository struct {
	mu      sync.RWMutex
	records map[string][]models.HistoryRecord
}

// NewHistoryRepository keeps history in process memory. Used in tests and in
// deployments without redis, where history does not survive a restart.
func NewHistoryRepository() repository.HistoryRepository {
	return &memoryRepository{records: make(map[string][]models.HistoryRecord)}
}

func (r *memoryRepository) Append(_ context.Context, record *models.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Channel] = append(r.records[record.Channel], *record)
	return nil
}

func (r *memoryRepository) ListByChannel(_ context.Context, channel string, limit, offset int) ([]models.HistoryRecord, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.records[channel]
	total := int64(len(all))

	// Page counted from the newest end, returned newest-first.
	end := len(all) - offset
	if end <= 0 {
		return []models.HistoryRecord{}, total, nil
	}
	start := end - limit
	if start < 0 {
		start = 0
	}

	page := make([]models.HistoryRecord, 0, end-start)
	for i := end - 1; i >= start; i-- {
		page = append(page, all[i])
	}
	return page, total, nil
}
