package repo

import (
	"context"
	"time"

	"github.com/pokedex-companion/pokedexservice/pkg/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HistoryRepository interface {
	// UpsertSearchTerm inserts (user, term) or, on conflict with the unique
	// pair, moves created_at to at. It returns the row after the write.
	UpsertSearchTerm(ctx context.Context, userID uint, term string, at time.Time) (*model.SearchHistoryEntry, error)
	ListRecent(ctx context.Context, userID uint, limit int) ([]*model.SearchHistoryEntry, error)
	// DeleteAllExcept removes the user's entries whose id is not in keep and
	// whose created_at is not after cutoff. Rows written after the keep set was
	// read are newer than cutoff and survive.
	DeleteAllExcept(ctx context.Context, userID uint, keep []uint, cutoff time.Time) (int64, error)
	GetEntry(ctx context.Context, id uint) (*model.SearchHistoryEntry, error)
	DeleteEntry(ctx context.Context, id uint) error
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) UpsertSearchTerm(ctx context.Context, userID uint, term string, at time.Time) (*model.SearchHistoryEntry, error) {
	db := r.db.WithContext(ctx)
	entry := &model.SearchHistoryEntry{UserID: userID, SearchTerm: term, CreatedAt: at}

	// INSERT .. ON CONFLICT (user_id, search_term) DO UPDATE on postgres/sqlite,
	// INSERT .. ON DUPLICATE KEY UPDATE on mysql
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "search_term"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"created_at": at}),
	}).Create(entry).Error
	if err != nil {
		return nil, translate(err)
	}

	// mysql has no RETURNING and LAST_INSERT_ID is meaningless after an update
	var out model.SearchHistoryEntry
	if err := db.Where("user_id = ? AND search_term = ?", userID, term).First(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *historyRepository) ListRecent(ctx context.Context, userID uint, limit int) ([]*model.SearchHistoryEntry, error) {
	entries := make([]*model.SearchHistoryEntry, 0, limit)
	err := r.recent(ctx, userID, limit).Find(&entries).Error
	return entries, translate(err)
}

func (r *historyRepository) recent(ctx context.Context, userID uint, limit int) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
}

func (r *historyRepository) DeleteAllExcept(ctx context.Context, userID uint, keep []uint, cutoff time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Where("user_id = ? AND created_at <= ?", userID, cutoff)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	res := q.Delete(&model.SearchHistoryEntry{})
	return res.RowsAffected, translate(res.Error)
}

func (r *historyRepository) GetEntry(ctx context.Context, id uint) (*model.SearchHistoryEntry, error) {
	var entry model.SearchHistoryEntry
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

// DeleteEntry is a no-op for a missing id.
func (r *historyRepository) DeleteEntry(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.SearchHistoryEntry{}).Error)
}
