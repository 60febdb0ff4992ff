package model

import "time"

// HistoryLimit is the number of search terms kept per user once trimming has run.
const HistoryLimit = 25

type SearchHistoryEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:search_idx,priority:1;index:idx_history_user_created,priority:1" json:"userId"`
	SearchTerm string    `gorm:"type:varchar(256);not null;uniqueIndex:search_idx,priority:2" json:"searchTerm"`
	CreatedAt  time.Time `gorm:"not null;index:idx_history_user_created,priority:2" json:"createdAt"`
}

func (SearchHistoryEntry) TableName() string {
	return "search_history"
}

func (e *SearchHistoryEntry) OwnerID() uint { return e.UserID }
