package model

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;type:varchar(256);not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;type:varchar(256);not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(128);not null" json:"-"` // bcrypt
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`

	// Only declared so that AutoMigrate emits the ON DELETE CASCADE foreign keys.
	Favorites     []Favorite           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	SearchHistory []SearchHistoryEntry `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CustomLists   []CustomList         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Profile is the public view of a user.
type Profile struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
