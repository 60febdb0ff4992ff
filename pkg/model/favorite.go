package model

import "time"

type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:favorite_idx,priority:1" json:"userId"`
	PokemonID int       `gorm:"not null;uniqueIndex:favorite_idx,priority:2" json:"pokemonId"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (Favorite) TableName() string {
	return "favorites"
}

func (f *Favorite) OwnerID() uint { return f.UserID }
