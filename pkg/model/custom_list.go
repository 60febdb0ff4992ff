package model

import "time"

type CustomList struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Name      string    `gorm:"type:varchar(256);not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`

	Pokemons []CustomListPokemon `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE" json:"pokemons"`
}

func (CustomList) TableName() string {
	return "custom_lists"
}

func (l *CustomList) OwnerID() uint { return l.UserID }

type CustomListPokemon struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ListID    uint `gorm:"not null;uniqueIndex:list_pokemon_idx,priority:1" json:"listId"`
	PokemonID int  `gorm:"not null;uniqueIndex:list_pokemon_idx,priority:2" json:"pokemonId"`
}

func (CustomListPokemon) TableName() string {
	return "custom_list_pokemons"
}
