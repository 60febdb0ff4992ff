package model

// Tables lists every model in migration order.
func Tables() []interface{} {
	return []interface{}{
		&User{},
		&Favorite{},
		&SearchHistoryEntry{},
		&CustomList{},
		&CustomListPokemon{},
	}
}
