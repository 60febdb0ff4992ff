package repo

import (
	"context"
	"time"

	"github.com/pokedex-companion/pokedexservice/pkg/model"

	"gorm.io/gorm"
)

type ListRepository interface {
	CreateList(ctx context.Context, list *model.CustomList) error
	ListListsByUser(ctx context.Context, userID uint) ([]*model.CustomList, error)
	GetList(ctx context.Context, id uint) (*model.CustomList, error)
	GetListWithPokemons(ctx context.Context, id uint) (*model.CustomList, error)
	RenameList(ctx context.Context, id uint, name string, at time.Time) (*model.CustomList, error)
	DeleteList(ctx context.Context, id uint) error
	// AddPokemon returns ErrDuplicate when the pokemon is already in the list.
	AddPokemon(ctx context.Context, item *model.CustomListPokemon) error
	RemovePokemon(ctx context.Context, listID uint, pokemonID int) error
}

type listRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) ListRepository {
	return &listRepository{db: db}
}

func (r *listRepository) CreateList(ctx context.Context, list *model.CustomList) error {
	return translate(r.db.WithContext(ctx).Omit("Pokemons").Create(list).Error)
}

func (r *listRepository) ListListsByUser(ctx context.Context, userID uint) ([]*model.CustomList, error) {
	lists := make([]*model.CustomList, 0)
	err := r.withPokemons(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&lists).Error
	return lists, translate(err)
}

func (r *listRepository) GetList(ctx context.Context, id uint) (*model.CustomList, error) {
	var list model.CustomList
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&list).Error; err != nil {
		return nil, translate(err)
	}
	return &list, nil
}

func (r *listRepository) GetListWithPokemons(ctx context.Context, id uint) (*model.CustomList, error) {
	var list model.CustomList
	if err := r.withPokemons(ctx).Where("id = ?", id).First(&list).Error; err != nil {
		return nil, translate(err)
	}
	return &list, nil
}

func (r *listRepository) withPokemons(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Pokemons", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
}

func (r *listRepository) RenameList(ctx context.Context, id uint, name string, at time.Time) (*model.CustomList, error) {
	res := r.db.WithContext(ctx).Model(&model.CustomList{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "created_at": at})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetListWithPokemons(ctx, id)
}

// DeleteList removes the list and its items in one transaction, so the
// cascade holds even where foreign keys are not enforced.
func (r *listRepository) DeleteList(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", id).Delete(&model.CustomListPokemon{}).Error; err != nil {
			return translate(err)
		}
		res := tx.Where("id = ?", id).Delete(&model.CustomList{})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *listRepository) AddPokemon(ctx context.Context, item *model.CustomListPokemon) error {
	return translate(r.db.WithContext(ctx).Create(item).Error)
}

func (r *listRepository) RemovePokemon(ctx context.Context, listID uint, pokemonID int) error {
	res := r.db.WithContext(ctx).Where("list_id = ? AND pokemon_id = ?", listID, pokemonID).Delete(&model.CustomListPokemon{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
