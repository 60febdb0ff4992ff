package repo

import (
	"context"

	"github.com/pokedex-companion/pokedexservice/pkg/model"

	"gorm.io/gorm"
)

type FavoriteRepository interface {
	ListFavoritesByUser(ctx context.Context, userID uint) ([]*model.Favorite, error)
	GetFavorite(ctx context.Context, id uint) (*model.Favorite, error)
	// CreateFavorite returns ErrDuplicate when the (user, pokemon) pair exists.
	CreateFavorite(ctx context.Context, fav *model.Favorite) error
	DeleteFavorite(ctx context.Context, userID, id uint) error
}

type favoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) ListFavoritesByUser(ctx context.Context, userID uint) ([]*model.Favorite, error) {
	favs := make([]*model.Favorite, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&favs).Error
	return favs, translate(err)
}

func (r *favoriteRepository) GetFavorite(ctx context.Context, id uint) (*model.Favorite, error) {
	var fav model.Favorite
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&fav).Error; err != nil {
		return nil, translate(err)
	}
	return &fav, nil
}

func (r *favoriteRepository) CreateFavorite(ctx context.Context, fav *model.Favorite) error {
	return translate(r.db.WithContext(ctx).Create(fav).Error)
}

func (r *favoriteRepository) DeleteFavorite(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&model.Favorite{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
