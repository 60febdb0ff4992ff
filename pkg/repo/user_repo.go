package repo

import (
	"context"

	"github.com/pokedex-companion/pokedexservice/pkg/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Omit("Favorites", "SearchHistory", "CustomLists").Create(user).Error)
}

func (r *userRepository) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) first(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
