package service

import (
	"context"

	"github.com/pokedex-companion/pokedexservice/pkg/apperr"
	"github.com/pokedex-companion/pokedexservice/pkg/model"
	"github.com/pokedex-companion/pokedexservice/pkg/repo"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type FavoritesService interface {
	GetFavorites(ctx context.Context, userID uint) ([]*model.Favorite, error)
	AddFavorite(ctx context.Context, userID uint, pokemonID int) (*model.Favorite, error)
	RemoveFavorite(ctx context.Context, p Principal, favoriteID uint) error
}

type favoritesService struct {
	repo repo.FavoriteRepository
	log  *logrus.Logger
}

func NewFavoritesService(r repo.FavoriteRepository, log *logrus.Logger) FavoritesService {
	return &favoritesService{repo: r, log: log}
}

func (s *favoritesService) GetFavorites(ctx context.Context, userID uint) ([]*model.Favorite, error) {
	favs, err := s.repo.ListFavoritesByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(errors.Wrap(err, "list favorites"))
	}
	return favs, nil
}

// AddFavorite relies on the (user_id, pokemon_id) unique index to reject
// duplicates, so two concurrent adds cannot both succeed.
func (s *favoritesService) AddFavorite(ctx context.Context, userID uint, pokemonID int) (*model.Favorite, error) {
	fav := &model.Favorite{UserID: userID, PokemonID: pokemonID}
	if err := s.repo.CreateFavorite(ctx, fav); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperr.Conflict(apperr.MsgFavoriteExists)
		}
		return nil, apperr.Internal(errors.Wrap(err, "create favorite"))
	}
	return fav, nil
}

func (s *favoritesService) RemoveFavorite(ctx context.Context, p Principal, favoriteID uint) error {
	if _, err := Authorize(ctx, s.log, p.ID, favoriteID, FavoriteResource, s.repo.GetFavorite); err != nil {
		return err
	}
	if err := s.repo.DeleteFavorite(ctx, p.ID, favoriteID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperr.NotFound(apperr.MsgFavoriteNotFound)
		}
		return apperr.Internal(errors.Wrap(err, "delete favorite"))
	}
	return nil
}
