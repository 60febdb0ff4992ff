package service

import (
	"context"
	"time"

	"github.com/pokedex-companion/pokedexservice/pkg/apperr"
	"github.com/pokedex-companion/pokedexservice/pkg/model"
	"github.com/pokedex-companion/pokedexservice/pkg/repo"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type ListsService interface {
	GetLists(ctx context.Context, userID uint) ([]*model.CustomList, error)
	CreateList(ctx context.Context, userID uint, name string) (*model.CustomList, error)
	GetList(ctx context.Context, p Principal, listID uint) (*model.CustomList, error)
	UpdateList(ctx context.Context, p Principal, listID uint, name string) (*model.CustomList, error)
	DeleteList(ctx context.Context, p Principal, listID uint) error
	AddPokemon(ctx context.Context, p Principal, listID uint, pokemonID int) (*model.CustomListPokemon, error)
	RemovePokemon(ctx context.Context, p Principal, listID uint, pokemonID int) error
}

type listsService struct {
	repo repo.ListRepository
	log  *logrus.Logger
}

func NewListsService(r repo.ListRepository, log *logrus.Logger) ListsService {
	return &listsService{repo: r, log: log}
}

func (s *listsService) GetLists(ctx context.Context, userID uint) ([]*model.CustomList, error) {
	lists, err := s.repo.ListListsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(errors.Wrap(err, "list custom lists"))
	}
	for _, l := range lists {
		withItems(l)
	}
	return lists, nil
}

func (s *listsService) CreateList(ctx context.Context, userID uint, name string) (*model.CustomList, error) {
	list := &model.CustomList{UserID: userID, Name: name, CreatedAt: time.Now().UTC()}
	if err := s.repo.CreateList(ctx, list); err != nil {
		return nil, apperr.Internal(errors.Wrap(err, "create custom list"))
	}
	return withItems(list), nil
}

func (s *listsService) GetList(ctx context.Context, p Principal, listID uint) (*model.CustomList, error) {
	list, err := Authorize(ctx, s.log, p.ID, listID, ListResource, s.repo.GetListWithPokemons)
	if err != nil {
		return nil, err
	}
	return withItems(list), nil
}

// UpdateList renames the list. The rename also moves created_at to now, which
// pushes the list to the top of the owner's lists.
func (s *listsService) UpdateList(ctx context.Context, p Principal, listID uint, name string) (*model.CustomList, error) {
	if _, err := s.authorize(ctx, p, listID); err != nil {
		return nil, err
	}
	list, err := s.repo.RenameList(ctx, listID, name, time.Now().UTC())
	if err != nil {
		return nil, s.notFoundOrInternal(err, apperr.MsgListNotFound, "rename custom list")
	}
	return withItems(list), nil
}

func (s *listsService) DeleteList(ctx context.Context, p Principal, listID uint) error {
	if _, err := s.authorize(ctx, p, listID); err != nil {
		return err
	}
	if err := s.repo.DeleteList(ctx, listID); err != nil {
		return s.notFoundOrInternal(err, apperr.MsgListNotFound, "delete custom list")
	}
	return nil
}

func (s *listsService) AddPokemon(ctx context.Context, p Principal, listID uint, pokemonID int) (*model.CustomListPokemon, error) {
	if _, err := s.authorize(ctx, p, listID); err != nil {
		return nil, err
	}
	item := &model.CustomListPokemon{ListID: listID, PokemonID: pokemonID}
	if err := s.repo.AddPokemon(ctx, item); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, apperr.Conflict(apperr.MsgPokemonInList)
		}
		return nil, apperr.Internal(errors.Wrap(err, "add pokemon to list"))
	}
	return item, nil
}

func (s *listsService) RemovePokemon(ctx context.Context, p Principal, listID uint, pokemonID int) error {
	if _, err := s.authorize(ctx, p, listID); err != nil {
		return err
	}
	if err := s.repo.RemovePokemon(ctx, listID, pokemonID); err != nil {
		return s.notFoundOrInternal(err, apperr.MsgPokemonNotInList, "remove pokemon from list")
	}
	return nil
}

func (s *listsService) authorize(ctx context.Context, p Principal, listID uint) (*model.CustomList, error) {
	return Authorize(ctx, s.log, p.ID, listID, ListResource, s.repo.GetList)
}

func (s *listsService) notFoundOrInternal(err error, msg, op string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return apperr.Internal(errors.Wrap(err, op))
}

// withItems makes an empty list serialize its pokemon as [] instead of null.
func withItems(l *model.CustomList) *model.CustomList {
	if l.Pokemons == nil {
		l.Pokemons = []model.CustomListPokemon{}
	}
	return l
}
