package service

import (
	"context"

	"github.com/pokedex-companion/pokedexservice/pkg/apperr"
	"github.com/pokedex-companion/pokedexservice/pkg/repo"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Principal is the authenticated caller, taken from a verified bearer token.
type Principal struct {
	ID       uint
	Username string
}

// Owned is implemented by every user-owned model.
type Owned interface {
	OwnerID() uint
}

// Resource carries the client messages for one kind of owned resource.
type Resource struct {
	Name      string
	NotFound  string
	Forbidden string
}

var (
	FavoriteResource = Resource{Name: "favorite", NotFound: apperr.MsgFavoriteNotFound, Forbidden: apperr.MsgFavoriteForbidden}
	HistoryResource  = Resource{Name: "search_history", NotFound: apperr.MsgHistoryNotFound, Forbidden: apperr.MsgHistoryForbidden}
	ListResource     = Resource{Name: "custom_list", NotFound: apperr.MsgListNotFound, Forbidden: apperr.MsgListForbidden}
)

// Authorize loads a resource and checks that the principal owns it. It must
// run before any mutation of a user-owned resource.
func Authorize[T Owned](
	ctx context.Context,
	log *logrus.Logger,
	principalID, resourceID uint,
	res Resource,
	fetch func(context.Context, uint) (T, error),
) (T, error) {
	var zero T

	v, err := fetch(ctx, resourceID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return zero, apperr.NotFound(res.NotFound)
		}
		return zero, apperr.Internal(errors.Wrapf(err, "load %s %d", res.Name, resourceID))
	}

	if owner := v.OwnerID(); owner != principalID {
		log.WithFields(logrus.Fields{
			"resource":     res.Name,
			"principal_id": principalID,
			"resource_id":  resourceID,
			"owner_id":     owner,
		}).Warn("ownership check failed")
		return zero, apperr.Forbidden(res.Forbidden)
	}
	return v, nil
}
