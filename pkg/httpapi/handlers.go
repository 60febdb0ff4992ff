package httpapi

import (
	"net/http"

	"github.com/pokedex-companion/pokedexservice/pkg/apperr"
	"github.com/pokedex-companion/pokedexservice/pkg/validator"

	"github.com/gorilla/mux"
)

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func (s *Server) register(w http.ResponseWriter, r *http.Request) error {
	var p validator.RegisterPayload
	if err := decode(r, &p); err != nil {
		return err
	}
	user, err := s.auth.Register(r.Context(), p.Username, p.Email, p.Password)
	if err != nil {
		return err
	}
	return respond(w, http.StatusCreated, msgRegistered, user.Profile())
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	var p validator.LoginPayload
	if err := decode(r, &p); err != nil {
		return err
	}
	res, err := s.auth.Login(r.Context(), p.Email, p.Password)
	if err != nil {
		return err
	}
	loggerFrom(r.Context()).WithField("user_id", res.User.ID).Info("login succeeded")
	return respond(w, http.StatusOK, msgLoggedIn, res)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) error {
	user, err := s.auth.Profile(r.Context(), principal(r).ID)
	if err != nil {
		return err
	}
	return respond(w, http.StatusOK, msgProfileFetched, user.Profile())
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) error {
	var p validator.ChangePasswordPayload
	if err := decode(r, &p); err != nil {
		return err
	}
	if err := s.auth.ChangePassword(r.Context(), principal(r).ID, p.OldPassword, p.NewPassword); err != nil {
		return err
	}
	return respond(w, http.StatusOK, msgPasswordChanged, nil)
}

// ---------------------------------------------------------------------------
// favorites
// ---------------------------------------------------------------------------

func (s *Server) getFavorites(w http.ResponseWriter, r *http.Request) error {
	favs, err := s.favorites.GetFavorites(r.Context(), principal(r).ID)
	if err != nil {
		return err
	}
	return respond(w, http.StatusOK, msgFavoritesFetched, favs)
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) error {
	var p validator.PokemonPayload
	if err := decode(r, &p); err != nil {
		return err
	}
	fav, err := s.favorites.AddFavorite(r.Context(), principal(r).ID, p.PokemonID)
	if err != nil {
		return err
	}
	return respond(w, http.StatusCreated, msgFavoriteAdded, fav)
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) error {
	id, err := validator.ParseID(mux.Vars(r)["id"], "id", msgFavoriteIDInvalid)
	if err != nil {
		return err
	}
	if err := s.favorites.RemoveFavorite(r.Context(), principal(r), id); err != nil {
		return err
	}
	return respond(w, http.StatusOK, msgFavoriteRemoved, nil)
}

// ---------------------------------------------------------------------------
// search history
// ---------------------------------------------------------------------------

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) error {
	entries, err := s.history.GetHistoryByUserID(r.Context(), principal(r).ID)
	if err != nil {
		return err
	}
	return respond(w, http.StatusOK, msgHistoryFetched, entries)
}

func (s *Server) addSearchTerm(w http.ResponseWriter, r *http.Request) error {
	var p validator.SearchTermPayload
	if err := decode(r, &p); err != nil {
		return err
	}
	entry, err := s.history.AddSearchTerm(r.Context(), principal(r).ID, p.SearchTerm)
	if err != nil {
		return err
	}
	return respond(w, http.StatusCreated, msgHistoryAdded, entry)
}

func (s *Server) removeSearchTerm(w http.ResponseWriter, r *http.Request) error {
	id, err := validator.ParseID(mux.Vars(r)["id"], "id", msgHistoryIDInvalid)
	if err != nil {
		return err
	}
	if err := s.history.RemoveSearchTerm(r.Context(), principal(r), id); err != nil {
		return err
	}
	return respond(w, http.StatusOK, msgHistoryRemoved, nil)
}

// ---------------------------------------------------------------------------
// custom lists
// ---------------------------------------------------------------------------

func listID(r *http.Request) (uint, error) {
	return validator.ParseID(mux.Vars(r)["listId"], "listId", apperr.MsgListIDRequired)
}

func (s *Server) getLists(w http.ResponseWriter, r *http.Request) error {
	lists, err := s.lists.GetLists(r.Context(), principal(r).ID)
	if err != nil {
		return err
	}
	return respond(w, http.StatusOK, msgListsFetched, lists)
}

func (s *Server) createList(w http.ResponseWriter, r *http.Request) error {
	var p validator.ListPayload
	if err := decode(r, &p); err != nil {
		return err
	}
	list, err := s.lists.CreateList(r.Context(), principal(r).ID, p.Name)
	if err != nil {
		return err
	}
	return respond(w, http.StatusCreated, msgListCreated, list)
}

func (s *Server) getList(w http.ResponseWriter, r *http.Request) error {
	id, err := listID(r)
	if err != nil {
		return err
	}
	list, err := s.lists.GetList(r.Context(), principal(r), id)
	if err != nil {
		return err
	}
	return respond(w, http.StatusOK, msgListDetailsFetched, list)
}

func (s *Server) updateList(w http.ResponseWriter, r *http.Request) error {
	id, err := listID(r)
	if err != nil {
		return err
	}
	var p validator.ListPayload
	if err := decode(r, &p); err != nil {
		return err
	}
	list, err := s.lists.UpdateList(r.Context(), principal(r), id, p.Name)
	if err != nil {
		return err
	}
	return respond(w, http.StatusOK, msgListUpdated, list)
}

func (s *Server) deleteList(w http.ResponseWriter, r *http.Request) error {
	id, err := listID(r)
	if err != nil {
		return err
	}
	if err := s.lists.DeleteList(r.Context(), principal(r), id); err != nil {
		return err
	}
	return respond(w, http.StatusOK, msgListDeleted, nil)
}

func (s *Server) addPokemon(w http.ResponseWriter, r *http.Request) error {
	id, err := listID(r)
	if err != nil {
		return err
	}
	var p validator.PokemonPayload
	if err := decode(r, &p); err != nil {
		return err
	}
	item, err := s.lists.AddPokemon(r.Context(), principal(r), id, p.PokemonID)
	if err != nil {
		return err
	}
	return respond(w, http.StatusCreated, msgPokemonAdded, item)
}

func (s *Server) removePokemon(w http.ResponseWriter, r *http.Request) error {
	id, err := listID(r)
	if err != nil {
		return err
	}
	pokemonID, err := validator.ParseID(mux.Vars(r)["pokemonId"], "pokemonId", msgPokemonIDInvalid)
	if err != nil {
		return err
	}
	if err := s.lists.RemovePokemon(r.Context(), principal(r), id, int(pokemonID)); err != nil {
		return err
	}
	return respond(w, http.StatusOK, msgPokemonRemoved, nil)
}
