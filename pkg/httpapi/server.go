// Package httpapi exposes the services over JSON/HTTP under /api.
package httpapi

import (
	"net/http"

	"github.com/pokedex-companion/pokedexservice/pkg/apperr"
	"github.com/pokedex-companion/pokedexservice/pkg/service"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators of the HTTP layer. Limiter may be nil, which
// disables rate limiting.
type Deps struct {
	Log         *logrus.Logger
	Auth        service.AuthService
	Tokens      *service.TokenManager
	Favorites   service.FavoritesService
	Lists       service.ListsService
	History     service.HistoryService
	Limiter     Limiter
	CORSOrigins []string
}

type Server struct {
	log         *logrus.Logger
	auth        service.AuthService
	tokens      *service.TokenManager
	favorites   service.FavoritesService
	lists       service.ListsService
	history     service.HistoryService
	limiter     Limiter
	corsOrigins []string
}

func NewServer(d Deps) *Server {
	return &Server{
		log:         d.Log,
		auth:        d.Auth,
		tokens:      d.Tokens,
		favorites:   d.Favorites,
		lists:       d.Lists,
		history:     d.History,
		limiter:     d.Limiter,
		corsOrigins: d.CORSOrigins,
	}
}

// Handler returns the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/", appHandler(s.alive)).Methods(http.MethodGet)

	api.Handle("/auth/register", s.rateLimited(appHandler(s.register))).Methods(http.MethodPost)
	api.Handle("/auth/login", s.rateLimited(appHandler(s.login))).Methods(http.MethodPost)

	private := api.NewRoute().Subrouter()
	private.Use(s.requireAuth)

	private.Handle("/auth/me", appHandler(s.me)).Methods(http.MethodGet)
	private.Handle("/auth/password", appHandler(s.changePassword)).Methods(http.MethodPut)

	private.Handle("/favorites", appHandler(s.getFavorites)).Methods(http.MethodGet)
	private.Handle("/favorites", appHandler(s.addFavorite)).Methods(http.MethodPost)
	private.Handle("/favorites/{id}", appHandler(s.removeFavorite)).Methods(http.MethodDelete)

	private.Handle("/search-history", appHandler(s.getHistory)).Methods(http.MethodGet)
	private.Handle("/search-history", appHandler(s.addSearchTerm)).Methods(http.MethodPost)
	private.Handle("/search-history/{id}", appHandler(s.removeSearchTerm)).Methods(http.MethodDelete)

	private.Handle("/custom-lists", appHandler(s.getLists)).Methods(http.MethodGet)
	private.Handle("/custom-lists", appHandler(s.createList)).Methods(http.MethodPost)
	private.Handle("/custom-lists/{listId}", appHandler(s.getList)).Methods(http.MethodGet)
	private.Handle("/custom-lists/{listId}", appHandler(s.updateList)).Methods(http.MethodPut)
	private.Handle("/custom-lists/{listId}", appHandler(s.deleteList)).Methods(http.MethodDelete)
	private.Handle("/custom-lists/{listId}/pokemon", appHandler(s.addPokemon)).Methods(http.MethodPost)
	private.Handle("/custom-lists/{listId}/pokemon/{pokemonId}", appHandler(s.removePokemon)).Methods(http.MethodDelete)

	r.NotFoundHandler = appHandler(func(http.ResponseWriter, *http.Request) error {
		return apperr.NotFound(apperr.MsgNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Status: "error", Message: apperr.MsgBadRequest})
	})

	var h http.Handler = r
	h = securityHeaders(h)
	h = cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	})(h)
	return &logHandler{log: s.log, next: h}
}

func (s *Server) alive(w http.ResponseWriter, _ *http.Request) error {
	return respond(w, http.StatusOK, msgAlive, nil)
}
