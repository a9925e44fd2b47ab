package api

import (
	"net/http"

	"aniview/handlers"
	"aniview/services/accounts"
	"aniview/services/catalog"
	"aniview/services/profiles"
	"aniview/services/watchlist"

	"github.com/gorilla/mux"
)

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	accountsSvc *accounts.Service,
	profilesSvc *profiles.Service,
	catalogSvc *catalog.Service,
	watchlistSvc *watchlist.Service,
) {
	api := r.PathPrefix("/api").Subrouter()

	authHandler := handlers.NewAuthHandler(accountsSvc)
	usersHandler := handlers.NewUsersHandler(accountsSvc)
	profilesHandler := handlers.NewProfilesHandler(profilesSvc)
	animesHandler := handlers.NewAnimesHandler(catalogSvc, profilesSvc)
	watchlistHandler := handlers.NewWatchlistHandler(watchlistSvc, profilesSvc)

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/animes", animesHandler.List).Methods(http.MethodGet)

	// Protected routes
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware(accountsSvc))

	protected.HandleFunc("/auth/refresh", authHandler.Refresh).Methods(http.MethodPost)

	protected.HandleFunc("/users/me", usersHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/users/{userID}", usersHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/users/{userID}", usersHandler.Delete).Methods(http.MethodDelete)

	protected.HandleFunc("/profiles", profilesHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/profiles", profilesHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/profiles/{profileID}", profilesHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/profiles/{profileID}", profilesHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/profiles/{profileID}", profilesHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/profiles/{profileID}/type", profilesHandler.ChangeType).Methods(http.MethodPatch)

	protected.HandleFunc("/animes/search", animesHandler.Search).Methods(http.MethodGet)
	protected.HandleFunc("/animes/genres", animesHandler.Genres).Methods(http.MethodGet)
	protected.HandleFunc("/animes/random", animesHandler.Random).Methods(http.MethodGet)
	protected.HandleFunc("/animes/external/search", animesHandler.SearchExternal).Methods(http.MethodGet)
	protected.HandleFunc("/animes/{animeID}", animesHandler.Get).Methods(http.MethodGet)

	protected.HandleFunc("/watchlist", watchlistHandler.Add).Methods(http.MethodPost)
	protected.HandleFunc("/watchlist/{profileID}", watchlistHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/watchlist/{profileID}/stats", watchlistHandler.Stats).Methods(http.MethodGet)
	protected.HandleFunc("/watchlist/{profileID}/favorites", watchlistHandler.Favorites).Methods(http.MethodGet)
	protected.HandleFunc("/watchlist/{profileID}/anime/{animeID}", watchlistHandler.GetByAnime).Methods(http.MethodGet)
	protected.HandleFunc("/watchlist/{profileID}/anime/{animeID}", watchlistHandler.RemoveByAnime).Methods(http.MethodDelete)
	protected.HandleFunc("/watchlist/{entryID}", watchlistHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/watchlist/{entryID}", watchlistHandler.Remove).Methods(http.MethodDelete)
	protected.HandleFunc("/watchlist/{entryID}/favorite", watchlistHandler.SetFavorite).Methods(http.MethodPatch)

	// Admin routes
	admin := protected.NewRoute().Subrouter()
	admin.Use(adminOnlyMiddleware)

	admin.HandleFunc("/users", usersHandler.List).Methods(http.MethodGet)
	admin.HandleFunc("/users/stats", usersHandler.Stats).Methods(http.MethodGet)
	admin.HandleFunc("/animes", animesHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/animes/external/import", animesHandler.ImportExternal).Methods(http.MethodPost)
	admin.HandleFunc("/animes/{animeID}", animesHandler.Update).Methods(http.MethodPut)
	admin.HandleFunc("/animes/{animeID}", animesHandler.Delete).Methods(http.MethodDelete)
}
