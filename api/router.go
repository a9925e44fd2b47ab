package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

func allowCrossOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// NewRouter builds the root router carrying what every route shares, CORS
// handling and the health endpoint.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(allowCrossOrigin)
	r.HandleFunc("/health", health).Methods(http.MethodGet)
	return r
}
