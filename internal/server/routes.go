package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMw, s.maxBytesMw)
	r.NotFoundHandler = s.loggingMw(s.notFoundHandler())
	r.MethodNotAllowedHandler = s.loggingMw(s.methodNotAllowedHandler())

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/user/register", s.userRegister()).Methods(http.MethodPost)

	userAPI := api.PathPrefix("/user").Subrouter()
	userAPI.Use(s.authMw)
	userAPI.HandleFunc("/logout", s.userLogout()).Methods(http.MethodPost)
	userAPI.HandleFunc("/info", s.userInfo()).Methods(http.MethodGet)

	itemAPI := api.PathPrefix("/item").Subrouter()
	itemAPI.Use(s.authMw)
	itemAPI.HandleFunc("/add", s.itemAdd()).Methods(http.MethodPost)
	itemAPI.HandleFunc("/update", s.itemUpdate()).Methods(http.MethodPost)
	itemAPI.HandleFunc("/remove", s.itemRemove()).Methods(http.MethodPost)
	itemAPI.HandleFunc("/get", s.itemGetAll()).Methods(http.MethodGet)
	itemAPI.HandleFunc("/history/{shortID}", s.itemHistory()).Methods(http.MethodGet)

	monitorAPI := api.PathPrefix("/monitor").Subrouter()
	monitorAPI.Use(s.authMw)
	monitorAPI.HandleFunc("/run", s.monitorRun()).Methods(http.MethodPost)

	return r
}
