package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/rcastell/homestock/internal/core/domain"
	"github.com/rcastell/homestock/internal/core/service"
)

type UserHandler struct {
	users *service.UserService
	log   *logrus.Logger
}

func NewUserHandler(users *service.UserService, log *logrus.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

func (h *UserHandler) Register(r *mux.Router) {
	r.HandleFunc("/register", h.CreateProfile).Methods(http.MethodPost)
	r.HandleFunc("/user/{email}", h.GetProfile).Methods(http.MethodGet)
	r.HandleFunc("/user/{email}", h.UpdateProfile).Methods(http.MethodPut)
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
}

func (h *UserHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.users.Create(r.Context(), profile); err != nil {
		h.log.WithError(err).Error("profile creation failed")
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, "User registered")
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.Get(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var profile domain.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	profile.Email = mux.Vars(r)["email"]

	if err := h.users.Update(r.Context(), profile); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "User updated")
}
