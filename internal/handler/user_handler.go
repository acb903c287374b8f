package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"birthdays/internal/models"
	"birthdays/internal/service"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	userService *service.UserService
	log         *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log,
	}
}

// Register mounts the user routes on the router
func (h *UserHandler) Register(router *mux.Router) {
	router.HandleFunc("/users", h.Create).Methods("POST")
	router.HandleFunc("/users", h.List).Methods("GET")
	router.HandleFunc("/users/{id}", h.GetByID).Methods("GET")
	router.HandleFunc("/users/{id}", h.Update).Methods("PUT")
	router.HandleFunc("/users/{id}", h.Delete).Methods("DELETE")
}

// Create handles POST /users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	user, err := h.userService.CreateUser(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, h.log, err)
		return
	}

	WriteCreated(w, user)
}

// List handles GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 20
	if v := query.Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	offset := 0
	if v := query.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}

	users, err := h.userService.ListUsers(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, h.log, err)
		return
	}

	WriteOK(w, ListUsersResponse{Users: users})
}

// GetByID handles GET /users/{id}
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		HandleServiceError(w, h.log, err)
		return
	}

	WriteOK(w, user)
}

// Update handles PUT /users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req service.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), id, &req)
	if err != nil {
		HandleServiceError(w, h.log, err)
		return
	}

	WriteOK(w, user)
}

// Delete handles DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(r.Context(), id); err != nil {
		HandleServiceError(w, h.log, err)
		return
	}

	WriteNoContent(w)
}

// parseID extracts and validates the {id} path variable
func parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	vars := mux.Vars(r)

	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		WriteValidationError(w, "invalid user ID format")
		return 0, false
	}
	if id <= 0 {
		WriteValidationError(w, "user ID must be greater than 0")
		return 0, false
	}

	return id, true
}

// ListUsersResponse represents the response for listing users
type ListUsersResponse struct {
	Users []*models.User `json:"users"`
}
