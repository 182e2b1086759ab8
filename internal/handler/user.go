package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/omkargadekar/chats-app/internal/model"
	"github.com/omkargadekar/chats-app/internal/pkg/httputils"
	"github.com/omkargadekar/chats-app/internal/service"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/register", h.registerUser).Methods("POST", "OPTIONS")
	router.HandleFunc("/login", h.loginUser).Methods("POST", "OPTIONS")
	router.HandleFunc("/users", h.listAvailableUsers).Methods("GET", "OPTIONS")
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// @Summary Register
// @Description Register an account
// @ID register
// @Accept json
// @Produce json
// @Success 201 {object} model.PublicUser
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Param registerData body RegisterRequest true "Register data"
// @Router /register [post]
func (h *UserHandler) registerUser(w http.ResponseWriter, r *http.Request) {
	var request RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	r.Body.Close()

	user, err := h.userService.Register(r.Context(), request.Username, request.Email, request.Password)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, user)
}

// @Summary Login
// @Description Login with username and password
// @ID login
// @Accept json
// @Produce json
// @Success 200 {object} LoginResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Param loginData body LoginRequest true "Login data"
// @Router /login [post]
func (h *UserHandler) loginUser(w http.ResponseWriter, r *http.Request) {
	var request LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httputils.ResponseError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	r.Body.Close()

	token, user, err := h.userService.Authenticate(r.Context(), request.Username, request.Password)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, LoginResponse{Token: token, User: *user})
}

// @Summary List available users
// @Description List users you can start a chat with
// @ID list-users
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {array} model.PublicUser
// @Failure 401 {object} response.ErrorResponse
// @Router /users [get]
func (h *UserHandler) listAvailableUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUserID(r)
	if !ok {
		httputils.ResponseError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	users, err := h.userService.SearchAvailable(r.Context(), userID)
	if err != nil {
		httputils.ResponseAppError(w, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, users)
}
