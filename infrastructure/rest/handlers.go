// Package rest exposes the account and room management endpoints. The
// websocket transport carries the message lifecycle; everything that is
// request/response shaped lives here.
package rest

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"chatter-box/auth"
	"chatter-box/contract"
	"chatter-box/domain"
	"chatter-box/errors"
	"chatter-box/services"
)

// CookieName matches the cookie the websocket handshake reads.
const CookieName = "jwt"

type Handler struct {
	log           *slog.Logger
	authService   services.IAuthService
	rooms         services.IRoomService
	messages      services.IMessageService
	verifier      contract.IdentityVerifier
	cookieSecure  bool
	tokenDuration time.Duration
}

func NewHandler(
	log *slog.Logger,
	authService services.IAuthService,
	rooms services.IRoomService,
	messages services.IMessageService,
	verifier contract.IdentityVerifier,
	cookieSecure bool,
	tokenDuration time.Duration,
) *Handler {
	return &Handler{
		log:           log,
		authService:   authService,
		rooms:         rooms,
		messages:      messages,
		verifier:      verifier,
		cookieSecure:  cookieSecure,
		tokenDuration: tokenDuration,
	}
}

// Register mounts every endpoint on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)

	mux.Handle("POST /api/rooms", h.withIdentity(h.createRoom))
	mux.Handle("GET /api/rooms/{id}", h.withIdentity(h.getRoom))
	mux.Handle("DELETE /api/rooms/{id}", h.withIdentity(h.deleteRoom))
	mux.Handle("GET /api/rooms/{id}/messages", h.withIdentity(h.roomMessages))
	mux.Handle("POST /api/rooms/{id}/users", h.withIdentity(h.addUser))
	mux.Handle("DELETE /api/rooms/{id}/users/{username}", h.withIdentity(h.removeUser))
	mux.Handle("POST /api/rooms/{id}/leave", h.withIdentity(h.leave))
}

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.ErrValidation)
		return
	}

	token, err := h.authService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	h.writeJSON(w, http.StatusCreated, tokenResponse{Token: token.String()})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.ErrValidation)
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	h.writeJSON(w, http.StatusOK, tokenResponse{Token: token.String()})
}

// setSessionCookie installs the token where the websocket handshake will
// find it. HttpOnly keeps it away from page scripts.
func (h *Handler) setSessionCookie(w http.ResponseWriter, token services.Token) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token.String(),
		Path:     "/",
		Expires:  time.Now().Add(h.tokenDuration),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

type createRoomRequest struct {
	Name      string   `json:"name"`
	Usernames []string `json:"usernames"`
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.ErrValidation)
		return
	}

	view, err := h.rooms.CreateRoom(r.Context(), req.Name, req.Usernames)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) getRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathRoomID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	view, err := h.rooms.GetRoom(r.Context(), roomID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) deleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathRoomID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.rooms.DeleteRoom(r.Context(), roomID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) roomMessages(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathRoomID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	views, err := h.messages.History(r.Context(), roomID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, views)
}

type addUserRequest struct {
	Username string `json:"username"`
}

func (h *Handler) addUser(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathRoomID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req addUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		h.writeError(w, errors.ErrValidation)
		return
	}

	if err := h.rooms.AddUser(r.Context(), roomID, req.Username); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeUser(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathRoomID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.rooms.RemoveUser(r.Context(), roomID, r.PathValue("username")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) leave(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathRoomID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.rooms.Leave(r.Context(), roomID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withIdentity authenticates the request from the jwt cookie and attaches
// the resulting identity to the request context. No cookie or a bad token
// means 401; handlers never see an unauthenticated context.
func (h *Handler) withIdentity(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil {
			h.writeError(w, errors.ErrUnauthenticated)
			return
		}

		identity, err := h.verifier.Verify(cookie.Value)
		if err != nil {
			h.writeError(w, errors.ErrUnauthenticated)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), identity)))
	})
}

func pathRoomID(r *http.Request) (domain.RoomID, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.ErrValidation
	}
	return domain.RoomID(id), nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case stderrors.Is(err, errors.ErrUnauthenticated), stderrors.Is(err, errors.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case stderrors.Is(err, errors.ErrUnauthorized):
		status = http.StatusForbidden
	case stderrors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	case stderrors.Is(err, errors.ErrValidation), stderrors.Is(err, errors.ErrInvalidPassword):
		status = http.StatusBadRequest
	case stderrors.Is(err, errors.ErrAlreadyMember), stderrors.Is(err, errors.ErrUserAlreadyExists):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.log.Error("Request failed", "err", err)
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
