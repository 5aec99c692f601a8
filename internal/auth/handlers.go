package auth

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/trackhound/trackhound/internal/httputil"
	"github.com/trackhound/trackhound/internal/models"
	"github.com/trackhound/trackhound/internal/repository"
)

type Handler struct {
	users  *repository.UserRepository
	plex   *PlexAuth
	issuer *TokenIssuer
	cipher *TokenCipher
}

func NewHandler(users *repository.UserRepository, plex *PlexAuth, issuer *TokenIssuer, cipher *TokenCipher) *Handler {
	return &Handler{users: users, plex: plex, issuer: issuer, cipher: cipher}
}

func (h *Handler) Router(mw *Middleware) chi.Router {
	r := chi.NewRouter()
	r.Post("/plex/login", h.plexLogin)
	r.Post("/plex/callback", h.plexCallback)
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth)
		r.Get("/me", h.me)
		r.Post("/logout", h.logout)
	})
	return r
}

// plexLogin starts the PIN flow: create a PIN and hand the client the
// approval URL. The client opens the URL, then calls the callback with
// the pin id.
func (h *Handler) plexLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ForwardURL string `json:"forward_url,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := httputil.ReadJSON(r, &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
			return
		}
	}

	pin, err := h.plex.CreatePin(r.Context())
	if err != nil {
		log.Printf("[auth] create pin: %v", err)
		httputil.WriteError(w, http.StatusBadGateway, "PLEX_UNAVAILABLE", "could not reach plex.tv")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"pin_id":   pin.ID,
		"code":     pin.Code,
		"auth_url": h.plex.AuthURL(*pin, req.ForwardURL),
	})
}

// plexCallback polls the PIN once; when approved it upserts the user and
// issues a session token.
func (h *Handler) plexCallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PinID int `json:"pin_id"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil || req.PinID == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_JSON", "pin_id is required")
		return
	}

	plexToken, err := h.plex.CheckPin(r.Context(), req.PinID)
	if err != nil {
		log.Printf("[auth] check pin %d: %v", req.PinID, err)
		httputil.WriteError(w, http.StatusBadGateway, "PLEX_UNAVAILABLE", "could not reach plex.tv")
		return
	}
	if plexToken == "" {
		httputil.WriteError(w, http.StatusAccepted, "PIN_PENDING", "pin not yet approved")
		return
	}

	account, err := h.plex.FetchAccount(r.Context(), plexToken)
	if err != nil {
		log.Printf("[auth] fetch account: %v", err)
		httputil.WriteError(w, http.StatusBadGateway, "PLEX_UNAVAILABLE", "could not load plex account")
		return
	}

	encrypted, err := h.cipher.Encrypt(plexToken)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to secure token")
		return
	}

	user, err := h.users.GetByPlexUserID(strconv.Itoa(account.ID))
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}

	if user == nil {
		user = &models.User{
			ID:           uuid.New(),
			PlexUserID:   strconv.Itoa(account.ID),
			PlexUsername: account.Username,
			PlexToken:    encrypted,
		}
		if account.Email != "" {
			user.PlexEmail = &account.Email
		}
		if account.Thumb != "" {
			user.PlexThumbURL = &account.Thumb
		}
		if err := h.users.Create(user); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to create user")
			return
		}
		log.Printf("[auth] new user %s (%s)", user.PlexUsername, user.ID)
	} else {
		user.PlexUsername = account.Username
		user.PlexToken = encrypted
		if account.Email != "" {
			user.PlexEmail = &account.Email
		}
		if account.Thumb != "" {
			user.PlexThumbURL = &account.Thumb
		}
		if err := h.users.UpdateLogin(user); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to update user")
			return
		}
	}

	session, err := h.issuer.Issue(user.ID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to issue token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token": session,
		"user":  user,
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	user, err := h.users.GetByID(userID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "database error")
		return
	}
	if user == nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// logout is stateless: tokens are JWTs, clients discard them. The endpoint
// exists so clients have a uniform call to clear their session.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
