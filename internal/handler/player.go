package handler

import (
	"net/http"

	"github.com/quiz-world/internal/domain"
	"github.com/quiz-world/internal/service"
)

type joinRequest struct {
	Username    string `json:"username" validate:"required"`
	AvatarColor string `json:"avatarColor" validate:"required"`
	Password    string `json:"password"`
}

type createRequest struct {
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"max=72"`
	AvatarColor string `json:"avatarColor" validate:"required"`
}

type positionRequest struct {
	PlayerID string   `json:"playerId" validate:"required"`
	X        *float64 `json:"x" validate:"required"`
	Y        *float64 `json:"y" validate:"required"`
}

type duelResultRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
	Won      *bool  `json:"won" validate:"required"`
}

type badgeRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
	Badge    string `json:"badge" validate:"required"`
}

type playerResponse struct {
	Player domain.Player `json:"player"`
}

type playersResponse struct {
	Players []domain.PublicPlayer `json:"players"`
}

// JoinPlayer resumes an existing account
func (h *Handler) JoinPlayer(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !h.decode(w, r, &req) {
		return
	}

	player, err := h.presence.Join(r.Context(), service.JoinRequest{
		Username:    req.Username,
		AvatarColor: req.AvatarColor,
		Password:    req.Password,
	})
	if err != nil {
		h.writeServiceError(w, err, "failed to join game")
		return
	}

	writeJSON(w, http.StatusOK, playerResponse{Player: player.Self()})
}

// CreatePlayer registers a new character
func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}

	player, err := h.presence.Create(r.Context(), service.CreateRequest{
		Username:    req.Username,
		Password:    req.Password,
		AvatarColor: req.AvatarColor,
	})
	if err != nil {
		h.writeServiceError(w, err, "failed to create player")
		return
	}

	writeJSON(w, http.StatusOK, playerResponse{Player: player.Self()})
}

// UpdatePosition stores a new avatar position
func (h *Handler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.presence.UpdatePosition(r.Context(), req.PlayerID, *req.X, *req.Y); err != nil {
		h.writeServiceError(w, err, "failed to update position")
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ListPlayers returns active players other than the caller
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.presence.ListPlayers(r.Context(), r.URL.Query().Get("playerId"))
	if err != nil {
		h.writeServiceError(w, err, "failed to fetch players")
		return
	}

	writeJSON(w, http.StatusOK, playersResponse{Players: players})
}

// ApplyDuelResult records the outcome of a duel
func (h *Handler) ApplyDuelResult(w http.ResponseWriter, r *http.Request) {
	var req duelResultRequest
	if !h.decode(w, r, &req) {
		return
	}

	player, err := h.presence.ApplyDuelResult(r.Context(), req.PlayerID, *req.Won)
	if err != nil {
		h.writeServiceError(w, err, "failed to record duel result")
		return
	}

	writeJSON(w, http.StatusOK, playerResponse{Player: player.Self()})
}

// GrantBadge awards a badge to a player
func (h *Handler) GrantBadge(w http.ResponseWriter, r *http.Request) {
	var req badgeRequest
	if !h.decode(w, r, &req) {
		return
	}

	player, err := h.presence.GrantBadge(r.Context(), req.PlayerID, req.Badge)
	if err != nil {
		h.writeServiceError(w, err, "failed to grant badge")
		return
	}

	writeJSON(w, http.StatusOK, playerResponse{Player: player.Self()})
}
