package handler

import (
	"net/http"

	"github.com/quiz-world/internal/domain"
	"github.com/quiz-world/internal/service"
)

type chatRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
	Username string `json:"username" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

type scoreRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
	Username string `json:"username" validate:"required"`
	Score    *int64 `json:"score" validate:"required,gte=0"`
}

type messagesResponse struct {
	Messages []domain.ChatLine `json:"messages"`
}

type leaderboardResponse struct {
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

type cleanupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	service.CleanupReport
}

// SendChat stores a chat message
func (h *Handler) SendChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.chat.Send(r.Context(), req.PlayerID, req.Username, req.Message); err != nil {
		h.writeServiceError(w, err, "failed to send message")
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ChatMessages returns the latest chat lines
func (h *Handler) ChatMessages(w http.ResponseWriter, r *http.Request) {
	lines, err := h.chat.Messages(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to fetch messages")
		return
	}

	writeJSON(w, http.StatusOK, messagesResponse{Messages: lines})
}

// SubmitScore records a gauntlet score
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !h.decode(w, r, &req) {
		return
	}

	accepted, err := h.leaderboard.Submit(r.Context(), domain.ScoreSubmission{
		PlayerID: req.PlayerID,
		Username: req.Username,
		Score:    *req.Score,
	})
	if err != nil {
		h.writeServiceError(w, err, "failed to submit score")
		return
	}

	resp := successResponse{Success: true}
	if !accepted {
		resp.Message = "Score not high enough"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Leaderboard returns the gym top entries
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboard.Top(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to fetch leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, leaderboardResponse{Leaderboard: entries})
}

// Cleanup runs the staleness sweep on demand
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	report, err := h.presence.Cleanup(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "cleanup failed")
		return
	}

	writeJSON(w, http.StatusOK, cleanupResponse{
		Success:       true,
		Message:       "Cleanup completed",
		CleanupReport: report,
	})
}
