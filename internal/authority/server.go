package authority

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"wordduel/internal/apperr"
	"wordduel/internal/room"
)

// Server exposes the authority over HTTP JSON plus a websocket realtime feed.
type Server struct {
	authority *Authority
	upgrader  websocket.Upgrader
}

// NewServer wraps an authority.
func NewServer(a *Authority) *Server {
	return &Server{
		authority: a,
		upgrader: websocket.Upgrader{
			// The dev authority serves browser clients from any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the full route set with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/games", s.handleCreate)
	mux.HandleFunc("POST /api/games/{id}/join", s.handleJoin)
	mux.HandleFunc("POST /api/games/{id}/reveal", s.handleReveal)
	mux.HandleFunc("POST /api/games/{id}/guess", s.handleGuess)
	mux.HandleFunc("POST /api/games/{id}/skip", s.handleSkip)
	mux.HandleFunc("POST /api/games/{id}/cancel", s.handleCancel)
	mux.HandleFunc("GET /api/games/{id}", s.handleGetState)
	mux.HandleFunc("GET /realtime", s.handleRealtime)
	return cors.AllowAll().Handler(mux)
}

func playerID(r *http.Request) string {
	return r.Header.Get("X-Player-ID")
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WordLength int `json:"word_length"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Invalid("request body is not valid JSON"))
		return
	}
	snap, err := s.authority.CreateGame(r.Context(), playerID(r), req.WordLength)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"room_id":     snap.ID,
		"word_length": snap.WordLength,
	})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	snap, err := s.authority.JoinGame(r.Context(), playerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"first_player": 1,
		"room_id":      snap.ID,
	})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Row int `json:"row"`
		Col int `json:"col"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Invalid("request body is not valid JSON"))
		return
	}
	snap, err := s.authority.RevealCell(r.Context(), playerID(r), r.PathValue("id"), req.Row, req.Col)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"cell":           snap.Board.At(req.Row, req.Col),
		"revealed_cells": snap.Board.RevealedCount(),
	})
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Word string `json:"word"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Invalid("request body is not valid JSON"))
		return
	}
	snap, correct, err := s.authority.Guess(r.Context(), playerID(r), r.PathValue("id"), req.Word)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{
		"success": true,
		"correct": correct,
	}
	if correct {
		resp["winner"] = snap.Winner
		resp["word"] = snap.Word
	} else {
		resp["next_player"] = snap.CurrentPlayer
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authority.SkipTurn(r.Context(), playerID(r), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"skipped": true})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authority.CancelGame(r.Context(), playerID(r), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": true})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.authority.GetGameState(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := room.EncodeSnapshot(snap)
	if err != nil {
		writeError(w, apperr.Unknown("encode snapshot", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleRealtime streams change notifications for one room over a websocket,
// one JSON envelope per message.
func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		writeError(w, apperr.Invalid("room query parameter is required"))
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	changes, cancel := s.authority.Watch(roomID)
	defer cancel()
	defer conn.Close()

	// Reads are discarded; the read loop only notices the peer going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for change := range changes {
		data, err := room.EncodeChange(&change)
		if err != nil {
			log.Error().Err(err).Msg("encode change for realtime feed")
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Unknown("internal error", err)
	}
	status := http.StatusInternalServerError
	switch ae.ErrKind {
	case apperr.KindInvalidInput:
		status = http.StatusBadRequest
	case apperr.KindDomainRejection:
		if ae.Reason == apperr.ReasonRoomNotFound {
			status = http.StatusNotFound
		} else {
			status = http.StatusConflict
		}
	}
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    ae.Reason,
			"message": ae.Message,
		},
	})
}
