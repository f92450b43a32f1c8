package server

import (
	"encoding/json"
	"image/png"
	"net/http"

	"github.com/aadah/Multiuser-Whiteboard/internal/canvas"
)

// Handler returns the HTTP surface: health, read-only JSON views of the
// registries, PNG snapshots of boards, and the WebSocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/boards", s.handleListBoards)
	mux.HandleFunc("GET /api/users", s.handleListUsers)
	mux.HandleFunc("GET /api/boards/{name}/image.png", s.handleBoardImage)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.store.List())
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.registry.Users())
}

// handleBoardImage renders the board's edit log onto a fresh raster and
// serves the result as PNG.
func (s *Server) handleBoardImage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	width, height, edits, ok := s.store.Snapshot(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	raster := canvas.NewRaster(width, height)
	for _, e := range edits {
		e.Apply(raster)
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, raster.Image()); err != nil {
		s.logger.Debug().Err(err).Str("board", name).Msg("png encode failed")
	}
}
