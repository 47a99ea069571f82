package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lazyarrow/quiver/internal/engine"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := s.engine.Search(query)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []engine.Result{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"query":   query,
		"results": results,
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string   `json:"id"`
		Query string   `json:"query"`
		Args  []string `json:"args"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, `{"error":"id required"}`, http.StatusBadRequest)
		return
	}

	if err := s.engine.Execute(req.ID, req.Query, req.Args); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleListHandlers(w http.ResponseWriter, r *http.Request) {
	states, err := s.engine.Handlers()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	type handlerJSON struct {
		ID      string `json:"id"`
		Enabled bool   `json:"enabled"`
	}
	out := make([]handlerJSON, len(states))
	for i, st := range states {
		out[i] = handlerJSON{ID: st.ID, Enabled: st.Enabled}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"handlers": out})
}

func (s *Server) handleSetHandler(w http.ResponseWriter, r *http.Request) {
	handlerID := chi.URLParam(r, "handlerID")

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	if err := s.engine.SetHandlerEnabled(handlerID, req.Enabled); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"id": handlerID, "enabled": req.Enabled})
}

// handleScan kicks off a background discovery scan. It never waits for the
// scan to finish; a second request while one is running just reports that.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	_, started := s.engine.StartScan()

	status := "started"
	if !started {
		status = "already running"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"scan": status})
}
