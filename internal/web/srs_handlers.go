package web

import (
	"net/http"

	"github.com/clayarnold/crosstrainer/internal/domain"
	"github.com/clayarnold/crosstrainer/internal/srs"
)

func (s *Server) handleGetDue(w http.ResponseWriter, r *http.Request) {
	var depth *int
	if v, present, err := queryInt(r, "depth"); present {
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "depth must be an integer")
			return
		}
		depth = &v
	}
	limit, _, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "limit must be an integer")
		return
	}

	items, err := s.engine.GetDue(r.Context(), depth, limit)
	if err != nil {
		serveError(w, err)
		return
	}
	if items == nil {
		items = []domain.SRSItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handlePostReview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SRSItemID      int64  `json:"srs_item_id"`
		Quality        int    `json:"quality"`
		ResponseTimeMs *int   `json:"response_time_ms"`
		Notes          string `json:"notes"`
		UserSolution   string `json:"user_solution"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	item, err := s.engine.RecordReview(r.Context(), srs.ReviewRequest{
		ItemID:         body.SRSItemID,
		Quality:        body.Quality,
		ResponseTimeMs: body.ResponseTimeMs,
		Notes:          body.Notes,
		UserSolution:   body.UserSolution,
	})
	if err != nil {
		serveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SolveID int64  `json:"solve_id"`
		Depth   int    `json:"depth"`
		Notes   string `json:"notes"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	item, err := s.engine.AddItem(r.Context(), srs.AddItemRequest{
		SolveID: body.SolveID,
		Depth:   body.Depth,
		Notes:   body.Notes,
	})
	if err != nil {
		serveError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": item})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	req := srs.ListItemsRequest{
		ActiveOnly: r.URL.Query().Get("active_only") == "true",
	}
	if v, present, err := queryInt(r, "depth"); present {
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "depth must be an integer")
			return
		}
		req.Depth = &v
	}
	var err error
	if req.Limit, _, err = queryInt(r, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "limit must be an integer")
		return
	}
	if req.Offset, _, err = queryInt(r, "offset"); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "offset must be an integer")
		return
	}

	items, total, err := s.engine.ListItems(r.Context(), req)
	if err != nil {
		serveError(w, err)
		return
	}
	if items == nil {
		items = []domain.SRSItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

func (s *Server) handlePatchItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid item id")
		return
	}
	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.IsActive == nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "is_active is required")
		return
	}

	item, err := s.engine.SetActive(r.Context(), id, *body.IsActive)
	if err != nil {
		serveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid item id")
		return
	}
	if err := s.engine.RemoveItem(r.Context(), id); err != nil {
		serveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleItemHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid item id")
		return
	}
	events, err := s.engine.History(r.Context(), id)
	if err != nil {
		serveError(w, err)
		return
	}
	if events == nil {
		events = []domain.ReviewEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": events})
}

func (s *Server) handleDeleteByDepth(w http.ResponseWriter, r *http.Request) {
	solveID, ok := pathID(r, "solveID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid solve id")
		return
	}
	depth, err := queryPathInt(r, "depth")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid depth")
		return
	}
	if err := s.engine.RemoveByDepth(r.Context(), solveID, domain.Depth(depth)); err != nil {
		serveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		serveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
