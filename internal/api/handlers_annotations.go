package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dgallion1/pdfread/internal/docmodel"
	"github.com/dgallion1/pdfread/internal/store"
	"github.com/go-chi/chi/v5"
)

type annotationRequest struct {
	DocID          string `json:"doc_id"`
	BlockID        string `json:"block_id"`
	StartWordIndex int    `json:"start_word_index"`
	EndWordIndex   int    `json:"end_word_index"`
	Color          string `json:"color"`
	FontSize       string `json:"font_size"`
	FontStyle      string `json:"font_style"`
	Note           string `json:"note"`
	IsShared       bool   `json:"is_shared"`
}

func (s *Server) handleCreateAnnotation(w http.ResponseWriter, r *http.Request) {
	var req annotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.DocID == "" || req.BlockID == "" {
		jsonError(w, "doc_id and block_id are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	owner := ownerID(r)
	if _, err := s.store.GetDocument(ctx, owner, req.DocID); err != nil {
		s.writeError(w, r, err)
		return
	}
	block, err := s.store.GetBlock(ctx, req.DocID, req.BlockID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.StartWordIndex < 0 || req.EndWordIndex < req.StartWordIndex || req.EndWordIndex >= len(block.Words) {
		jsonError(w, "word range outside the block", http.StatusBadRequest)
		return
	}

	a := &docmodel.Annotation{
		ID:             s.newAnnotationID(),
		DocID:          req.DocID,
		BlockID:        req.BlockID,
		StartWordIndex: req.StartWordIndex,
		EndWordIndex:   req.EndWordIndex,
		Type:           "highlight",
		Color:          req.Color,
		FontSize:       req.FontSize,
		FontStyle:      req.FontStyle,
		Note:           req.Note,
		UserID:         owner,
		IsShared:       req.IsShared,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateAnnotation(ctx, a); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("annotation created", "annotation_id", a.ID, "doc_id", a.DocID, "block_id", a.BlockID)
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleUpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	var upd store.AnnotationUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	a, err := s.store.UpdateAnnotation(r.Context(), ownerID(r), chi.URLParam(r, "annotationID"), upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.ownedDocument(w, r)
	if !ok {
		return
	}
	anns, err := s.store.ListAnnotations(r.Context(), doc.ID, ownerID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, anns)
}

func (s *Server) handleDeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAnnotation(r.Context(), ownerID(r), chi.URLParam(r, "annotationID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Annotation deleted"})
}
