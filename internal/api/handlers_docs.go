package api

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dgallion1/pdfread/internal/docmodel"
	"github.com/dgallion1/pdfread/internal/doctree"
	"github.com/dgallion1/pdfread/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleListDocuments lists the caller's documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context(), ownerID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":     len(docs),
		"documents": docs,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.GetDocument(r.Context(), ownerID(r), chi.URLParam(r, "docID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var upd store.DocumentUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if upd.Title != nil && *upd.Title == "" {
		jsonError(w, "title must not be empty", http.StatusBadRequest)
		return
	}
	doc, err := s.store.UpdateDocument(r.Context(), ownerID(r), chi.URLParam(r, "docID"), upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument deletes a document with its blocks and annotations.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.store.DeleteDocument(r.Context(), ownerID(r), docID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("document deleted", "doc_id", docID, "user_id", ownerID(r))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Document deleted"})
}

// handleDocumentFile streams the original upload back.
// handleOutline returns the table of contents nested by heading level.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.ownedDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doctree.Build(doc.Title, doc.Outline))
}

func (s *Server) handleDocumentFile(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.store.DocumentFile(r.Context(), ownerID(r), chi.URLParam(r, "docID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (s *Server) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.ownedDocument(w, r)
	if !ok {
		return
	}
	blocks, err := s.store.ListBlocks(r.Context(), doc.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (s *Server) handlePageBlocks(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 0 {
		jsonError(w, "page must be a non-negative integer", http.StatusBadRequest)
		return
	}
	doc, ok := s.ownedDocument(w, r)
	if !ok {
		return
	}
	blocks, err := s.store.PageBlocks(r.Context(), doc.ID, page)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

type splitRequest struct {
	SplitIndex *int `json:"split_index"`
}

// handleSplitBlock splits a block so the word at split_index starts a new
// block. It responds with the shortened original and the new block.
func (s *Server) handleSplitBlock(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.SplitIndex == nil {
		jsonError(w, "split_index is required", http.StatusBadRequest)
		return
	}
	doc, ok := s.ownedDocument(w, r)
	if !ok {
		return
	}
	first, second, err := s.editor.Split(r.Context(), doc.ID, chi.URLParam(r, "blockID"), *req.SplitIndex)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, []docmodel.Block{first, second})
}

// handleBlockImage serves the bytes of an image block.
func (s *Server) handleBlockImage(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.BlockImage(r.Context(), ownerID(r), chi.URLParam(r, "blockID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Write(data)
}

// ownedDocument loads {docID} for the caller, writing the error response
// itself when that fails.
func (s *Server) ownedDocument(w http.ResponseWriter, r *http.Request) (*docmodel.Document, bool) {
	doc, err := s.store.GetDocument(r.Context(), ownerID(r), chi.URLParam(r, "docID"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return doc, true
}
