package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/afocalor/rair-dapp/internal/common"
	"github.com/afocalor/rair-dapp/internal/server/models"
	"github.com/afocalor/rair-dapp/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (s *HTTPServer) listFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.FileFilter{
		Title:      q.Get("title"),
		CategoryID: q.Get("category"),
		Uploader:   q.Get("uploader"),
	}
	if v := q.Get("demo"); v != "" {
		demo, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: demo must be a boolean", common.ErrorValidation))
			return
		}
		filter.Demo = &demo
	}

	files, err := s.svc.Files.ListFiles(r.Context(), filter, sessionOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": nonNil(files)})
}

// getFile answers with a null file when the id is unknown.
func (s *HTTPServer) getFile(w http.ResponseWriter, r *http.Request) {
	f, err := s.svc.Files.GetFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "file": f})
}

func (s *HTTPServer) updateFile(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Files.UpdateFile(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) filesForToken(w http.ResponseWriter, r *http.Request) {
	files, err := s.svc.Resolver.FilesForToken(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": len(files), "data": nonNil(files)})
}

func (s *HTTPServer) listFilesByCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q.Get("pageNum"), services.DefaultPage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	size, err := intParam(q.Get("itemsPerPage"), services.DefaultPageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.Files.ListFilesByCategory(r.Context(), chi.URLParam(r, "id"), page, size)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "totalCount": res.TotalCount, "files": nonNil(res.Files)})
}

type linkOffersRequest struct {
	Offers []string `json:"offers"`
}

func (s *HTTPServer) linkOffers(w http.ResponseWriter, r *http.Request) {
	var req linkOffersRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.svc.Files.LinkFileToOffers(r.Context(), chi.URLParam(r, "id"), req.Offers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "offer": u})
}

type unlinkOfferRequest struct {
	Offer string `json:"offer"`
}

func (s *HTTPServer) unlinkOffer(w http.ResponseWriter, r *http.Request) {
	var req unlinkOfferRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Offer == "" {
		s.writeError(w, r, fmt.Errorf("%w: offer is required", common.ErrorValidation))
		return
	}
	u, err := s.svc.Files.UnlinkFileFromOffer(r.Context(), chi.URLParam(r, "id"), req.Offer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "offer": u})
}

func (s *HTTPServer) getFileOffers(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Files.GetFileOffers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": u})
}

func (s *HTTPServer) streamLink(w http.ResponseWriter, r *http.Request) {
	link, err := s.svc.Media.StreamLink(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("token"), sessionOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"url":       link.URL,
		"expiresIn": int64(link.ExpiresIn.Seconds()),
	})
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q is not a positive integer", common.ErrorValidation, v)
	}
	return n, nil
}

func nonNil(files []*models.File) []*models.File {
	if files == nil {
		return []*models.File{}
	}
	return files
}
