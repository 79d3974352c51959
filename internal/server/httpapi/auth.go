package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *HTTPServer) getChallenge(w http.ResponseWriter, r *http.Request) {
	typedData, err := s.svc.Auth.Challenge(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "response": typedData})
}

// checkAdmin answers {success: <admin rights>} for a signed challenge.
func (s *HTTPServer) checkAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := s.svc.Auth.CheckAdmin(r.Context(), chi.URLParam(r, "challenge"), chi.URLParam(r, "signature"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": admin})
}

func (s *HTTPServer) issueToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.svc.Auth.IssueToken(r.Context(), chi.URLParam(r, "challenge"), chi.URLParam(r, "signature"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "token": token})
}

func (s *HTTPServer) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Users.Get(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}

type registerUserRequest struct {
	PublicAddress string `json:"publicAddress"`
	AdminNFT      string `json:"adminNFT"`
}

func (s *HTTPServer) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.svc.Users.Register(r.Context(), req.PublicAddress, req.AdminNFT)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	if s.svc.Health != nil {
		if err := s.svc.Health(r.Context()); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
