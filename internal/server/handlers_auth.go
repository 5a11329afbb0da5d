package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and password required"})
		return
	}

	if err := s.creds.Register(req.Username, req.Password); err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("user registered", zap.String("username", req.Username))
	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := s.creds.Authenticate(req.Username, req.Password); err != nil {
		s.writeError(w, err)
		return
	}

	sess := s.sessions.CreateSession(uuid.NewString(), r.RemoteAddr)
	sess.SetUserID(req.Username)

	s.logger.Info("user logged in", zap.String("username", req.Username))
	writeJSON(w, http.StatusOK, map[string]string{
		"token":    sess.ID,
		"username": req.Username,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		s.writeError(w, errUnauthorized)
		return
	}
	s.sessions.RemoveSession(token)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
