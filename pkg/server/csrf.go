package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// csrfToken derives the CSRF token for a session id by HMAC-signing it
// with the server secret. The token is delivered in the shell and must
// accompany every action, on both transports.
func (s *Server) csrfToken(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	h := hmac.New(sha256.New, s.csrfSecret)
	h.Write([]byte(sessionID))
	return hex.EncodeToString(h.Sum(nil))
}

// verifyCSRF checks a presented token against the session's expected
// token in constant time.
func (s *Server) verifyCSRF(sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	expected := s.csrfToken(sessionID)
	return hmac.Equal([]byte(expected), []byte(token))
}
