package server

import (
	"encoding/json"
	"net/http"

	"github.com/valhq/flowscope/pkg/errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

// writeRawJSON serves a pre-marshalled body, used for cache hits.
func (s *Server) writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Error("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "err", err)
	}
	s.writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  string(errors.GetCode(err)),
	})
}

func statusFor(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeInvalidInput),
		errors.Is(err, errors.ErrCodeInvalidAlgorithm),
		errors.Is(err, errors.ErrCodeInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeDockerUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrCodeTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
