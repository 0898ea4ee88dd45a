package http

import (
	"net/http"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.uc.Health.Check(r.Context())

	code := http.StatusOK
	if report.Status != model.HealthOK {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, report)
}
