package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
	"github.com/gift-mpho/portfolio-gateway/pkg/usecase"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/errutil"
)

// maxContactBodyBytes caps the request body before JSON parsing. The
// fields together are bounded well under this.
const maxContactBodyBytes = 16 << 10

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var msg model.ContactMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContactBodyBytes)).Decode(&msg); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	result, err := s.uc.Contact.Submit(ctx, &msg)
	if err != nil {
		if goerr.HasTag(err, usecase.ErrTagValidation) {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
