package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ledgerflow/ledgerflow/internal/common"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondError maps application error codes onto HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := ""

	var appErr *common.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	switch {
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, common.ErrCorruptFile), errors.Is(err, common.ErrFileNotFound):
		status = http.StatusUnprocessableEntity
	}

	respondJSON(w, status, errorBody{Error: err.Error(), Code: code})
}
