package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/qstudy/internal/contracts"
	"github.com/wonny/qstudy/internal/studyconfig"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var verr studyconfig.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, studyconfig.ErrStudyNotFound):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrInsufficientData),
		errors.Is(err, contracts.ErrMisalignedSeries),
		errors.Is(err, contracts.ErrDegenerateReturns),
		errors.Is(err, contracts.ErrInvalidPrice),
		errors.Is(err, contracts.ErrAllocationLength),
		errors.Is(err, contracts.ErrNoScoredAllocations),
		errors.Is(err, contracts.ErrNoEvents):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
