package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/yoypulse/api/validators"
	pkgerrors "github.com/angelmondragon/yoypulse/pkg/errors"
)

const (
	maxCustomerIDLen = 64
	defaultLimit     = 50
	maxLimit         = 500
	maxSampleSize    = 100000
)

func customerIDParam(r *http.Request) (string, error) {
	id := validators.SanitizeString(chi.URLParam(r, "customerID"), maxCustomerIDLen)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return id, nil
}

func actionIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "actionID"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action id")
	}
	return id, nil
}

// rankingQuery reads limit and sample; a zero sample means the service default.
func rankingQuery(r *http.Request) (limit, sample int, err error) {
	limit, err = validators.ParseQueryInt(r, "limit", defaultLimit, 1, maxLimit)
	if err != nil {
		return 0, 0, err
	}
	sample, err = validators.ParseQueryInt(r, "sample", 0, 1, maxSampleSize)
	if err != nil {
		return 0, 0, err
	}
	return limit, sample, nil
}
