package controllers

import (
	"net/http"

	"github.com/angelmondragon/yoypulse/api/responses"
	"github.com/angelmondragon/yoypulse/internal/pulse"
	"github.com/angelmondragon/yoypulse/pkg/logger"
)

// Narrative asks the language model for recommendations on one customer.
func Narrative(svc pulse.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithCustomerID(ctx, id)
		}

		result, err := svc.Narrative(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
