package controllers

import (
	"net/http"

	"github.com/angelmondragon/yoypulse/api/responses"
	"github.com/angelmondragon/yoypulse/internal/pulse"
	"github.com/angelmondragon/yoypulse/pkg/logger"
)

// OnePager decomposes one customer. ?geo=ranked orders branches worst first.
func OnePager(svc pulse.Service, logg *logger.Logger) http.HandlerFunc {
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

		bundle, err := svc.OnePager(ctx, id, r.URL.Query().Get("geo") == "ranked")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, bundle)
	}
}
