package controllers

import (
	"bytes"
	"net/http"

	"github.com/angelmondragon/yoypulse/api/responses"
	"github.com/angelmondragon/yoypulse/internal/charts"
	"github.com/angelmondragon/yoypulse/internal/pulse"
	"github.com/angelmondragon/yoypulse/pkg/config"
	pkgerrors "github.com/angelmondragon/yoypulse/pkg/errors"
	"github.com/angelmondragon/yoypulse/pkg/logger"
)

// CustomerCharts serves the One-Pager chart preview. ?theme overrides the
// configured palette.
func CustomerCharts(svc pulse.Service, cfg config.ChartsConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		theme := cfg.Theme
		if q := r.URL.Query().Get("theme"); q != "" {
			if _, ok := charts.Theme(q); !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown theme").
					WithDetails(map[string]any{"themes": charts.ThemeNames()}))
				return
			}
			theme = q
		}

		bundle, err := svc.OnePager(r.Context(), id, r.URL.Query().Get("geo") == "ranked")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		if err := charts.CustomerPage(&buf, *bundle, charts.Options{Theme: theme, AssetsHost: cfg.AssetsHost}); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render charts"))
			return
		}
		responses.WriteHTML(w, buf.Bytes())
	}
}
