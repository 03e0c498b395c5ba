package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/yoypulse/api/responses"
	"github.com/angelmondragon/yoypulse/internal/formulas"
	pkgerrors "github.com/angelmondragon/yoypulse/pkg/errors"
	"github.com/angelmondragon/yoypulse/pkg/logger"
)

func ListFormulas(reg *formulas.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"contexts": reg.Contexts()})
	}
}

func GetFormula(reg *formulas.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := reg.Lookup(chi.URLParam(r, "context"))
		if errors.Is(err, formulas.ErrUnknownContext) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "unknown formula context"))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, f)
	}
}
