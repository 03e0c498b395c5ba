package controllers

import (
	"net/http"

	"github.com/angelmondragon/yoypulse/api/responses"
	"github.com/angelmondragon/yoypulse/internal/export"
	"github.com/angelmondragon/yoypulse/internal/pulse"
	pkgerrors "github.com/angelmondragon/yoypulse/pkg/errors"
	"github.com/angelmondragon/yoypulse/pkg/logger"
)

// ExportRankings downloads the decliner and grower lists, ranked from one
// population read, as one workbook.
func ExportRankings(svc pulse.Service, exp *export.Exporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, sample, err := rankingQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pair, err := svc.RankingPair(r.Context(), limit, sample)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		f, err := exp.Rankings(pair.Decliners.Rows, pair.Growers.Rows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build workbook"))
			return
		}
		body, err := export.Bytes(f)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write workbook"))
			return
		}
		responses.WriteAttachment(w, export.ContentType, "rankings.xlsx", body)
	}
}

func ExportOnePager(svc pulse.Service, exp *export.Exporter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := customerIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bundle, err := svc.OnePager(r.Context(), id, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		f, err := exp.OnePager(*bundle)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build workbook"))
			return
		}
		body, err := export.Bytes(f)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write workbook"))
			return
		}
		responses.WriteAttachment(w, export.ContentType, id+".xlsx", body)
	}
}
