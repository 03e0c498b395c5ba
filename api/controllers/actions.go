package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/yoypulse/api/responses"
	"github.com/angelmondragon/yoypulse/api/validators"
	"github.com/angelmondragon/yoypulse/internal/actions"
	pkgerrors "github.com/angelmondragon/yoypulse/pkg/errors"
	"github.com/angelmondragon/yoypulse/pkg/logger"
	"github.com/angelmondragon/yoypulse/pkg/pagination"
)

type createActionsRequest struct {
	CustomerID   string   `json:"customer_id" validate:"required,max=64"`
	Descriptions []string `json:"descriptions" validate:"required,min=1,max=20,dive,required,max=2000"`
}

type updateActionRequest struct {
	Status string `json:"status" validate:"required,oneof=waiting in_progress complete"`
}

type statusCount struct {
	Status actions.Status `json:"status"`
	Label  string         `json:"label"`
	Count  int64          `json:"count"`
}

// ListActions pages through actions; ?cursor resumes from next_cursor.
func ListActions(svc actions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := actions.ListFilter{
			CustomerID: validators.SanitizeString(r.URL.Query().Get("customer_id"), maxCustomerIDLen),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := actions.ParseStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filter.Status = status
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListPage(r.Context(), filter, pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// CreateActions accepts one or more recommendations for a customer.
func CreateActions(svc actions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createActionsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.AddMany(r.Context(), req.CustomerID, req.Descriptions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func GetAction(svc actions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := actionIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		action, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, action)
	}
}

func UpdateAction(svc actions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := actionIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateActionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := svc.UpdateStatus(r.Context(), id, actions.Status(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, action)
	}
}

func DeleteAction(svc actions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := actionIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "deleted": true})
	}
}

func OverdueActions(svc actions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Overdue(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ActionCounts(svc actions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := svc.CountsByStatus(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]statusCount, 0, len(actions.Statuses))
		for _, s := range actions.Statuses {
			out = append(out, statusCount{Status: s, Label: s.Label(), Count: counts[s]})
		}
		responses.WriteSuccess(w, out)
	}
}
