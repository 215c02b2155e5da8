package controllers

import (
	"net/http"

	"github.com/clinicware/medipos-backend/api/responses"
	"github.com/clinicware/medipos-backend/api/validators"
	"github.com/clinicware/medipos-backend/internal/customers"
	"github.com/clinicware/medipos-backend/pkg/db/models"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
	"github.com/clinicware/medipos-backend/pkg/logger"
	"github.com/clinicware/medipos-backend/pkg/pagination"
)

type customerPageResponse struct {
	Items      []models.Customer `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// CustomerList returns one page of the tenant's recorded buyers, newest first.
func CustomerList(svc *customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), tenantID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customerPageResponse{
			Items:      page.Items,
			NextCursor: page.NextCursor,
		})
	}
}

func CustomerGet(svc *customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := pathUUID(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Get(r.Context(), tenantID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, customer)
	}
}
