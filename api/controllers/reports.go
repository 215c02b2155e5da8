package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/clinicware/medipos-backend/api/responses"
	"github.com/clinicware/medipos-backend/api/validators"
	"github.com/clinicware/medipos-backend/internal/reports"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
	"github.com/clinicware/medipos-backend/pkg/logger"
)

func reportRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := validators.ParseQueryDate(r, "from", time.Time{})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := validators.ParseQueryDate(r, "to", time.Time{})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	// "to" is a date, the range is half-open at the following midnight
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "to must not precede from")
	}
	return from, to, nil
}

// ReportMonthlySummaries returns per-month revenue with daily sub-buckets.
func ReportMonthlySummaries(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, to, err := reportRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summaries, err := svc.MonthlySummaries(r.Context(), tenantID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summaries)
	}
}

// ReportTopProducts ranks products by units sold in the requested window.
func ReportTopProducts(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, to, err := reportRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.TopProducts(r.Context(), tenantID, from, to, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

// ReportExport streams the tenant's sales in the requested window as a file.
// The format comes from the route: csv, xlsx or pdf.
func ReportExport(svc *reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reports service unavailable"))
			return
		}

		tenantID, err := tenantIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, to, err := reportRange(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		format := routeParam(r, "format")
		switch format {
		case "csv", "xlsx", "pdf":
		default:
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "unsupported export format").WithDetails(map[string]any{"format": format}))
			return
		}

		sales, err := svc.Sales(r.Context(), tenantID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filename := fmt.Sprintf("sales-%s.%s", time.Now().UTC().Format("20060102"), format)
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)

		switch format {
		case "csv":
			w.Header().Set("Content-Type", "text/csv")
			err = reports.WriteCSV(w, sales)
		case "xlsx":
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			err = reports.WriteXLSX(w, sales)
		case "pdf":
			w.Header().Set("Content-Type", "application/pdf")
			err = reports.WritePDF(w, "Sales Report", sales)
		}
		if err != nil && logg != nil {
			logg.Error(r.Context(), "report export failed", err)
		}
	}
}
