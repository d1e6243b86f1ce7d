package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/doctorportal/internal/domain/service"
	"github.com/gin-gonic/gin"
)

type AvailabilityReader interface {
	Services(ctx context.Context) ([]service.Service, error)
	ForDate(ctx context.Context, date string) ([]service.Service, error)
}

type ServicesHandler struct {
	avail AvailabilityReader
}

func NewServicesHandler(avail AvailabilityReader) *ServicesHandler {
	return &ServicesHandler{avail: avail}
}

func (h *ServicesHandler) ListServices(ctx *gin.Context) {
	cctx, cancel := storeContext(ctx)
	defer cancel()

	services, err := h.avail.Services(cctx)
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "services.list_failed", "err", err)
		RespondInternal(ctx, "Could not list services")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, services)
}

// Available answers GET /available?date=. The date is an opaque key matched
// verbatim against stored bookings.
func (h *ServicesHandler) Available(ctx *gin.Context) {
	date, ok := ctx.GetQuery("date")
	if !ok || date == "" {
		RespondBadRequest(ctx, "Query parameter date is required", gin.H{
			"fields": []FieldError{{Field: "date", Rule: "required", Message: validationMessage("required", "")}},
		})
		return
	}

	cctx, cancel := storeContext(ctx)
	defer cancel()

	services, err := h.avail.ForDate(cctx, date)
	if err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "availability.compute_failed", "date", date, "err", err)
		RespondInternal(ctx, "Could not compute availability")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, services)
}
