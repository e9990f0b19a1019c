package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apierrors "github.com/coldspark/outreach/pkg/api/errors"
	"github.com/coldspark/outreach/pkg/dispatch"
	"github.com/coldspark/outreach/pkg/warmup"
)

// JobsHandler exposes manual triggers for the dispatch and warm-up jobs.
// The cron scheduler calls the same run methods; these endpoints exist for
// operators and integration tests.
type JobsHandler struct {
	dispatcher *dispatch.Dispatcher
	warmup     *warmup.Controller
	validator  *validator.Validate
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(dispatcher *dispatch.Dispatcher, controller *warmup.Controller) *JobsHandler {
	return &JobsHandler{
		dispatcher: dispatcher,
		warmup:     controller,
		validator:  validator.New(),
	}
}

// TriggerDispatchRequest is the optional body for a manual dispatch run.
type TriggerDispatchRequest struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=50"`
}

// TriggerDispatchHandler godoc
// @Summary Trigger a campaign dispatch run
// @Description Runs one dispatch batch for every active schedule. An optional limit overrides the per-campaign batch size.
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body TriggerDispatchRequest false "Run configuration"
// @Success 200 {object} dispatch.Summary "Run summary"
// @Failure 400 {object} models.ErrorResponse "Invalid request body"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /jobs/dispatch [post]
func (h *JobsHandler) TriggerDispatchHandler(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Minute)
	defer cancel()

	var req TriggerDispatchRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return apierrors.ValidationError(c, err)
		}
		if err := h.validator.Struct(&req); err != nil {
			return apierrors.ValidationError(c, err)
		}
	}

	summary, err := h.dispatcher.RunWithLimit(ctx, req.Limit)
	if err != nil {
		return apierrors.InternalError(c, err)
	}

	return c.JSON(http.StatusOK, summary)
}

// TriggerWarmupHandler godoc
// @Summary Trigger a warm-up run
// @Description Checks every warm-up candidate account and sends at most one warm-up email per account that is due.
// @Tags Jobs
// @Produce json
// @Success 200 {object} warmup.Summary "Run summary"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /jobs/warmup [post]
func (h *JobsHandler) TriggerWarmupHandler(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Minute)
	defer cancel()

	summary, err := h.warmup.Run(ctx)
	if err != nil {
		return apierrors.InternalError(c, err)
	}

	return c.JSON(http.StatusOK, summary)
}
