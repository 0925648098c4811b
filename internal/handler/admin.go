package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/modelboard/api/internal/model"
	"github.com/modelboard/api/internal/service"
	"github.com/modelboard/api/pkg/response"
)

// AdminHandler serves the operator translation endpoints
type AdminHandler struct {
	service   *service.ProfileService
	validator *validator.Validate
}

func NewAdminHandler(svc *service.ProfileService, v *validator.Validate) *AdminHandler {
	return &AdminHandler{
		service:   svc,
		validator: v,
	}
}

// Retranslate handles POST /api/admin/translations/retranslate
func (h *AdminHandler) Retranslate(c *fiber.Ctx) error {
	var req model.RetranslateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Retranslate(c.Context(), &req)
	if err != nil {
		return profileError(c, err)
	}
	return response.Accepted(c, result)
}

// Sweep handles POST /api/admin/translations/sweep
func (h *AdminHandler) Sweep(c *fiber.Ctx) error {
	var req model.SweepRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.ValidationError(c, "Invalid request body", nil)
		}
	}

	result, err := h.service.EnqueueSweep(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrQueueUnavailable) {
			return response.Unavailable(c, "Task queue not available")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.Accepted(c, result)
}
