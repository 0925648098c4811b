package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/modelboard/api/internal/model"
	"github.com/modelboard/api/internal/repository"
	"github.com/modelboard/api/internal/service"
	"github.com/modelboard/api/pkg/response"
)

type ProfileHandler struct {
	service   *service.ProfileService
	validator *validator.Validate
}

func NewProfileHandler(svc *service.ProfileService, v *validator.Validate) *ProfileHandler {
	return &ProfileHandler{
		service:   svc,
		validator: v,
	}
}

// List handles GET /api/profiles?lang=
func (h *ProfileHandler) List(c *fiber.Ctx) error {
	result, err := h.service.List(c.Context(), c.Query("lang"))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, result)
}

// Get handles GET /api/profiles/:id?lang=
// The bio is returned in lang when that translation is done, otherwise in
// the source language.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.ValidationError(c, "Profile ID is required", nil)
	}

	result, err := h.service.Get(c.Context(), id, c.Query("lang"))
	if err != nil {
		return profileError(c, err)
	}
	return response.OK(c, result)
}

// Create handles POST /api/profiles
func (h *ProfileHandler) Create(c *fiber.Ctx) error {
	var req model.ProfileCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Create(c.Context(), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.Created(c, result)
}

// UpdateBio handles PUT /api/profiles/:id/bio
func (h *ProfileHandler) UpdateBio(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.ValidationError(c, "Profile ID is required", nil)
	}

	var req model.BioUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.UpdateBio(c.Context(), id, &req)
	if err != nil {
		return profileError(c, err)
	}
	return response.OK(c, result)
}

// Translations handles GET /api/profiles/:id/translations
func (h *ProfileHandler) Translations(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.ValidationError(c, "Profile ID is required", nil)
	}

	result, err := h.service.TranslationStatus(c.Context(), id)
	if err != nil {
		return profileError(c, err)
	}
	return response.OK(c, result)
}

func profileError(c *fiber.Ctx, err error) error {
	if errors.Is(err, repository.ErrProfileNotFound) {
		return response.NotFound(c, "Profile not found")
	}
	return response.ServiceError(c, err.Error())
}

func formatValidationErrors(err error) interface{} {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string)
		for _, e := range validationErrors {
			fields[e.Field()] = e.Tag()
		}
		return fields
	}
	return nil
}
