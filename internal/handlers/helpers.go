package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ranco-loyalty/internal/models"
)

var validate = validator.New()

// validationError turns validator failures into a 400 response carrying
// per-field details.
func validationError(c *fiber.Ctx, err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	fields := make([]fiber.Map, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		fields = append(fields, fiber.Map{
			"field": fe.Field(),
			"rule":  fe.Tag(),
		})
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "validation failed",
		"fields":  fields,
	})
}

// findCustomer resolves a customer id string to a stored record.
func findCustomer(db *gorm.DB, idStr string) (*models.Customer, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid customer id")
	}

	var customer models.Customer
	if err := db.First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "customer not found")
		}
		return nil, err
	}

	return &customer, nil
}
