package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ranco-loyalty/internal/models"
	"github.com/example/ranco-loyalty/internal/utils"
)

// Registration statuses returned to the web form.
const (
	StatusVerified             = "verified"
	StatusPendingVerification  = "pending_verification"
	StatusVerificationRequired = "verification_required"
)

const discountCodeAttempts = 5

// ErrCodeGeneration is returned when no unique discount code could be drawn.
var ErrCodeGeneration = errors.New("could not generate a unique discount code")

var drawDiscountCode = utils.GenerateDiscountCode

// RegistrationHandler turns form submissions into customer records.
type RegistrationHandler struct {
	db *gorm.DB
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(db *gorm.DB) *RegistrationHandler {
	return &RegistrationHandler{db: db}
}

type registerRequest struct {
	FirstName    string     `json:"firstName" validate:"required,min=1,max=100"`
	LastName     string     `json:"lastName" validate:"required,min=1,max=100"`
	Country      string     `json:"country" validate:"required,iso3166_1_alpha2"`
	PhoneNumber  string     `json:"phoneNumber" validate:"required,e164"`
	Email        string     `json:"email" validate:"omitempty,email"`
	AddressLine  string     `json:"addressLine" validate:"max=200"`
	City         string     `json:"city" validate:"max=100"`
	BirthDate    *time.Time `json:"birthDate"`
	Preferences  string     `json:"preferences" validate:"max=1000"`
	ConsentSMS   bool       `json:"consentSms"`
	ConsentEmail bool       `json:"consentEmail"`
	DraftID      string     `json:"draftId"`
}

// Register creates a new unverified customer, or reports the state of an
// existing one. The discount code is withheld until verification completes.
func (h *RegistrationHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	var existing models.Customer
	err := h.db.Where("phone = ?", req.PhoneNumber).First(&existing).Error
	if err == nil {
		return respondExisting(c, &existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	discountCode, err := generateUniqueDiscountCode(h.db)
	if err != nil {
		if errors.Is(err, ErrCodeGeneration) {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to generate discount code")
		}
		return err
	}

	customer := models.Customer{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.PhoneNumber,
		Email:        req.Email,
		Country:      req.Country,
		AddressLine:  req.AddressLine,
		City:         req.City,
		BirthDate:    req.BirthDate,
		Preferences:  req.Preferences,
		DiscountCode: discountCode,
		ConsentSMS:   req.ConsentSMS,
		ConsentEmail: req.ConsentEmail,
		IsVerified:   false,
	}

	if err := h.db.Create(&customer).Error; err != nil {
		// Lost the insert race on the phone unique index: answer as an
		// existing registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := h.db.Where("phone = ?", req.PhoneNumber).First(&existing).Error; err != nil {
				return err
			}
			return respondExisting(c, &existing)
		}
		return err
	}

	if req.DraftID != "" {
		if draftID, err := uuid.Parse(req.DraftID); err == nil {
			h.db.Delete(&models.FormDraft{}, "id = ?", draftID)
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success":    true,
		"status":     StatusVerificationRequired,
		"customerId": customer.ID,
	})
}

func respondExisting(c *fiber.Ctx, customer *models.Customer) error {
	if customer.IsVerified {
		return c.JSON(fiber.Map{
			"success":      true,
			"status":       StatusVerified,
			"discountCode": customer.DiscountCode,
		})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"status":     StatusPendingVerification,
		"customerId": customer.ID,
	})
}

// generateUniqueDiscountCode draws candidate codes until one is unused,
// giving up after a fixed number of collisions.
func generateUniqueDiscountCode(db *gorm.DB) (string, error) {
	for i := 0; i < discountCodeAttempts; i++ {
		code, err := drawDiscountCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := db.Model(&models.Customer{}).Where("discount_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}

	return "", ErrCodeGeneration
}
