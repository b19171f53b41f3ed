package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/ranco-loyalty/internal/models"
	"github.com/example/ranco-loyalty/internal/services"
	"github.com/example/ranco-loyalty/internal/utils"
)

// VerificationHandler sends and confirms per-channel one-time codes.
type VerificationHandler struct {
	db   *gorm.DB
	sms  services.SMSSender
	mail services.MailSender
}

// NewVerificationHandler constructs a VerificationHandler.
func NewVerificationHandler(db *gorm.DB, sms services.SMSSender, mail services.MailSender) *VerificationHandler {
	return &VerificationHandler{db: db, sms: sms, mail: mail}
}

type sendCodeRequest struct {
	CustomerID string `json:"customerId" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=phone email"`
}

// Send generates a fresh 4-digit code for the selected channel,
// overwriting any outstanding one, and dispatches it. The code itself is
// never returned to the caller.
func (h *VerificationHandler) Send(c *fiber.Ctx) error {
	var req sendCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	customer, err := findCustomer(h.db, req.CustomerID)
	if err != nil {
		return err
	}

	if req.Type == models.ChannelEmail && customer.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "customer has no email on file")
	}

	if customer.ChannelVerified(req.Type) {
		return c.JSON(fiber.Map{
			"success": true,
			"status":  "already_verified",
		})
	}

	code, err := utils.GenerateVerificationCode()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate verification code")
	}

	if err := h.db.Model(customer).Update(codeColumn(req.Type), code).Error; err != nil {
		return err
	}

	if err := h.dispatch(customer, req.Type, code); err != nil {
		if errors.Is(err, services.ErrSMSNotConfigured) {
			return fiber.NewError(fiber.StatusInternalServerError, "sms transport is not configured")
		}
		if errors.Is(err, services.ErrMailNotConfigured) {
			return fiber.NewError(fiber.StatusInternalServerError, "mail transport is not configured")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to send verification code")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"status":  "sent",
	})
}

func (h *VerificationHandler) dispatch(customer *models.Customer, channel, code string) error {
	if channel == models.ChannelPhone {
		return h.sms.SendSMS(customer.Phone, fmt.Sprintf("Your Ranco verification code: %s", code))
	}
	return h.mail.SendMail(customer.Email, "Your Ranco verification code",
		fmt.Sprintf("Hi %s,\n\nYour verification code is %s.\n", customer.FirstName, code))
}

type confirmCodeRequest struct {
	CustomerID string `json:"customerId" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=phone email"`
	Code       string `json:"code" validate:"required,len=4,numeric"`
}

// Confirm checks a submitted code against the stored one for the channel.
// The check-and-flip is a single guarded update so concurrent confirms for
// the same channel cannot both pass.
func (h *VerificationHandler) Confirm(c *fiber.Ctx) error {
	var req confirmCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	customer, err := findCustomer(h.db, req.CustomerID)
	if err != nil {
		return err
	}

	if customer.ChannelVerified(req.Type) {
		return c.JSON(fiber.Map{
			"success":         true,
			"status":          "already_verified",
			"isPhoneVerified": customer.IsPhoneVerified,
			"isEmailVerified": customer.IsEmailVerified,
			"isVerified":      customer.IsVerified,
		})
	}

	col := codeColumn(req.Type)
	flag := verifiedColumn(req.Type)

	result := h.db.Model(&models.Customer{}).
		Where("id = ? AND "+col+" = ? AND "+flag+" = ?", customer.ID, req.Code, false).
		Updates(map[string]interface{}{col: nil, flag: true})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid or expired code")
	}

	promoted, err := h.promoteIfFullyVerified(customer.ID.String())
	if err != nil {
		return err
	}

	var updated models.Customer
	if err := h.db.First(&updated, "id = ?", customer.ID).Error; err != nil {
		return err
	}

	resp := fiber.Map{
		"success":         true,
		"isPhoneVerified": updated.IsPhoneVerified,
		"isEmailVerified": updated.IsEmailVerified,
		"isVerified":      updated.IsVerified,
	}
	if promoted {
		resp["discountCode"] = updated.DiscountCode
	}

	return c.JSON(resp)
}

// promoteIfFullyVerified flips is_verified once both channels are
// confirmed, stamps consent_given_at on that first transition, and opts
// consented customers into broadcast subscriptions.
func (h *VerificationHandler) promoteIfFullyVerified(id string) (bool, error) {
	promoted := false

	err := h.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Customer{}).
			Where("id = ? AND is_phone_verified = ? AND is_email_verified = ? AND is_verified = ?",
				id, true, true, false).
			Update("is_verified", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		promoted = true

		var customer models.Customer
		if err := tx.First(&customer, "id = ?", id).Error; err != nil {
			return err
		}

		if (customer.ConsentSMS || customer.ConsentEmail) && customer.ConsentGivenAt == nil {
			now := time.Now()
			if err := tx.Model(&customer).Update("consent_given_at", now).Error; err != nil {
				return err
			}
		}

		if customer.ConsentSMS {
			sub := models.MessageSubscription{CustomerID: customer.ID, Channel: models.ChannelPhone}
			if err := tx.Create(&sub).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
		}
		if customer.ConsentEmail {
			sub := models.MessageSubscription{CustomerID: customer.ID, Channel: models.ChannelEmail}
			if err := tx.Create(&sub).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
		}

		return nil
	})

	return promoted, err
}

func codeColumn(channel string) string {
	if channel == models.ChannelPhone {
		return "phone_verification_code"
	}
	return "email_verification_code"
}

func verifiedColumn(channel string) string {
	if channel == models.ChannelPhone {
		return "is_phone_verified"
	}
	return "is_email_verified"
}
