package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"

	"github.com/example/ranco-loyalty/internal/config"
	"github.com/example/ranco-loyalty/internal/models"
	"github.com/example/ranco-loyalty/internal/services"
	"github.com/example/ranco-loyalty/internal/utils"
)

const totpIssuer = "Ranco"

// OwnerHandler manages owner login and the TOTP second-factor lifecycle.
type OwnerHandler struct {
	db  *gorm.DB
	cfg *config.Config
	geo *services.GeoService
}

// NewOwnerHandler constructs an OwnerHandler.
func NewOwnerHandler(db *gorm.DB, cfg *config.Config, geo *services.GeoService) *OwnerHandler {
	return &OwnerHandler{db: db, cfg: cfg, geo: geo}
}

type ownerLoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	AccessCode string `json:"accessCode" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// Login checks the submitted credentials against the single owner
// identity. Every attempt, failed or not, is recorded as a LoginSession.
func (h *OwnerHandler) Login(c *fiber.Ctx) error {
	var req ownerLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	owner, err := h.ensureOwner()
	if err != nil {
		return err
	}

	match := req.Email == owner.Email &&
		req.AccessCode == owner.AccessCode &&
		utils.CheckPassword(owner.PasswordHash, req.Password)

	h.recordSession(c, req.Email, match)

	if !match {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	now := time.Now()
	if err := h.db.Model(owner).Update("last_login_at", now).Error; err != nil {
		return err
	}

	if owner.TOTPEnabled {
		return c.JSON(fiber.Map{
			"success":  true,
			"needs2FA": true,
		})
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, owner.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
	})
}

type twoFactorLoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// TwoFactorLogin completes a login that was answered with needs2FA.
func (h *OwnerHandler) TwoFactorLogin(c *fiber.Ctx) error {
	var req twoFactorLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	var owner models.Owner
	if err := h.db.Where("email = ?", req.Email).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !owner.TOTPEnabled || !totp.Validate(req.Code, owner.TOTPSecret) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid verification code")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, owner.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
	})
}

// TwoFactorSetup provisions a new TOTP secret, disabled until verified.
func (h *OwnerHandler) TwoFactorSetup(c *fiber.Ctx) error {
	owner, err := h.ensureOwner()
	if err != nil {
		return err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: owner.Email,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate totp secret")
	}

	updates := map[string]interface{}{
		"totp_secret":  key.Secret(),
		"totp_enabled": false,
	}
	if err := h.db.Model(owner).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"secret":     key.Secret(),
		"otpauthUrl": key.URL(),
	})
}

type twoFactorCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// TwoFactorVerify enables the second factor once the owner proves control
// of the provisioned secret.
func (h *OwnerHandler) TwoFactorVerify(c *fiber.Ctx) error {
	var req twoFactorCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	owner, err := h.ensureOwner()
	if err != nil {
		return err
	}

	if owner.TOTPSecret == "" {
		return fiber.NewError(fiber.StatusBadRequest, "two-factor is not provisioned")
	}

	if !totp.Validate(req.Code, owner.TOTPSecret) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid verification code")
	}

	if err := h.db.Model(owner).Update("totp_enabled", true).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"enabled": true,
	})
}

// TwoFactorDisable turns off the second factor and forgets the secret.
func (h *OwnerHandler) TwoFactorDisable(c *fiber.Ctx) error {
	owner, err := h.ensureOwner()
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"totp_secret":  "",
		"totp_enabled": false,
	}
	if err := h.db.Model(owner).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"enabled": false,
	})
}

// ensureOwner materializes the configured owner identity into storage on
// first use, hashing the configured password at rest.
func (h *OwnerHandler) ensureOwner() (*models.Owner, error) {
	var owner models.Owner
	err := h.db.Where("email = ?", h.cfg.OwnerEmail).First(&owner).Error
	if err == nil {
		return &owner, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(h.cfg.OwnerPassword)
	if err != nil {
		return nil, err
	}

	owner = models.Owner{
		Email:        h.cfg.OwnerEmail,
		AccessCode:   h.cfg.OwnerAccessCode,
		PasswordHash: hash,
	}
	if err := h.db.Create(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := h.db.Where("email = ?", h.cfg.OwnerEmail).First(&owner).Error; err != nil {
				return nil, err
			}
			return &owner, nil
		}
		return nil, err
	}

	return &owner, nil
}

func (h *OwnerHandler) recordSession(c *fiber.Ctx, email string, success bool) {
	device := services.ParseDevice(c.Get("User-Agent"))
	geo := h.geo.Lookup(c.IP())

	session := models.LoginSession{
		OwnerEmail: email,
		Success:    success,
		IP:         c.IP(),
		Browser:    device.Browser,
		OS:         device.OS,
		Device:     device.Kind,
		Country:    geo.Country,
		Region:     geo.Region,
		City:       geo.City,
		Latitude:   geo.Latitude,
		Longitude:  geo.Longitude,
	}

	// Audit rows are write-only telemetry; a failed insert must not block login.
	h.db.Create(&session)
}
