package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ranco-loyalty/internal/models"
)

// Drafts untouched for this long are garbage-collected.
const DraftTTL = time.Hour

// DraftsHandler autosaves in-progress registration forms.
type DraftsHandler struct {
	db *gorm.DB
}

// NewDraftsHandler constructs a DraftsHandler.
func NewDraftsHandler(db *gorm.DB) *DraftsHandler {
	return &DraftsHandler{db: db}
}

type syncDraftRequest struct {
	DraftID string          `json:"draftId"`
	Payload json.RawMessage `json:"payload"`
}

// Sync upserts an autosave snapshot. The first call creates the draft and
// returns its id; later calls carry that id and refresh the snapshot.
func (h *DraftsHandler) Sync(c *fiber.Ctx) error {
	var req syncDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if len(req.Payload) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "payload is required")
	}

	now := time.Now()

	if req.DraftID != "" {
		id, err := uuid.Parse(req.DraftID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid draft id")
		}

		var draft models.FormDraft
		err = h.db.First(&draft, "id = ?", id).Error
		if err == nil {
			updates := map[string]interface{}{
				"payload":        string(req.Payload),
				"last_active_at": now,
			}
			if err := h.db.Model(&draft).Updates(updates).Error; err != nil {
				return err
			}
			return c.JSON(fiber.Map{"success": true, "draftId": draft.ID})
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	draft := models.FormDraft{
		Payload:      string(req.Payload),
		LastActiveAt: now,
	}
	if err := h.db.Create(&draft).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"draftId": draft.ID,
	})
}

// List returns all outstanding drafts, most recently active first.
func (h *DraftsHandler) List(c *fiber.Ctx) error {
	var drafts []models.FormDraft
	if err := h.db.Order("last_active_at desc").Find(&drafts).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    drafts,
	})
}

// DeleteStaleDrafts removes drafts past the inactivity TTL. Called from
// the background sweeper in main.
func DeleteStaleDrafts(db *gorm.DB) error {
	cutoff := time.Now().Add(-DraftTTL)
	return db.Delete(&models.FormDraft{}, "last_active_at < ?", cutoff).Error
}
