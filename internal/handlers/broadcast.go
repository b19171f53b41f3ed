package handlers

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ranco-loyalty/internal/models"
	"github.com/example/ranco-loyalty/internal/services"
)

// BroadcastHandler fans out campaigns to subscribed or selected customers.
type BroadcastHandler struct {
	db   *gorm.DB
	sms  services.SMSSender
	mail services.MailSender
}

// NewBroadcastHandler constructs a BroadcastHandler.
func NewBroadcastHandler(db *gorm.DB, sms services.SMSSender, mail services.MailSender) *BroadcastHandler {
	return &BroadcastHandler{db: db, sms: sms, mail: mail}
}

type broadcastRequest struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Body         string   `json:"body" validate:"required,max=2000"`
	RecipientIDs []string `json:"recipientIds"`
}

type broadcastCounts struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// BroadcastSMS sends a campaign over the phone channel.
func (h *BroadcastHandler) BroadcastSMS(c *fiber.Ctx) error {
	return h.handle(c, []string{models.ChannelPhone})
}

// BroadcastEmail sends a campaign over the email channel.
func (h *BroadcastHandler) BroadcastEmail(c *fiber.Ctx) error {
	return h.handle(c, []string{models.ChannelEmail})
}

// Broadcast is the legacy endpoint covering both channels at once.
func (h *BroadcastHandler) Broadcast(c *fiber.Ctx) error {
	return h.handle(c, []string{models.ChannelPhone, models.ChannelEmail})
}

func (h *BroadcastHandler) handle(c *fiber.Ctx, channels []string) error {
	var req broadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	total := broadcastCounts{}
	for _, channel := range channels {
		counts, err := h.run(channel, &req)
		if err != nil {
			return err
		}
		total.Sent += counts.Sent
		total.Failed += counts.Failed
		total.Skipped += counts.Skipped
	}

	return c.JSON(fiber.Map{
		"success": true,
		"sent":    total.Sent,
		"failed":  total.Failed,
		"skipped": total.Skipped,
	})
}

// run delivers one campaign over one channel. Deliveries are concurrent
// and independent per recipient; individual failures never abort the batch.
func (h *BroadcastHandler) run(channel string, req *broadcastRequest) (broadcastCounts, error) {
	customers, skipped, err := h.audience(channel, req.RecipientIDs)
	if err != nil {
		return broadcastCounts{}, err
	}

	message := models.BroadcastMessage{
		Channel: channel,
		Title:   req.Title,
		Body:    req.Body,
	}
	if err := h.db.Create(&message).Error; err != nil {
		return broadcastCounts{}, err
	}

	counts := broadcastCounts{Skipped: skipped}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, customer := range customers {
		recipient := recipientAddress(channel, &customer)
		if recipient == "" {
			counts.Skipped++
			continue
		}

		wg.Add(1)
		go func(customer models.Customer, recipient string) {
			defer wg.Done()

			sendErr := h.send(channel, recipient, req.Title, req.Body)

			delivery := models.MessageDelivery{
				MessageID:  message.ID,
				CustomerID: customer.ID,
				Recipient:  recipient,
				Status:     models.DeliveryStatusSent,
			}
			if sendErr != nil {
				delivery.Status = models.DeliveryStatusFailed
				delivery.Error = sendErr.Error()
			}
			h.db.Create(&delivery)

			mu.Lock()
			if sendErr != nil {
				counts.Failed++
			} else {
				counts.Sent++
			}
			mu.Unlock()
		}(customer, recipient)
	}
	wg.Wait()

	updates := map[string]interface{}{
		"sent":    counts.Sent,
		"failed":  counts.Failed,
		"skipped": counts.Skipped,
	}
	if err := h.db.Model(&message).Updates(updates).Error; err != nil {
		return counts, err
	}

	return counts, nil
}

// audience resolves the recipient list: explicitly selected customers, or
// everyone subscribed to the channel. Unknown or malformed ids count as
// skipped rather than failing the run.
func (h *BroadcastHandler) audience(channel string, recipientIDs []string) ([]models.Customer, int, error) {
	if len(recipientIDs) > 0 {
		ids := make([]uuid.UUID, 0, len(recipientIDs))
		skipped := 0
		for _, raw := range recipientIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				skipped++
				continue
			}
			ids = append(ids, id)
		}

		var customers []models.Customer
		if len(ids) > 0 {
			if err := h.db.Where("id IN ?", ids).Find(&customers).Error; err != nil {
				return nil, 0, err
			}
		}
		skipped += len(ids) - len(customers)
		return customers, skipped, nil
	}

	var customers []models.Customer
	err := h.db.
		Joins("JOIN message_subscriptions ON message_subscriptions.customer_id = customers.id AND message_subscriptions.channel = ?", channel).
		Find(&customers).Error
	if err != nil {
		return nil, 0, err
	}
	return customers, 0, nil
}

func (h *BroadcastHandler) send(channel, recipient, title, body string) error {
	if channel == models.ChannelPhone {
		return h.sms.SendSMS(recipient, title+"\n"+body)
	}
	return h.mail.SendMail(recipient, title, body)
}

func recipientAddress(channel string, customer *models.Customer) string {
	if channel == models.ChannelPhone {
		return customer.Phone
	}
	return customer.Email
}
