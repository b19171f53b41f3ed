package handlers

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/ranco-loyalty/internal/models"
	"github.com/example/ranco-loyalty/internal/utils"
)

// CustomersHandler serves the admin customer listing and exports.
type CustomersHandler struct {
	db *gorm.DB
}

// NewCustomersHandler constructs a CustomersHandler.
func NewCustomersHandler(db *gorm.DB) *CustomersHandler {
	return &CustomersHandler{db: db}
}

// List returns registered customers with pagination and search.
func (h *CustomersHandler) List(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Customer{})

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?) OR phone LIKE ?",
			pattern, pattern, pattern,
		)
	}

	if verified := c.Query("verified"); verified != "" {
		query = query.Where("is_verified = ?", verified == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var customers []models.Customer
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&customers).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    customers,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// ExportJSON dumps every customer as JSON.
func (h *CustomersHandler) ExportJSON(c *fiber.Ctx) error {
	var customers []models.Customer
	if err := h.db.Order("created_at asc").Find(&customers).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    customers,
	})
}

var csvHeader = []string{
	"id", "first_name", "last_name", "phone", "email", "country",
	"discount_code", "is_verified", "consent_sms", "consent_email", "created_at",
}

// ExportCSV dumps every customer as a CSV attachment.
func (h *CustomersHandler) ExportCSV(c *fiber.Ctx) error {
	var customers []models.Customer
	if err := h.db.Order("created_at asc").Find(&customers).Error; err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, customer := range customers {
		record := []string{
			customer.ID.String(),
			customer.FirstName,
			customer.LastName,
			customer.Phone,
			customer.Email,
			customer.Country,
			customer.DiscountCode,
			strconv.FormatBool(customer.IsVerified),
			strconv.FormatBool(customer.ConsentSMS),
			strconv.FormatBool(customer.ConsentEmail),
			customer.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="customers.csv"`)
	return c.Send(buf.Bytes())
}
