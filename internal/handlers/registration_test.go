package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ranco-loyalty/internal/models"
)

func TestRegisterNewCustomer(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, "POST", "/api/register", registerPayload(nil), nil)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "verification_required", body["status"])
	require.NotEmpty(t, body["customerId"])
	assert.Nil(t, body["discountCode"], "discount code must be withheld until verification")

	var customer models.Customer
	require.NoError(t, env.db.First(&customer, "phone = ?", "+15551234567").Error)
	assert.False(t, customer.IsVerified)
	assert.False(t, customer.IsPhoneVerified)
	assert.False(t, customer.IsEmailVerified)
	assert.True(t, strings.HasPrefix(customer.DiscountCode, "RC10-"))
	assert.Len(t, customer.DiscountCode, len("RC10-")+6)
}

func TestRegisterDuplicatePhone(t *testing.T) {
	env := newTestEnv(t)

	resp, first := env.request(t, "POST", "/api/register", registerPayload(nil), nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, second := env.request(t, "POST", "/api/register", registerPayload(nil), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pending_verification", second["status"])
	assert.Equal(t, first["customerId"], second["customerId"])

	var count int64
	require.NoError(t, env.db.Model(&models.Customer{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "re-registration must never create a second row")
}

func TestRegisterAlreadyVerified(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.request(t, "POST", "/api/register", registerPayload(nil), nil)
	require.NotEmpty(t, body["customerId"])

	require.NoError(t, env.db.Model(&models.Customer{}).
		Where("phone = ?", "+15551234567").
		Update("is_verified", true).Error)

	resp, body := env.request(t, "POST", "/api/register", registerPayload(nil), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "verified", body["status"])
	assert.NotEmpty(t, body["discountCode"])
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name      string
		overrides map[string]interface{}
	}{
		{"missing first name", map[string]interface{}{"firstName": ""}},
		{"bad country", map[string]interface{}{"country": "USA"}},
		{"bad phone", map[string]interface{}{"phoneNumber": "not-a-phone"}},
		{"bad email", map[string]interface{}{"email": "not-an-email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.request(t, "POST", "/api/register", registerPayload(tt.overrides), nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			if fields, ok := body["fields"].([]interface{}); ok {
				assert.NotEmpty(t, fields)
			}
		})
	}
}

func TestRegisterDeletesDraft(t *testing.T) {
	env := newTestEnv(t)

	_, draftBody := env.request(t, "POST", "/api/sync/form-data",
		map[string]interface{}{"payload": map[string]interface{}{"firstName": "Ada"}}, nil)
	draftID, _ := draftBody["draftId"].(string)
	require.NotEmpty(t, draftID)

	resp, _ := env.request(t, "POST", "/api/register",
		registerPayload(map[string]interface{}{"draftId": draftID}), nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var count int64
	require.NoError(t, env.db.Model(&models.FormDraft{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "submission must delete its draft")
}
