package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ranco-loyalty/internal/models"
)

func seedCustomer(t *testing.T, env *testEnv, phone, email string) *models.Customer {
	t.Helper()

	customer := models.Customer{
		FirstName:    "Seed",
		LastName:     "Customer",
		Phone:        phone,
		Email:        email,
		Country:      "US",
		DiscountCode: "RC10-" + phone[len(phone)-6:],
	}
	require.NoError(t, env.db.Create(&customer).Error)
	return &customer
}

func TestBroadcastSMSToSelectedRecipients(t *testing.T) {
	env := newTestEnv(t)
	first := seedCustomer(t, env, "+15550000001", "")
	second := seedCustomer(t, env, "+15550000002", "")

	resp, body := env.request(t, "POST", "/api/owner/broadcast/sms", map[string]interface{}{
		"title":        "Weekend special",
		"body":         "Two for one on everything.",
		"recipientIds": []string{first.ID.String(), second.ID.String()},
	}, env.adminHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["sent"])
	assert.EqualValues(t, 0, body["failed"])
	assert.EqualValues(t, 0, body["skipped"])
	assert.Equal(t, 2, env.sms.count())

	var deliveries []models.MessageDelivery
	require.NoError(t, env.db.Find(&deliveries).Error)
	require.Len(t, deliveries, 2)
	for _, d := range deliveries {
		assert.Equal(t, models.DeliveryStatusSent, d.Status)
	}
}

func TestBroadcastEmailSkipsMissingAddress(t *testing.T) {
	env := newTestEnv(t)
	withEmail := seedCustomer(t, env, "+15550000003", "a@example.com")
	noEmail := seedCustomer(t, env, "+15550000004", "")

	resp, body := env.request(t, "POST", "/api/owner/broadcast/email", map[string]interface{}{
		"title":        "Newsletter",
		"body":         "News.",
		"recipientIds": []string{withEmail.ID.String(), noEmail.ID.String()},
	}, env.adminHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["sent"])
	assert.EqualValues(t, 1, body["skipped"])
	assert.Equal(t, 1, env.mail.count())
}

func TestBroadcastRecordsFailures(t *testing.T) {
	env := newTestEnv(t)
	env.sms.err = errors.New("gateway down")
	customer := seedCustomer(t, env, "+15550000005", "")

	resp, body := env.request(t, "POST", "/api/owner/broadcast/sms", map[string]interface{}{
		"title":        "Oops",
		"body":         "This will fail.",
		"recipientIds": []string{customer.ID.String()},
	}, env.adminHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode, "per-recipient failures never abort the batch")
	assert.EqualValues(t, 0, body["sent"])
	assert.EqualValues(t, 1, body["failed"])

	var delivery models.MessageDelivery
	require.NoError(t, env.db.First(&delivery).Error)
	assert.Equal(t, models.DeliveryStatusFailed, delivery.Status)
	assert.Equal(t, "gateway down", delivery.Error)
}

func TestBroadcastDefaultsToSubscribers(t *testing.T) {
	env := newTestEnv(t)
	subscribed := seedCustomer(t, env, "+15550000006", "")
	seedCustomer(t, env, "+15550000007", "")

	require.NoError(t, env.db.Create(&models.MessageSubscription{
		CustomerID: subscribed.ID,
		Channel:    models.ChannelPhone,
	}).Error)

	resp, body := env.request(t, "POST", "/api/owner/broadcast/sms", map[string]interface{}{
		"title": "Members only",
		"body":  "Hello subscribers.",
	}, env.adminHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["sent"])
	require.Equal(t, 1, env.sms.count())
	assert.Equal(t, subscribed.Phone, env.sms.sent[0].Phone)
}

func TestBroadcastCountsUnknownRecipientsAsSkipped(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.request(t, "POST", "/api/broadcast", map[string]interface{}{
		"title":        "Ghost run",
		"body":         "Nobody home.",
		"recipientIds": []string{"not-a-uuid", "4b4bd731-90ae-4c0c-8571-0bd483e7e3e5"},
	}, env.adminHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body["sent"])
	// Legacy broadcast fans out over both channels, so both runs skip both ids.
	assert.EqualValues(t, 4, body["skipped"])
}

func TestBroadcastRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, "POST", "/api/broadcast", map[string]interface{}{
		"title": "x", "body": "y",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBroadcastValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.request(t, "POST", "/api/broadcast", map[string]interface{}{
		"title": "", "body": "",
	}, env.adminHeaders())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
