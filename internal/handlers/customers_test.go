package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomersList(t *testing.T) {
	env := newTestEnv(t)
	seedCustomer(t, env, "+15550000010", "ada@example.com")
	seedCustomer(t, env, "+15550000011", "")

	resp, body := env.request(t, "GET", "/api/customers", nil, env.adminHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ := body["data"].([]interface{})
	assert.Len(t, data, 2)

	pagination, _ := body["pagination"].(map[string]interface{})
	require.NotNil(t, pagination)
	assert.EqualValues(t, 2, pagination["total_items"])
}

func TestCustomersListSearch(t *testing.T) {
	env := newTestEnv(t)
	seedCustomer(t, env, "+15550000012", "")
	target := seedCustomer(t, env, "+447700900123", "")

	resp, body := env.request(t, "GET", "/api/customers?search=4477", nil, env.adminHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ := body["data"].([]interface{})
	require.Len(t, data, 1)
	row, _ := data[0].(map[string]interface{})
	assert.Equal(t, target.Phone, row["phone"])
}

func TestExportCustomersCSV(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "+15550000013", "x@example.com")

	req := httptest.NewRequest("GET", "/api/export/customers.csv", nil)
	req.Header.Set("X-API-Token", env.cfg.StaticAPIToken)
	resp, err := env.app.Test(req, 10000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2, "header plus one customer row")
	assert.Contains(t, lines[0], "discount_code")
	assert.Contains(t, lines[1], customer.Phone)
	assert.Contains(t, lines[1], customer.DiscountCode)
}

func TestExportCustomersJSON(t *testing.T) {
	env := newTestEnv(t)
	seedCustomer(t, env, "+15550000014", "")

	resp, body := env.request(t, "GET", "/api/export/customers.json", nil, env.adminHeaders())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, _ := body["data"].([]interface{})
	assert.Len(t, data, 1)
}
