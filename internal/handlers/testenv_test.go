package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/ranco-loyalty/internal/config"
	"github.com/example/ranco-loyalty/internal/database"
	"github.com/example/ranco-loyalty/internal/routes"
	"github.com/example/ranco-loyalty/internal/services"
)

type sentSMS struct {
	Phone   string
	Message string
}

type stubSMS struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (s *stubSMS) SendSMS(phone, message string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentSMS{Phone: phone, Message: message})
	return nil
}

func (s *stubSMS) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type stubMail struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (s *stubMail) SendMail(to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (s *stubMail) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type testEnv struct {
	app  *fiber.App
	db   *gorm.DB
	cfg  *config.Config
	sms  *stubSMS
	mail *stubMail
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// In-memory SQLite: a single connection keeps concurrent handler
	// writes serialized and the shared schema visible.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		TokenExpires:    time.Hour,
		StaticAPIToken:  "static-test-token",
		OwnerEmail:      "owner@ranco.rest",
		OwnerAccessCode: "RANCO-42",
		OwnerPassword:   "sup3rsecret",
	}

	env := &testEnv{
		db:   db,
		cfg:  cfg,
		sms:  &stubSMS{},
		mail: &stubMail{},
	}

	env.app = fiber.New()
	routes.Register(env.app, db, cfg, routes.Deps{
		SMS:  env.sms,
		Mail: env.mail,
		Geo:  services.NewGeoService("", time.Second),
	})

	return env
}

// request performs one in-process HTTP round trip and decodes a JSON body
// when there is one.
func (e *testEnv) request(t *testing.T, method, path string, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.app.Test(req, 10000)
	require.NoError(t, err)

	var parsed map[string]interface{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		// Error paths may answer with a plain-text body.
		_ = json.Unmarshal(data, &parsed)
	}

	return resp, parsed
}

func (e *testEnv) adminHeaders() map[string]string {
	return map[string]string{"X-API-Token": e.cfg.StaticAPIToken}
}

func registerPayload(overrides map[string]interface{}) map[string]interface{} {
	payload := map[string]interface{}{
		"firstName":   "Ada",
		"lastName":    "Lovelace",
		"country":     "US",
		"phoneNumber": "+15551234567",
	}
	for k, v := range overrides {
		payload[k] = v
	}
	return payload
}
