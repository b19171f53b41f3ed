package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
)

// ErrSMSNotConfigured is returned when the SMS gateway credentials are absent.
var ErrSMSNotConfigured = errors.New("sms transport is not configured")

// SMSSender delivers a single SMS message.
type SMSSender interface {
	SendSMS(phone, message string) error
}

// SMSService sends messages through an Eskiz-style HTTP gateway.
type SMSService struct {
	apiURL string
	token  string
	from   string
}

// NewSMSService creates a new SMSService.
func NewSMSService(apiURL, token, from string) *SMSService {
	return &SMSService{
		apiURL: apiURL,
		token:  token,
		from:   from,
	}
}

type smsPayload struct {
	MobilePhone string `json:"mobile_phone"`
	Message     string `json:"message"`
	From        string `json:"from"`
}

// SendSMS posts one message to the gateway.
func (s *SMSService) SendSMS(phone, message string) error {
	if s.apiURL == "" || s.token == "" {
		return ErrSMSNotConfigured
	}

	payload := smsPayload{
		MobilePhone: phone,
		Message:     message,
		From:        s.from,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL+"/message/sms/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("[SMS] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[SMS] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	return nil
}
