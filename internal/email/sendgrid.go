package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

type SendGridSender struct {
	apiKey    string
	fromName  string
	fromEmail string
	endpoint  string
	client    *http.Client
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridRequest struct {
	Personalizations []struct {
		To []sendGridAddress `json:"to"`
	} `json:"personalizations"`
	From    sendGridAddress   `json:"from"`
	Subject string            `json:"subject"`
	Content []sendGridContent `json:"content"`
}

func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	return &SendGridSender{
		apiKey:    apiKey,
		fromName:  fromName,
		fromEmail: fromEmail,
		endpoint:  sendGridEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SendGridSender) SendFollowUpEmail(ctx context.Context, msg Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	htmlContent, err := renderFollowUp(msg)
	if err != nil {
		return err
	}

	var payload sendGridRequest
	payload.Personalizations = []struct {
		To []sendGridAddress `json:"to"`
	}{{To: []sendGridAddress{{Email: msg.To, Name: msg.ContactName}}}}
	payload.From = sendGridAddress{Email: s.fromEmail, Name: s.fromName}
	payload.Subject = msg.Subject
	payload.Content = []sendGridContent{
		{Type: "text/plain", Value: msg.Body},
		{Type: "text/html", Value: htmlContent},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("content-type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid send failed: status %d: %s", resp.StatusCode, string(data))
	}

	return nil
}
