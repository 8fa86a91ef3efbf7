package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WhatsAppConfig configures the Fonnte gateway.
type WhatsAppConfig struct {
	URL         string
	Token       string
	CountryCode string
	AdminPhone  string
	Title       string
	StoreName   string
	Timeout     time.Duration
}

type WhatsApp struct {
	cfg    WhatsAppConfig
	client *http.Client
}

func NewWhatsApp(cfg WhatsAppConfig, client *http.Client) (*WhatsApp, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("fonnte token is required")
	}
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("fonnte url is required")
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &WhatsApp{cfg: cfg, client: client}, nil
}

func (w *WhatsApp) Name() string { return "whatsapp" }

type fonnteRequest struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

type fonnteResponse struct {
	Status  *bool  `json:"status"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (w *WhatsApp) NotifyOrderPaid(ctx context.Context, contact Contact, order OrderSummary) error {
	targets := make([]string, 0, 2)
	if phone := NormalizePhone(contact.Phone, w.cfg.CountryCode); phone != "" {
		targets = append(targets, phone)
	}
	if admin := NormalizePhone(w.cfg.AdminPhone, w.cfg.CountryCode); admin != "" {
		targets = append(targets, admin)
	}
	if len(targets) == 0 {
		return ErrNoRecipient
	}

	return w.send(ctx, strings.Join(targets, ","), PaidMessage(w.cfg.Title, w.cfg.StoreName, order))
}

func (w *WhatsApp) send(ctx context.Context, target, message string) error {
	body, err := json.Marshal(fonnteRequest{Target: target, Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	// Fonnte expects the raw token, not a bearer credential.
	req.Header.Set("Authorization", w.cfg.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("fonnte request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var decoded fonnteResponse
	_ = json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fonnte http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if decoded.Status != nil && !*decoded.Status {
		reason := decoded.Reason
		if reason == "" {
			reason = decoded.Message
		}
		return fmt.Errorf("fonnte rejected message: %s", reason)
	}
	return nil
}
