package email

import (
	"context"
	"net/smtp"
	"strings"
	"testing"
)

func TestSendTemplateRendersOrderPaid(t *testing.T) {
	var gotAddr string
	var gotTo []string
	var gotMsg string

	p := NewSMTP(Config{Host: "mail.local", Port: 1025, From: "shop@example.com"})
	p.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		if a != nil {
			t.Fatalf("expected no auth without username")
		}
		return nil
	}

	err := p.SendTemplate(context.Background(), []string{"buyer@example.com"}, "order_paid", map[string]interface{}{
		"subject":     "Payment received for order_1",
		"store_name":  "HotKicks",
		"external_id": "order_1",
		"total":       "Rp 800.000",
		"items": []struct {
			Name     string
			Quantity int
			Price    string
		}{{Name: "Air Force 1", Quantity: 1, Price: "Rp 800.000"}},
	})
	if err != nil {
		t.Fatalf("send template: %v", err)
	}
	if gotAddr != "mail.local:1025" || len(gotTo) != 1 {
		t.Fatalf("unexpected envelope %s %v", gotAddr, gotTo)
	}
	for _, want := range []string{"Subject: Payment received for order_1", "order_1", "Air Force 1", "Rp 800.000"} {
		if !strings.Contains(gotMsg, want) {
			t.Fatalf("expected message to contain %q", want)
		}
	}
}

func TestSendTemplateUnknown(t *testing.T) {
	p := NewSMTP(Config{Host: "mail.local", Port: 1025})
	if err := p.SendTemplate(context.Background(), []string{"a@example.com"}, "missing", nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}
