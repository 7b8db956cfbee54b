package payment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/metergate/adapters/payment"
	"github.com/artpar/metergate/domain/billing"
	"github.com/artpar/metergate/ports"
)

func TestDummyProvider_CreateAndFind(t *testing.T) {
	p := payment.NewDummyProvider("http://localhost:8080/success")
	ctx := context.Background()

	created, err := p.CreateCustomer(ctx, "alice@example.com", "user-1")
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}

	byUser, found, err := p.FindCustomerByUserID(ctx, "user-1")
	if err != nil || !found {
		t.Fatalf("find by user id: found=%v err=%v", found, err)
	}
	if byUser.ID != created.ID {
		t.Errorf("ID = %s, want %s", byUser.ID, created.ID)
	}

	byEmail, found, err := p.FindCustomerByEmail(ctx, "alice@example.com")
	if err != nil || !found {
		t.Fatalf("find by email: found=%v err=%v", found, err)
	}
	if byEmail.ID != created.ID {
		t.Errorf("ID = %s, want %s", byEmail.ID, created.ID)
	}
}

func TestDummyProvider_TagCustomer(t *testing.T) {
	p := payment.NewDummyProvider("")
	ctx := context.Background()

	p.AddCustomer(ports.Customer{ID: "cus_1", Email: "bob@example.com"})

	if err := p.TagCustomer(ctx, "cus_1", "user-2"); err != nil {
		t.Fatalf("tag customer: %v", err)
	}

	c, found, _ := p.FindCustomerByUserID(ctx, "user-2")
	if !found {
		t.Fatal("expected tagged customer to be found by user id")
	}
	if c.ID != "cus_1" {
		t.Errorf("ID = %s, want cus_1", c.ID)
	}
}

func TestDummyProvider_VerifyWebhook(t *testing.T) {
	p := payment.NewDummyProvider("")

	payload := []byte(`{
		"type": "customer.subscription.created",
		"data": {"object": {"customer": "cus_1", "metadata": {"user_id": "user-1"}}}
	}`)

	ev, err := p.VerifyWebhook(payload, payment.DummySignature)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ev.Kind != billing.KindActivated {
		t.Errorf("Kind = %s, want activated", ev.Kind)
	}
	if ev.UserID != "user-1" || ev.CustomerID != "cus_1" {
		t.Errorf("got user=%q customer=%q", ev.UserID, ev.CustomerID)
	}
}

func TestDummyProvider_VerifyWebhook_BadSignature(t *testing.T) {
	p := payment.NewDummyProvider("")

	_, err := p.VerifyWebhook([]byte(`{}`), "wrong")
	if !errors.Is(err, payment.ErrBadSignature) {
		t.Errorf("err = %v, want ErrBadSignature", err)
	}
}

func TestNewProvider_Modes(t *testing.T) {
	tests := []struct {
		name    string
		cfg     payment.FactoryConfig
		wantErr bool
	}{
		{"dummy", payment.FactoryConfig{Mode: "dummy"}, false},
		{"stripe missing key", payment.FactoryConfig{Mode: "stripe"}, true},
		{"stripe missing webhook secret", payment.FactoryConfig{Mode: "stripe", StripeSecretKey: "sk_test"}, true},
		{"stripe", payment.FactoryConfig{Mode: "stripe", StripeSecretKey: "sk_test", StripeWebhookSecret: "whsec"}, false},
		{"unknown", payment.FactoryConfig{Mode: "paypal"}, true},
		{"test is not a mode", payment.FactoryConfig{Mode: "test"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := payment.NewProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
