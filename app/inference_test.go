package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/metergate/adapters/model"
	"github.com/artpar/metergate/app"
	"github.com/rs/zerolog"
)

func TestInferenceRun(t *testing.T) {
	f := newQuotaFixture(t)
	svc := app.NewInferenceService(f.service, model.Echo{}, zerolog.Nop())

	res, err := svc.Run(context.Background(), "user-1", "hello")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Result != "Echo: hello" {
		t.Errorf("Result = %q", res.Result)
	}
	if res.Usage != 1 {
		t.Errorf("Usage = %d, want 1", res.Usage)
	}
}

func TestInferenceRun_QuotaDeniedSkipsModel(t *testing.T) {
	f := newQuotaFixture(t)
	f.service.UpdateLimits(app.Limits{FreeQuota: 0, ProQuota: 100})
	svc := app.NewInferenceService(f.service, model.Echo{}, zerolog.Nop())

	_, err := svc.Run(context.Background(), "user-1", "hello")
	if !errors.Is(err, app.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
	if n, _ := f.usage.Count(context.Background(), "user-1", "2025-06"); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}
