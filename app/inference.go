package app

import (
	"context"
	"fmt"

	"github.com/artpar/metergate/ports"
	"github.com/rs/zerolog"
)

// InferenceResult is the outcome of a metered inference call.
type InferenceResult struct {
	Result string
	Usage  int64
}

// InferenceService runs the metered capability behind the quota gate.
type InferenceService struct {
	quota  *QuotaService
	model  ports.Model
	logger zerolog.Logger
}

// NewInferenceService creates a new inference service.
func NewInferenceService(quotaService *QuotaService, model ports.Model, logger zerolog.Logger) *InferenceService {
	return &InferenceService{
		quota:  quotaService,
		model:  model,
		logger: logger,
	}
}

// Run checks and consumes quota for the user, then invokes the model.
// Quota denial surfaces as ErrQuotaExceeded before the model is touched.
func (s *InferenceService) Run(ctx context.Context, userID, prompt string) (InferenceResult, error) {
	decision, err := s.quota.CheckAndConsume(ctx, userID)
	if err != nil {
		return InferenceResult{}, err
	}

	result, err := s.model.Infer(ctx, prompt)
	if err != nil {
		// The increment already happened; one counted-but-failed call is the
		// accepted worst case rather than holding a cross-record transaction.
		return InferenceResult{}, fmt.Errorf("inference: %w", err)
	}

	return InferenceResult{Result: result, Usage: decision.Usage}, nil
}
