package usecase

import (
	"context"

	"github.com/m-mizutani/gollem"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/interfaces"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/logging"
)

// HealthUseCase probes the two external dependencies the gateway cannot
// work without: the LLM provider and the persistence backend.
type HealthUseCase struct {
	repo interfaces.Repository
	llm  gollem.LLMClient
}

func NewHealthUseCase(repo interfaces.Repository, llm gollem.LLMClient) *HealthUseCase {
	return &HealthUseCase{repo: repo, llm: llm}
}

// Check always returns a status report; probe failures degrade the
// report instead of failing the call.
func (uc *HealthUseCase) Check(ctx context.Context) *model.HealthStatus {
	logger := logging.From(ctx)

	report := &model.HealthStatus{
		Status:      model.HealthOK,
		ProviderKey: model.ProviderKeyValid,
		StoreStatus: model.StoreConnected,
	}

	if err := uc.probeProvider(ctx); err != nil {
		logger.Warn("provider health probe failed", "error", err)
		report.ProviderKey = model.ProviderKeyInvalid
		report.Status = model.HealthDegraded
	}

	if err := uc.repo.Ping(ctx); err != nil {
		logger.Warn("store health probe failed", "error", err)
		report.StoreStatus = model.StoreDisconnected
		report.Status = model.HealthDegraded
	}

	return report
}

// probeProvider issues a minimal generation to confirm the provider accepts
// our credentials. A tiny prompt keeps the probe cheap.
func (uc *HealthUseCase) probeProvider(ctx context.Context) error {
	session, err := uc.llm.NewSession(ctx)
	if err != nil {
		return err
	}
	_, err = session.GenerateContent(ctx, gollem.Text("ping"))
	return err
}
