package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/interfaces"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/logging"
)

// ContactUseCase forwards contact form submissions to the configured
// notifier. Delivery failure is reported to the visitor as a failed
// status rather than an HTTP error: the submission itself was valid.
type ContactUseCase struct {
	notifier interfaces.Notifier
}

func NewContactUseCase(notifier interfaces.Notifier) *ContactUseCase {
	return &ContactUseCase{notifier: notifier}
}

func (uc *ContactUseCase) Submit(ctx context.Context, msg *model.ContactMessage) (*model.ContactResult, error) {
	if err := msg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid contact message", goerr.T(ErrTagValidation))
	}

	logger := logging.From(ctx)

	if uc.notifier == nil {
		logger.Warn("no notifier configured, contact message accepted but not delivered")
		return &model.ContactResult{
			Status: model.ContactStatusSent,
			Info:   "Message accepted. Delivery is not configured on this deployment.",
		}, nil
	}

	if err := uc.notifier.Notify(ctx, msg); err != nil {
		logger.Error("contact notification failed", "error", err)
		return &model.ContactResult{Status: model.ContactStatusFailed}, nil
	}

	logger.Info("contact message delivered")
	return &model.ContactResult{Status: model.ContactStatusSent}, nil
}
