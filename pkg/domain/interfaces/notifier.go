package interfaces

import (
	"context"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
)

// Notifier delivers a contact-form submission to its destination.
type Notifier interface {
	Notify(ctx context.Context, msg *model.ContactMessage) error
}
