package notify

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/interfaces"
	"github.com/gift-mpho/portfolio-gateway/pkg/domain/model"
)

// SlackNotifier posts contact-form submissions to a Slack incoming
// webhook.
type SlackNotifier struct {
	webhookURL string
}

var _ interfaces.Notifier = &SlackNotifier{}

func NewSlack(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL}
}

func (n *SlackNotifier) Notify(ctx context.Context, msg *model.ContactMessage) error {
	payload := &slack.WebhookMessage{
		Text: fmt.Sprintf("📬 New contact form submission\n*From:* %s <%s>\n%s", msg.Name, msg.Email, msg.Message),
	}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, payload); err != nil {
		return goerr.Wrap(err, "failed to post contact message to slack")
	}
	return nil
}
