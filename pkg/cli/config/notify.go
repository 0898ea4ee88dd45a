package config

import (
	"github.com/urfave/cli/v3"

	"github.com/gift-mpho/portfolio-gateway/pkg/domain/interfaces"
	"github.com/gift-mpho/portfolio-gateway/pkg/service/notify"
	"github.com/gift-mpho/portfolio-gateway/pkg/utils/logging"
)

// Notify holds CLI flags for contact form delivery.
type Notify struct {
	slackWebhookURL string
}

// Flags returns CLI flags for notification configuration
func (n *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for contact form delivery",
			Sources:     cli.EnvVars("GATEWAY_SLACK_WEBHOOK_URL"),
			Destination: &n.slackWebhookURL,
		},
	}
}

// Configure returns the contact notifier, or nil when delivery is not
// configured.
func (n *Notify) Configure() interfaces.Notifier {
	if n.slackWebhookURL == "" {
		logging.Default().Info("Slack webhook not configured, contact delivery disabled")
		return nil
	}
	logging.Default().Info("Slack contact delivery enabled")
	return notify.NewSlack(n.slackWebhookURL)
}
