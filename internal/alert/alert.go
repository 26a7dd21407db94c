// Package alert notifies subscribers when a pipeline run surfaces domains
// that pass their personal filters. Email goes out through SES, an optional
// Slack webhook gets a channel-wide summary, and every delivery is recorded
// for auditing.
package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"domain-finder/internal/common/config"
	apperrors "domain-finder/internal/common/errors"
	commonhttp "domain-finder/internal/common/http"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/common/metrics"
	"domain-finder/internal/scoring"
	"domain-finder/internal/store"
)

// EmailSender is satisfied by the SES wrapper; tests swap in a fake.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SMSSender is satisfied by the SNS wrapper.
type SMSSender interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// SubscriptionStore is the slice of the alert store the service needs.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context, activeOnly bool) ([]store.AlertSubscription, error)
	RecordDelivery(ctx context.Context, subscriptionID int64, channel string, domainCount int) error
}

type Service struct {
	cfg    config.AlertsConfig
	email  EmailSender
	sms    SMSSender
	subs   SubscriptionStore
	client *commonhttp.Client
	logger logger.Logger
}

func NewService(cfg config.AlertsConfig, email EmailSender, sms SMSSender, subs SubscriptionStore, log logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		email:  email,
		sms:    sms,
		subs:   subs,
		client: commonhttp.NewClient(10 * time.Second),
		logger: log,
	}
}

// Notify fans a batch of freshly scored domains out to every active
// subscriber whose filters match, then posts the Slack summary. Returns the
// number of deliveries made. Per-subscriber failures are logged and skipped
// so one bad address cannot starve the rest.
func (s *Service) Notify(ctx context.Context, domains []store.Domain) (int, error) {
	if !s.cfg.Enabled || len(domains) == 0 {
		return 0, nil
	}

	subs, err := s.subs.ListSubscriptions(ctx, true)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, sub := range subs {
		matched := filterForSubscription(domains, sub)
		if len(matched) == 0 {
			continue
		}
		if s.cfg.MaxDomainsEmail > 0 && len(matched) > s.cfg.MaxDomainsEmail {
			matched = matched[:s.cfg.MaxDomainsEmail]
		}

		if err := s.sendEmail(ctx, sub, matched); err != nil {
			metrics.AlertsSent.WithLabelValues("email", "error").Inc()
			s.logger.WithError(err).Error("Alert email failed", map[string]interface{}{
				"email": sub.Email,
			})
			continue
		}
		metrics.AlertsSent.WithLabelValues("email", "ok").Inc()
		sent++

		if err := s.subs.RecordDelivery(ctx, sub.ID, "email", len(matched)); err != nil {
			s.logger.WithError(err).Warn("Failed to record alert delivery", map[string]interface{}{
				"subscription_id": sub.ID,
			})
		}

		if sub.Phone != nil {
			if err := s.sendSMS(ctx, sub, matched); err != nil {
				metrics.AlertsSent.WithLabelValues("sms", "error").Inc()
				s.logger.WithError(err).Warn("Alert SMS failed", map[string]interface{}{
					"subscription_id": sub.ID,
				})
			} else if s.cfg.AWS.SNS.Enabled && s.sms != nil {
				metrics.AlertsSent.WithLabelValues("sms", "ok").Inc()
				_ = s.subs.RecordDelivery(ctx, sub.ID, "sms", len(matched))
			}
		}
	}

	if err := s.notifySlack(ctx, domains); err != nil {
		metrics.AlertsSent.WithLabelValues("slack", "error").Inc()
		s.logger.WithError(err).Warn("Slack notification failed", nil)
	} else if s.cfg.Slack.Enabled {
		metrics.AlertsSent.WithLabelValues("slack", "ok").Inc()
	}

	return sent, nil
}

// filterForSubscription applies one subscriber's thresholds.
func filterForSubscription(domains []store.Domain, sub store.AlertSubscription) []store.Domain {
	var matched []store.Domain
	for _, d := range domains {
		if d.QualityScore < sub.MinQualityScore {
			continue
		}
		if sub.MinDomainAge != nil && d.AgeDays < *sub.MinDomainAge {
			continue
		}
		if sub.MaxDomainAge != nil && d.AgeDays > *sub.MaxDomainAge {
			continue
		}
		if sub.MinBacklinks != nil && d.BacklinkCount < *sub.MinBacklinks {
			continue
		}
		matched = append(matched, d)
	}
	return matched
}

func (s *Service) sendEmail(ctx context.Context, sub store.AlertSubscription, domains []store.Domain) error {
	if !s.cfg.AWS.SES.Enabled || s.email == nil {
		return nil
	}

	subject := fmt.Sprintf("%d new domain opportunities (score >= %.0f)", len(domains), sub.MinQualityScore)
	body := buildEmailBody(domains)

	input := &ses.SendEmailInput{
		Source: awssdk.String(s.cfg.AWS.SES.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{sub.Email},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(body)},
			},
		},
	}

	if _, err := s.email.SendEmail(ctx, input); err != nil {
		return apperrors.NewAlertSendFailedError("email", err)
	}
	return nil
}

// sendSMS pushes a one-line summary to the subscriber's phone. Kept short;
// SMS is a nudge, the email carries the details.
func (s *Service) sendSMS(ctx context.Context, sub store.AlertSubscription, domains []store.Domain) error {
	if !s.cfg.AWS.SNS.Enabled || s.sms == nil || sub.Phone == nil {
		return nil
	}

	best := domains[0]
	msg := fmt.Sprintf("domain-finder: %d matches, best %s (%.1f %s)",
		len(domains), best.FullName(), best.QualityScore, best.Grade)

	input := &sns.PublishInput{
		PhoneNumber: sub.Phone,
		Message:     awssdk.String(msg),
	}
	if s.cfg.AWS.SNS.DefaultSMSSenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(s.cfg.AWS.SNS.DefaultSMSSenderID),
			},
		}
	}

	if _, err := s.sms.Publish(ctx, input); err != nil {
		return apperrors.NewAlertSendFailedError("sms", err)
	}
	return nil
}

func buildEmailBody(domains []store.Domain) string {
	var b strings.Builder
	b.WriteString("New high-quality expired domains:\n\n")
	for _, d := range domains {
		b.WriteString(fmt.Sprintf("  %-30s score %5.1f  grade %s  est. $%.0f-$%.0f  %s\n",
			d.FullName(), d.QualityScore, d.Grade,
			d.PriceEstimateLow, d.PriceEstimateHigh,
			scoring.Recommendation(d.QualityScore)))
	}
	b.WriteString("\nHappy hunting.\n")
	return b.String()
}

// slackPayload is the minimal incoming-webhook message format.
type slackPayload struct {
	Text string `json:"text"`
}

func (s *Service) notifySlack(ctx context.Context, domains []store.Domain) error {
	if !s.cfg.Slack.Enabled || s.cfg.Slack.WebhookURL == "" {
		return nil
	}

	top := domains
	if len(top) > 5 {
		top = top[:5]
	}
	var lines []string
	lines = append(lines, fmt.Sprintf("*%d domains scored this run.* Top picks:", len(domains)))
	for _, d := range top {
		lines = append(lines, fmt.Sprintf("• `%s` — %.1f (%s), %s",
			d.FullName(), d.QualityScore, d.Grade, scoring.Recommendation(d.QualityScore)))
	}

	payload := slackPayload{Text: strings.Join(lines, "\n")}
	if _, err := s.client.PostJSON(ctx, s.cfg.Slack.WebhookURL, nil, payload, nil); err != nil {
		return apperrors.NewAlertSendFailedError("slack", err)
	}
	return nil
}
