package services

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// SMSProvider sends one text message to one recipient.
type SMSProvider interface {
	Send(to, body string) error
	Name() string
}

// MockProvider logs messages instead of sending them. Default whenever
// Twilio credentials are absent.
type MockProvider struct {
	logger *logrus.Logger
}

func NewMockProvider(logger *logrus.Logger) *MockProvider {
	return &MockProvider{logger: logger}
}

func (p *MockProvider) Send(to, body string) error {
	p.logger.WithFields(logrus.Fields{
		"component": "alerts",
		"provider":  "mock",
		"to":        to,
	}).Infof("SMS (not sent): %s", body)
	return nil
}

func (p *MockProvider) Name() string { return "mock" }

// LineupChange is one starter slot whose occupant changed between runs.
// Previous is empty when the slot was previously unfilled.
type LineupChange struct {
	Slot     string `json:"slot"`
	Previous string `json:"previous,omitempty"`
	Current  string `json:"current"`
}

// AlertService formats and dispatches lineup alerts to the configured
// recipient, subject to the per-recipient rate limit.
type AlertService struct {
	logger    *logrus.Logger
	provider  SMSProvider
	limiter   *AlertRateLimiter
	recipient string
}

// NewAlertService creates a new alert service.
func NewAlertService(logger *logrus.Logger, provider SMSProvider, limiter *AlertRateLimiter, recipient string) *AlertService {
	return &AlertService{
		logger:    logger,
		provider:  provider,
		limiter:   limiter,
		recipient: recipient,
	}
}

// Configured reports whether a recipient is set up to receive alerts.
func (s *AlertService) Configured() bool {
	return s.recipient != ""
}

// ProviderName identifies the active SMS backend.
func (s *AlertService) ProviderName() string {
	return s.provider.Name()
}

// SendLineupAlert notifies the recipient that the recommended starters
// changed: the week, each changed slot, and the new projected total.
func (s *AlertService) SendLineupAlert(week int, changes []LineupChange, projectedTotal float64) error {
	if !s.Configured() {
		return fmt.Errorf("no alert recipient configured")
	}
	if len(changes) == 0 {
		return nil
	}
	return s.send(formatLineupAlert(week, changes, projectedTotal))
}

// SendTest delivers a fixed verification message, used by the admin API to
// prove the SMS path end to end.
func (s *AlertService) SendTest() error {
	if !s.Configured() {
		return fmt.Errorf("no alert recipient configured")
	}
	return s.send("Lineup Edge test alert: SMS delivery is working.")
}

func (s *AlertService) send(body string) error {
	if err := s.limiter.Allow(s.recipient); err != nil {
		return err
	}
	if err := s.provider.Send(s.recipient, body); err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"component": "alerts",
		"provider":  s.provider.Name(),
		"remaining": s.limiter.Remaining(s.recipient),
	}).Info("Alert sent")

	return nil
}

func formatLineupAlert(week int, changes []LineupChange, projectedTotal float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Week %d lineup update:\n", week)
	for _, change := range changes {
		switch {
		case change.Current == "":
			fmt.Fprintf(&b, "%s: %s out\n", change.Slot, change.Previous)
		case change.Previous == "":
			fmt.Fprintf(&b, "%s: start %s\n", change.Slot, change.Current)
		default:
			fmt.Fprintf(&b, "%s: %s in, %s out\n", change.Slot, change.Current, change.Previous)
		}
	}
	fmt.Fprintf(&b, "Projected total: %.1f", projectedTotal)
	return b.String()
}
