package services

import (
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioProvider sends SMS through the Twilio REST API.
type TwilioProvider struct {
	client     *twilio.RestClient
	fromNumber string
	logger     *logrus.Logger
}

// NewTwilioProvider creates a Twilio-backed SMS provider.
func NewTwilioProvider(accountSID, authToken, fromNumber string, logger *logrus.Logger) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioProvider{
		client:     client,
		fromNumber: fromNumber,
		logger:     logger,
	}
}

func (p *TwilioProvider) Name() string { return "twilio" }

// Send delivers one message. The recipient number is normalized to E.164
// before the API call.
func (p *TwilioProvider) Send(to, body string) error {
	normalized, err := normalizePhoneNumber(to)
	if err != nil {
		return fmt.Errorf("invalid recipient number: %w", err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(normalized)
	params.SetFrom(p.fromNumber)
	params.SetBody(body)

	resp, err := p.client.Api.CreateMessage(params)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"component": "alerts",
			"provider":  "twilio",
		}).Errorf("Twilio send failed: %v", err)
		return mapTwilioError(err)
	}

	fields := logrus.Fields{
		"component": "alerts",
		"provider":  "twilio",
	}
	if resp.Sid != nil {
		fields["sid"] = *resp.Sid
	}
	p.logger.WithFields(fields).Info("SMS delivered")

	return nil
}

var (
	phoneStrip   = regexp.MustCompile(`[^\d+]`)
	phoneUSBare  = regexp.MustCompile(`^\d{10}$`)
	phoneE164    = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	phoneHasPlus = regexp.MustCompile(`^\+`)
)

// normalizePhoneNumber coerces a number into E.164 form. Bare ten-digit
// numbers are assumed to be US.
func normalizePhoneNumber(phone string) (string, error) {
	cleaned := phoneStrip.ReplaceAllString(phone, "")

	if !phoneHasPlus.MatchString(cleaned) {
		if !phoneUSBare.MatchString(cleaned) {
			return "", fmt.Errorf("invalid phone number format")
		}
		cleaned = "+1" + cleaned
	}

	if !phoneE164.MatchString(cleaned) {
		return "", fmt.Errorf("invalid phone number format")
	}

	return cleaned, nil
}

// mapTwilioError translates common Twilio failures into messages that do not
// leak API internals.
func mapTwilioError(err error) error {
	errStr := err.Error()
	switch {
	case regexp.MustCompile(`(?i)invalid.*phone.*number`).MatchString(errStr):
		return fmt.Errorf("invalid phone number")
	case regexp.MustCompile(`(?i)unverified.*number`).MatchString(errStr):
		return fmt.Errorf("phone number not verified for trial account")
	case regexp.MustCompile(`(?i)rate.*limit`).MatchString(errStr):
		return fmt.Errorf("too many SMS requests, try again later")
	default:
		return fmt.Errorf("failed to send SMS: %w", err)
	}
}
