package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProvider captures sent messages for assertions.
type recordingProvider struct {
	sent []string
	to   []string
	err  error
}

func (p *recordingProvider) Send(to, body string) error {
	if p.err != nil {
		return p.err
	}
	p.to = append(p.to, to)
	p.sent = append(p.sent, body)
	return nil
}

func (p *recordingProvider) Name() string { return "recording" }

func newTestAlertService(provider SMSProvider, limit int) *AlertService {
	return NewAlertService(quietLogger(), provider, NewAlertRateLimiter(limit, 24*time.Hour), "+15555550100")
}

func TestSendLineupAlertFormatsMessage(t *testing.T) {
	provider := &recordingProvider{}
	svc := newTestAlertService(provider, 10)

	changes := []LineupChange{
		{Slot: "FLEX", Previous: "Old Guy", Current: "New Guy"},
		{Slot: "TE", Current: "Fresh Starter"},
	}
	require.NoError(t, svc.SendLineupAlert(3, changes, 112.4))

	require.Len(t, provider.sent, 1)
	body := provider.sent[0]
	assert.Contains(t, body, "Week 3 lineup update")
	assert.Contains(t, body, "FLEX: New Guy in, Old Guy out")
	assert.Contains(t, body, "TE: start Fresh Starter")
	assert.Contains(t, body, "Projected total: 112.4")
	assert.Equal(t, "+15555550100", provider.to[0])
}

func TestSendLineupAlertSkipsWhenUnchanged(t *testing.T) {
	provider := &recordingProvider{}
	svc := newTestAlertService(provider, 10)

	require.NoError(t, svc.SendLineupAlert(3, nil, 100.0))
	assert.Empty(t, provider.sent)
}

func TestSendLineupAlertRequiresRecipient(t *testing.T) {
	svc := NewAlertService(quietLogger(), &recordingProvider{}, NewAlertRateLimiter(10, time.Hour), "")
	assert.False(t, svc.Configured())

	err := svc.SendLineupAlert(3, []LineupChange{{Slot: "QB", Current: "Someone"}}, 90.0)
	require.Error(t, err)
}

func TestAlertRateLimitEnforced(t *testing.T) {
	provider := &recordingProvider{}
	svc := newTestAlertService(provider, 2)

	change := []LineupChange{{Slot: "QB", Current: "Someone"}}
	require.NoError(t, svc.SendLineupAlert(3, change, 90.0))
	require.NoError(t, svc.SendTest())

	err := svc.SendTest()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alert limit reached")
	assert.Len(t, provider.sent, 2)
}

func TestAlertProviderFailureWrapped(t *testing.T) {
	provider := &recordingProvider{err: fmt.Errorf("carrier rejected")}
	svc := newTestAlertService(provider, 10)

	err := svc.SendTest()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send alert")
}

func TestAlertRateLimiterWindow(t *testing.T) {
	limiter := NewAlertRateLimiter(1, 10*time.Millisecond)

	require.NoError(t, limiter.Allow("+15555550100"))
	require.Error(t, limiter.Allow("+15555550100"))

	// A different recipient has its own budget.
	require.NoError(t, limiter.Allow("+15555550199"))

	time.Sleep(15 * time.Millisecond)
	require.NoError(t, limiter.Allow("+15555550100"), "window expiry frees the budget")
}

func TestAlertRateLimiterRemaining(t *testing.T) {
	limiter := NewAlertRateLimiter(3, time.Hour)
	assert.Equal(t, 3, limiter.Remaining("+15555550100"))

	require.NoError(t, limiter.Allow("+15555550100"))
	assert.Equal(t, 2, limiter.Remaining("+15555550100"))

	limiter.Reset()
	assert.Equal(t, 3, limiter.Remaining("+15555550100"))
}

func TestNormalizePhoneNumber(t *testing.T) {
	cases := map[string]string{
		"+15555550100":     "+15555550100",
		"5555550100":       "+15555550100",
		"(555) 555-0100":   "+15555550100",
		"+44 20 7946 0958": "+442079460958",
	}
	for input, want := range cases {
		got, err := normalizePhoneNumber(input)
		require.NoError(t, err, "normalizePhoneNumber(%q)", input)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "12345", "+0123456789", "555-0100"} {
		_, err := normalizePhoneNumber(bad)
		assert.Error(t, err, "normalizePhoneNumber(%q)", bad)
	}
}
