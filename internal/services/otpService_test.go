package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circlecalc/internal/metrics"
	"circlecalc/internal/models"
)

type fakeNotifier struct {
	mu    sync.Mutex
	err   error
	sent  map[string]string
	calls int
}

func (n *fakeNotifier) Send(ctx context.Context, identifier, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.err != nil {
		return n.err
	}
	if n.sent == nil {
		n.sent = make(map[string]string)
	}
	n.sent[identifier] = code
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestOTPService(t *testing.T, n Notifier) (*otpService, *fakeClock, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	s := newOTPService(n, m)
	s.now = clock.Now
	return s, clock, m
}

func TestIssueChallenge_ReturnsSixDigitCode(t *testing.T) {
	s, _, _ := newTestOTPService(t, &fakeNotifier{})

	issued, err := s.IssueChallenge(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.Len(t, issued.Code, 6)
	_, err = strconv.Atoi(issued.Code)
	assert.NoError(t, err)
	assert.True(t, issued.Delivered)
}

func TestIssueChallenge_Validation(t *testing.T) {
	n := &fakeNotifier{}
	s, _, _ := newTestOTPService(t, n)

	_, err := s.IssueChallenge(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyIdentifier)

	_, err = s.IssueChallenge(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = s.IssueChallenge(context.Background(), "nobody@localhost")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = s.IssueChallenge(context.Background(), "nobody.example.com")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	assert.Equal(t, 0, n.calls, "invalid identifiers must not trigger delivery")
	assert.Empty(t, s.challenges)
}

func TestIssueChallenge_WeakFormatCheckOnly(t *testing.T) {
	s, _, _ := newTestOTPService(t, &fakeNotifier{})

	_, err := s.IssueChallenge(context.Background(), "@.")
	assert.NoError(t, err)
}

func TestIssueChallenge_SendsIssuedCode(t *testing.T) {
	n := &fakeNotifier{}
	s, _, _ := newTestOTPService(t, n)

	issued, err := s.IssueChallenge(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, issued.Code, n.sent["a@b.com"])
}

func TestIssueChallenge_DeliveryFailureKeepsCodeValid(t *testing.T) {
	n := &fakeNotifier{err: errors.New("connection refused")}
	s, _, m := newTestOTPService(t, n)

	issued, err := s.IssueChallenge(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.False(t, issued.Delivered)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmailDeliveryTotal.WithLabelValues("failed")))

	assert.Equal(t, models.VerifySuccess, s.VerifyChallenge(context.Background(), "a@b.com", issued.Code))
}

func TestIssueChallenge_EmailNotConfigured(t *testing.T) {
	s, _, m := newTestOTPService(t, NewEmailService(EmailConfig{}))

	issued, err := s.IssueChallenge(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.False(t, issued.Delivered)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmailDeliveryTotal.WithLabelValues("disabled")))
}

func TestIssueChallenge_GeneratorFailure(t *testing.T) {
	n := &fakeNotifier{}
	s, _, _ := newTestOTPService(t, n)
	s.generate = func() (string, error) { return "", errors.New("no entropy") }

	_, err := s.IssueChallenge(context.Background(), "a@b.com")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidFormat)
	assert.Empty(t, s.challenges)
	assert.Equal(t, 0, n.calls)
}

func TestVerifyChallenge_Success(t *testing.T) {
	s, _, m := newTestOTPService(t, &fakeNotifier{})

	issued, err := s.IssueChallenge(context.Background(), "a@b.com")
	require.NoError(t, err)

	assert.Equal(t, models.VerifySuccess, s.VerifyChallenge(context.Background(), "a@b.com", issued.Code))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("success")))
}

func TestVerifyChallenge_SingleUse(t *testing.T) {
	s, _, _ := newTestOTPService(t, &fakeNotifier{})

	issued, err := s.IssueChallenge(context.Background(), "a@b.com")
	require.NoError(t, err)

	require.Equal(t, models.VerifySuccess, s.VerifyChallenge(context.Background(), "a@b.com", issued.Code))
	assert.Equal(t, models.VerifyNotFound, s.VerifyChallenge(context.Background(), "a@b.com", issued.Code))
}

func TestVerifyChallenge_MismatchIsRetryable(t *testing.T) {
	s, _, _ := newTestOTPService(t, &fakeNotifier{})
	s.generate = func() (string, error) { return "482913", nil }

	issued, err := s.IssueChallenge(context.Background(), "a@b.com")
	require.NoError(t, err)

	assert.Equal(t, models.VerifyMismatch, s.VerifyChallenge(context.Background(), "a@b.com", "000000"))
	assert.Equal(t, models.VerifyMismatch, s.VerifyChallenge(context.Background(), "a@b.com", ""))
	assert.Equal(t, models.VerifyMismatch, s.VerifyChallenge(context.Background(), "a@b.com", "4829130"))
	assert.Equal(t, models.VerifySuccess, s.VerifyChallenge(context.Background(), "a@b.com", issued.Code))
}

func TestVerifyChallenge_UnknownIdentifier(t *testing.T) {
	s, _, _ := newTestOTPService(t, &fakeNotifier{})

	assert.Equal(t, models.VerifyNotFound, s.VerifyChallenge(context.Background(), "unknown@x.com", "123456"))
}

func TestVerifyChallenge_Expiry(t *testing.T) {
	s, clock, m := newTestOTPService(t, &fakeNotifier{})

	issued, err := s.IssueChallenge(context.Background(), "a@b.com")
	require.NoError(t, err)

	clock.Advance(ChallengeTTL + time.Second)

	assert.Equal(t, models.VerifyNotFound, s.VerifyChallenge(context.Background(), "a@b.com", issued.Code))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChallengesExpired))
}

func TestVerifyChallenge_LiveAtBoundary(t *testing.T) {
	s, clock, _ := newTestOTPService(t, &fakeNotifier{})

	issued, err := s.IssueChallenge(context.Background(), "a@b.com")
	require.NoError(t, err)

	clock.Advance(ChallengeTTL)

	assert.Equal(t, models.VerifySuccess, s.VerifyChallenge(context.Background(), "a@b.com", issued.Code))
}

func TestIssueChallenge_ReissueInvalidatesPrevious(t *testing.T) {
	s, _, _ := newTestOTPService(t, &fakeNotifier{})
	codes := []string{"111111", "222222"}
	s.generate = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	first, err := s.IssueChallenge(context.Background(), "a@b.com")
	require.NoError(t, err)
	second, err := s.IssueChallenge(context.Background(), "a@b.com")
	require.NoError(t, err)

	assert.Equal(t, models.VerifyMismatch, s.VerifyChallenge(context.Background(), "a@b.com", first.Code))
	assert.Equal(t, models.VerifySuccess, s.VerifyChallenge(context.Background(), "a@b.com", second.Code))
	assert.Len(t, s.challenges, 0)
}

func TestIssueChallenge_ReissueResetsExpiry(t *testing.T) {
	s, clock, _ := newTestOTPService(t, &fakeNotifier{})

	_, err := s.IssueChallenge(context.Background(), "a@b.com")
	require.NoError(t, err)
	clock.Advance(4 * time.Minute)

	second, err := s.IssueChallenge(context.Background(), "a@b.com")
	require.NoError(t, err)
	clock.Advance(4 * time.Minute)

	assert.Equal(t, models.VerifySuccess, s.VerifyChallenge(context.Background(), "a@b.com", second.Code))
}

func TestSweepExpired(t *testing.T) {
	s, clock, m := newTestOTPService(t, &fakeNotifier{})

	_, err := s.IssueChallenge(context.Background(), "old@b.com")
	require.NoError(t, err)
	clock.Advance(3 * time.Minute)
	_, err = s.IssueChallenge(context.Background(), "new@b.com")
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChallengesPending))

	clock.Advance(3 * time.Minute)
	s.SweepExpired()

	assert.NotContains(t, s.challenges, "old@b.com")
	assert.Contains(t, s.challenges, "new@b.com")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChallengesPending))
}

func TestIssueChallenge_SweepsOtherIdentifiers(t *testing.T) {
	s, clock, _ := newTestOTPService(t, &fakeNotifier{})

	_, err := s.IssueChallenge(context.Background(), "old@b.com")
	require.NoError(t, err)
	clock.Advance(ChallengeTTL + time.Second)

	_, err = s.IssueChallenge(context.Background(), "new@b.com")
	require.NoError(t, err)

	assert.NotContains(t, s.challenges, "old@b.com")
}

func TestOTPService_ConcurrentAccess(t *testing.T) {
	s := NewOTPService(&fakeNotifier{}, metrics.New(prometheus.NewRegistry()))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			email := "user" + strconv.Itoa(id%5) + "@example.com"
			issued, err := s.IssueChallenge(ctx, email)
			if err != nil {
				t.Error(err)
				return
			}
			s.VerifyChallenge(ctx, email, issued.Code)
			s.SweepExpired()
		}(i)
	}
	wg.Wait()
}
