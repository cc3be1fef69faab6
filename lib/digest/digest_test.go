package digest

import (
	"context"
	"errors"
	"net/smtp"
	"phtrending/lib/summary"
	"strings"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"
)

var testSummary = summary.Summary{
	LastUpdated: "2024-05-02T12:30:00.000Z",
	DataPoints: []summary.DataPoint{
		{
			Timestamp:  "2024-05-02T08:00:00.000Z",
			PostCount:  12,
			TotalVotes: 340,
			TopPosts: []summary.TopPost{
				{Name: "Alpha", Votes: 120, URL: "https://ph.test/alpha"},
				{Name: "Beta", Votes: 80, URL: "https://ph.test/beta"},
			},
		},
		{Timestamp: "2024-05-01T08:00:00.000Z"},
	},
}

func TestBuild(t *testing.T) {
	mail, err := Build("bot@ph.test", []string{"alice@ph.test"}, testSummary)
	require.NoError(t, err)
	require.Equal(t, "Product Hunt Trending <bot@ph.test>", mail.From)
	require.Equal(t, []string{"alice@ph.test"}, mail.To)
	require.Equal(t, "Trending on Product Hunt (2024-05-02T08:00:00.000Z)", mail.Subject)

	text := string(mail.Text)
	require.True(t, strings.Contains(text, "1. Alpha (120 votes)\n   https://ph.test/alpha"))
	require.True(t, strings.Contains(text, "2. Beta (80 votes)"))
	require.Contains(t, text, "12 posts with 340 votes in total. 2 snapshots on record.")

	_, err = Build("bot@ph.test", nil, summary.Summary{})
	require.True(t, errors.Is(err, ErrEmptySummary))
}

type sendCall struct {
	addr string
	auth bool
}

func TestSendRetriesWithoutAuth(t *testing.T) {
	testCases := []struct {
		name   string
		errs   []error
		calls  []sendCall
		failed bool
	}{
		{
			name:  "auth accepted",
			errs:  []error{nil},
			calls: []sendCall{{addr: "smtp.ph.test:1025", auth: true}},
		},
		{
			name: "auth unsupported",
			errs: []error{errors.New("smtp: server doesn't support AUTH"), nil},
			calls: []sendCall{
				{addr: "smtp.ph.test:1025", auth: true},
				{addr: "smtp.ph.test:1025", auth: false},
			},
		},
		{
			name:   "connection refused",
			errs:   []error{errors.New("dial tcp: connection refused")},
			calls:  []sendCall{{addr: "smtp.ph.test:1025", auth: true}},
			failed: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var calls []sendCall
			sender := NewSender(Options{
				Smtp: SmtpConfig{
					Server:       "smtp.ph.test",
					Port:         1025,
					EmailAddress: "bot@ph.test",
					Password:     "hunter2",
				},
				To: []string{"alice@ph.test"},
			})
			sender.send = func(mail *email.Email, addr string, auth smtp.Auth) error {
				err := testCase.errs[len(calls)]
				calls = append(calls, sendCall{addr: addr, auth: auth != nil})
				return err
			}

			err := sender.Send(context.Background(), testSummary)
			if testCase.failed {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, testCase.calls, calls)
		})
	}
}

func TestOptionsEnabled(t *testing.T) {
	require.False(t, Options{}.Enabled())
	require.True(t, Options{To: []string{"alice@ph.test"}}.Enabled())
}
