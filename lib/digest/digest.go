package digest

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"phtrending/lib/summary"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("digest")

var ErrEmptySummary = errors.New("summary has no data points")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Options struct {
	Smtp SmtpConfig `json:"smtp"`
	To   []string   `json:"to"`
}

func (o Options) Enabled() bool {
	return len(o.To) > 0
}

// Build composes the mail for the newest data point of `s`.
func Build(from string, to []string, s summary.Summary) (*email.Email, error) {
	newest, ok := s.Newest()
	if !ok {
		return nil, ErrEmptySummary
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Product Hunt Trending <%s>", from)
	mail.To = to
	mail.Subject = fmt.Sprintf("Trending on Product Hunt (%s)", newest.Timestamp)

	var body strings.Builder
	fmt.Fprintf(&body, "Top posts as of %s.\n\n", newest.Timestamp)
	for i, post := range newest.TopPosts {
		fmt.Fprintf(&body, "%d. %s (%d votes)\n   %s\n", i+1, post.Name, post.Votes, post.URL)
	}
	fmt.Fprintf(
		&body, "\n%d posts with %d votes in total. %d snapshots on record.\n",
		newest.PostCount, newest.TotalVotes, len(s.DataPoints),
	)
	mail.Text = []byte(body.String())

	return mail, nil
}

type sendFunc = func(mail *email.Email, addr string, auth smtp.Auth) error

func sendMail(mail *email.Email, addr string, auth smtp.Auth) error {
	return mail.Send(addr, auth)
}

type Sender struct {
	options Options
	send    sendFunc
}

func NewSender(options Options) Sender {
	return Sender{
		options: options,
		send:    sendMail,
	}
}

// Send mails the digest of `s` to every configured recipient.
func (s Sender) Send(ctx context.Context, sum summary.Summary) error {
	_, span := tracer.Start(ctx, "Send")
	defer span.End()

	mail, err := Build(s.options.Smtp.EmailAddress, s.options.To, sum)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build digest")
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.options.Smtp.Server, s.options.Smtp.Port)
	err = s.send(
		mail, addr,
		smtp.PlainAuth("", s.options.Smtp.EmailAddress, s.options.Smtp.Password, s.options.Smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = s.send(mail, addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
