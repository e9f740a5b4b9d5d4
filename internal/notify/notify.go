package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"server/internal/domain"
)

// Mailer sends a completion notice over SMTP. Every failure is logged and
// swallowed: notification never influences job state.
type Mailer struct {
	client *mail.Client
	from   string
	logger zerolog.Logger
}

type MailerOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Logger   zerolog.Logger
}

func NewMailer(opts MailerOptions) (*Mailer, error) {
	if strings.TrimSpace(opts.Host) == "" {
		return nil, fmt.Errorf("notify: smtp host is required")
	}
	clientOpts := []mail.Option{
		mail.WithPort(opts.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(opts.Username),
			mail.WithPassword(opts.Password),
		)
	}
	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("notify: smtp client: %w", err)
	}
	return &Mailer{client: client, from: opts.From, logger: opts.Logger}, nil
}

func (m *Mailer) ReportCompleted(ctx context.Context, user *domain.User, job *domain.ReportJob) {
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return
	}
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		m.logger.Warn().Err(err).Msg("completion mail: bad sender")
		return
	}
	if err := msg.To(user.Email); err != nil {
		m.logger.Warn().Err(err).Str("user_id", user.ID).Msg("completion mail: bad recipient")
		return
	}
	msg.Subject("Your technology assessment report is ready")
	msg.SetBodyString(mail.TypeTextPlain, completionBody(user, job))
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.Warn().Err(err).Str("job_id", job.ID).Msg("completion mail not delivered")
		return
	}
	m.logger.Info().Str("job_id", job.ID).Str("user_id", user.ID).Msg("completion mail sent")
}

func completionBody(user *domain.User, job *domain.ReportJob) string {
	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = "there"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Your %s report is ready for download.\n\n", job.Tier)
	if job.Preview != "" {
		fmt.Fprintf(&b, "Preview:\n%s\n\n", job.Preview)
	}
	fmt.Fprintf(&b, "Report ID: %s\n", job.ID)
	b.WriteString("\nLog in to download the PDF.\n")
	return b.String()
}

// LogNotifier is the fallback when no SMTP host is configured: completions
// show up in the log and nothing else happens.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) ReportCompleted(_ context.Context, user *domain.User, job *domain.ReportJob) {
	event := n.Logger.Info().Str("job_id", job.ID)
	if user != nil {
		event = event.Str("user_id", user.ID)
	}
	event.Msg("report completed")
}
