package notifiers

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"text/template"

	"github.com/DosDaiynSol/infinity-life-assistant/models"
)

//go:embed templates/cycle_summary.html
var emailTemplates embed.FS

var summaryTemplates = template.Must(template.New("emails").ParseFS(emailTemplates, "templates/*.html"))

type Mailer struct {
	smtpHost string
	smtpPort string
	from     string
	password string
}

func NewMailer(smtpHost, smtpPort, from, password string) *Mailer {
	return &Mailer{
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		from:     from,
		password: password,
	}
}

// CycleSummary is the per-run digest sent to the clinic operator.
type CycleSummary struct {
	RunID     string
	Cycle     int
	Found     int
	Passed    int
	Saved     int
	Duplicate int
	Replied   int
	Stopped   bool

	// Posts the classifier accepted but a quota or a failure kept from
	// being answered. These want a human look.
	NeedsReview []ReviewPost
}

type ReviewPost struct {
	Username  string
	Text      string
	Reason    string
	Permalink string
}

func (h *Mailer) CycleSummaryEmail(email string, summary CycleSummary) (models.Email, error) {
	items := make([]ReviewPost, 0, len(summary.NeedsReview))
	for _, post := range summary.NeedsReview {
		text := strings.TrimSpace(post.Text)
		if len(text) > 300 {
			text = text[:300] + "..."
		}
		text = strings.ReplaceAll(text, "\n", "<br>")
		post.Text = text
		items = append(items, post)
	}
	summary.NeedsReview = items

	var buf bytes.Buffer
	if err := summaryTemplates.ExecuteTemplate(&buf, "cycle_summary.html", summary); err != nil {
		return models.Email{}, fmt.Errorf("render cycle summary template: %w", err)
	}

	subject := fmt.Sprintf("Infinity Life bot: cycle %d summary", summary.Cycle+1)
	if summary.Stopped {
		subject += " (stopped)"
	}

	return models.Email{
		To:      email,
		Subject: subject,
		Body:    buf.String(),
	}, nil
}

func (h *Mailer) Send(mail models.Email) error {
	message := fmt.Sprintf(`From: Infinity Life bot <%s>
To: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, h.from, mail.To, mail.Subject, mail.Body)

	auth := smtp.PlainAuth("", h.from, h.password, h.smtpHost)
	addr := fmt.Sprintf("%s:%s", h.smtpHost, h.smtpPort)
	err := smtp.SendMail(addr, auth, h.from, []string{mail.To}, []byte(message))
	if err != nil {
		slog.Error("Failed to send email", "error", err)
		return err
	}

	slog.Info("email sent", "recipient", mail.To, "subject", mail.Subject)
	return nil
}
