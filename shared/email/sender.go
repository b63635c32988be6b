package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"repack-agent/internal/models"
	"repack-agent/shared/config"
)

//go:embed report_template.html
var reportTemplate string

// Report is the mailable summary of one match run: every accepted
// recommendation with its trend/video context, plus the run counters.
type Report struct {
	Date  time.Time
	Items []*ReportItem
	Run   *models.RunReport
}

type ReportItem struct {
	*models.Recommendation
	TrendTitle string
	VideoTitle string
	VideoURL   string
}

type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

func (s *Sender) SendReport(report *Report) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if len(report.Items) == 0 {
		return nil // Nothing accepted, nothing to report
	}

	subject := fmt.Sprintf("Repack Opportunities - %d Matches (%s)",
		len(report.Items), report.Date.Format("Jan 2, 2006"))

	body, err := s.generateEmailBody(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	return s.sendViaSMTP(subject, htmlBody)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

func (s *Sender) generateEmailBody(report *Report) (string, error) {
	tmpl := template.New("report").Funcs(template.FuncMap{
		"pct": func(v float64) int { return int(v * 100) },
	})

	tmpl, err := tmpl.Parse(reportTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}
