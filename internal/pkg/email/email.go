package email

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/config"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	maxRetries = 3
	queueSize  = 64
)

var ErrQueueFull = errors.New("email queue is full")

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Notifier e-mails the administrator about unknown cards. Mail goes out from a
// background worker so scanners never wait on SMTP.
type Notifier struct {
	cfg       config.SMTPConfig
	sender    Sender
	templates *template.Template
	logger    *slog.Logger
	loc       *time.Location
	backoff   time.Duration

	queue chan *gomail.Message
	wg    sync.WaitGroup
	once  sync.Once
}

// NewNotifier creates a notifier that sends through the configured SMTP server.
func NewNotifier(cfg config.SMTPConfig, loc *time.Location, logger *slog.Logger) (*Notifier, error) {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewNotifierWithSender(cfg, dialer, loc, logger)
}

func NewNotifierWithSender(cfg config.SMTPConfig, sender Sender, loc *time.Location, logger *slog.Logger) (*Notifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}

	n := &Notifier{
		cfg:       cfg,
		sender:    sender,
		templates: tmpl,
		logger:    logger,
		loc:       loc,
		backoff:   time.Second,
		queue:     make(chan *gomail.Message, queueSize),
	}

	n.wg.Add(1)
	go n.run()

	return n, nil
}

type unknownCardEmailData struct {
	Serial    string
	ScannedAt string
}

// NotifyUnknownCard implements attendance.UnknownCardNotifier.
func (n *Notifier) NotifyUnknownCard(ctx context.Context, serial string, at time.Time) error {
	data := unknownCardEmailData{
		Serial:    serial,
		ScannedAt: at.In(n.loc).Format("2006-01-02 15:04:05"),
	}

	var body bytes.Buffer
	if err := n.templates.ExecuteTemplate(&body, "unknown_card.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", n.cfg.AdminEmail)
	m.SetHeader("Subject", fmt.Sprintf("Unknown card scanned: %s", serial))
	m.SetBody("text/html", body.String())

	select {
	case n.queue <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Close stops accepting mail and waits for queued messages to be sent.
func (n *Notifier) Close() {
	n.once.Do(func() {
		close(n.queue)
	})
	n.wg.Wait()
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for m := range n.queue {
		if err := n.send(m); err != nil {
			n.logger.Error("Dropping email", "to", m.GetHeader("To"), "error", err)
		}
	}
}

func (n *Notifier) send(m *gomail.Message) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := n.sender.DialAndSend(m)
		if err == nil {
			n.logger.Info("Email sent successfully", "to", m.GetHeader("To"), "subject", m.GetHeader("Subject"), "attempt", attempt)
			return nil
		}

		lastErr = err
		n.logger.Error("Failed to send email",
			"to", m.GetHeader("To"),
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Exponential backoff: 1s, 2s, 4s
		if attempt < maxRetries {
			time.Sleep(n.backoff * time.Duration(1<<(attempt-1)))
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
