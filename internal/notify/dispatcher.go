package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anshu-man26/EngageSphere-sub001/internal/directory"
	"github.com/anshu-man26/EngageSphere-sub001/internal/observability"
	"github.com/anshu-man26/EngageSphere-sub001/internal/throttle"
)

// OnlineChecker is the slice of the presence registry the dispatcher needs.
type OnlineChecker interface {
	IsOnlineWithin(userID string, threshold time.Duration) bool
}

const messageBodyTemplate = `Hi {{.RecipientName}},

{{.SenderName}} sent you a new message on EngageSphere:

    {{.Preview}}

Log back in to read and reply.
`

// Dispatcher is the single entry point message-send code calls after
// persisting a message. It decides offline-ness, consults the cooldown
// ledger, and sends the email. Best-effort throughout: every collaborator
// failure is swallowed, logged, and reported as "not sent" — the enclosing
// message send must succeed regardless.
type Dispatcher struct {
	checker   OnlineChecker
	ledger    throttle.Ledger
	directory directory.Directory
	mailer    Mailer

	// offlineThreshold governs the "should we email" decision and is tuned
	// independently from the registry's eviction timeout.
	offlineThreshold time.Duration
	subjectPrefix    string

	metrics *observability.Metrics
	logger  *slog.Logger
}

func NewDispatcher(logger *slog.Logger, checker OnlineChecker, ledger throttle.Ledger, dir directory.Directory, mailer Mailer, offlineThreshold time.Duration, subjectPrefix string) *Dispatcher {
	return &Dispatcher{
		checker:          checker,
		ledger:           ledger,
		directory:        dir,
		mailer:           mailer,
		offlineThreshold: offlineThreshold,
		subjectPrefix:    subjectPrefix,
		logger:           logger.With(slog.String("component", "offline_notifier")),
	}
}

// SetMetrics attaches optional notification metrics.
func (d *Dispatcher) SetMetrics(m *observability.Metrics) {
	d.metrics = m
}

// NotifyIfOffline emails the recipient about a new message unless they are
// actively connected or inside the cooldown window. Returns whether an email
// was actually sent; the caller must not use the result for control flow.
func (d *Dispatcher) NotifyIfOffline(ctx context.Context, recipientID, senderID, conversationID, messagePreview string) bool {
	log := d.logger.With(
		slog.String("recipientID", recipientID),
		slog.String("senderID", senderID),
		slog.String("conversationID", conversationID),
	)

	// Never interrupt an active session with an email.
	if d.checker.IsOnlineWithin(recipientID, d.offlineThreshold) {
		log.Debug("Recipient active, skipping notification")
		d.observe("skipped_online")
		return false
	}

	if d.mailer == nil {
		// Mailer unconfigured; the service runs without email.
		log.Debug("No mailer configured, skipping notification")
		d.observe("skipped_unconfigured")
		return false
	}

	allowed, err := d.ledger.ShouldNotifyNow(ctx, recipientID, senderID, conversationID)
	if err != nil {
		log.Error("Cooldown lookup failed", slog.Any("error", err))
		d.observe("failed")
		return false
	}
	if !allowed {
		d.recordAttempt(ctx, log, recipientID, senderID, conversationID, false)
		log.Debug("Notification suppressed by cooldown")
		d.observe("suppressed")
		return false
	}

	sent := d.send(ctx, log, recipientID, senderID, messagePreview)
	d.recordAttempt(ctx, log, recipientID, senderID, conversationID, sent)
	if sent {
		log.Info("Offline notification sent")
		d.observe("sent")
	} else {
		d.observe("failed")
	}
	return sent
}

func (d *Dispatcher) send(ctx context.Context, log *slog.Logger, recipientID, senderID, messagePreview string) bool {
	recipient, err := d.directory.GetUserContact(ctx, recipientID)
	if err != nil {
		log.Warn("Recipient lookup failed", slog.Any("error", err))
		return false
	}
	sender, err := d.directory.GetUserContact(ctx, senderID)
	if err != nil {
		log.Warn("Sender lookup failed", slog.Any("error", err))
		return false
	}

	subject := fmt.Sprintf("%s New message from %s", d.subjectPrefix, sender.DisplayName)
	err = d.mailer.SendTemplated(ctx, recipient.Email, subject, messageBodyTemplate, TemplateVars{
		"RecipientName": recipient.DisplayName,
		"SenderName":    sender.DisplayName,
		"Preview":       messagePreview,
	})
	if err != nil {
		log.Warn("Email send failed", slog.Any("error", err))
		return false
	}
	return true
}

func (d *Dispatcher) recordAttempt(ctx context.Context, log *slog.Logger, recipientID, senderID, conversationID string, wasSent bool) {
	if err := d.ledger.RecordAttempt(ctx, recipientID, senderID, conversationID, wasSent); err != nil {
		log.Error("Failed to record notification attempt", slog.Any("error", err))
	}
}

func (d *Dispatcher) observe(outcome string) {
	if d.metrics != nil {
		d.metrics.Notifications.WithLabelValues(outcome).Inc()
	}
}
