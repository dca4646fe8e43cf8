// Package notify queues member notifications in Redis and delivers them by
// SMTP from a background worker.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"recogym/internal/logger"
	"recogym/internal/metrics"
)

const (
	queueKey       = "notifications"
	failedQueueKey = "notifications:failed"
	maxTries       = 3

	KindWelcome      = "welcome"
	KindEnrollment   = "enrollment_receipt"
	KindSubscription = "subscription_receipt"
)

// Notifier is what the domain services depend on.
type Notifier interface {
	SendWelcome(ctx context.Context, to, name, username, tempPassword string) error
	SendEnrollmentReceipt(ctx context.Context, to, name, className string, startsAt time.Time, amount decimal.Decimal) error
	SendSubscriptionReceipt(ctx context.Context, to, name, plan string, endDate time.Time, amount decimal.Decimal) error
}

type Job struct {
	Kind    string    `json:"kind"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Sender delivers one job.
type Sender interface {
	Send(job Job) error
}

type SMTPConfig struct {
	From     string
	FromName string
	Host     string
	Port     int
	User     string
	Pass     string
}

type smtpSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(job Job) error {
	if s.cfg.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	message := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n"
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.cfg.User != "" && s.cfg.Pass != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	return smtp.SendMail(addr, auth, s.cfg.From, []string{job.To}, []byte(message))
}

type Service struct {
	redis      *redis.Client
	sender     Sender
	gymName    string
	retryDelay time.Duration
	now        func() time.Time
}

func New(rdb *redis.Client, sender Sender, gymName string) *Service {
	return &Service{
		redis:      rdb,
		sender:     sender,
		gymName:    gymName,
		retryDelay: 5 * time.Second,
		now:        time.Now,
	}
}

// Enqueue pushes a job. Jobs without a recipient are dropped.
func (s *Service) Enqueue(ctx context.Context, kind, to, name, subject, body string) error {
	if to == "" {
		logger.Debug("notification skipped, no recipient", "kind", kind, "name", name)
		return nil
	}

	job := Job{
		Kind:    kind,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: s.now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Error("failed to queue notification", "kind", kind, "to", to, "error", err)
		return err
	}

	logger.Info("notification queued", "kind", kind, "to", to)
	return nil
}

func (s *Service) SendWelcome(ctx context.Context, to, name, username, tempPassword string) error {
	subject := "Welcome to " + s.gymName
	body := fmt.Sprintf(`Hi %s,

Your %s account is ready.

Username: %s
Temporary password: %s

Please change your password after your first login.

- %s`, name, s.gymName, username, tempPassword, s.gymName)

	return s.Enqueue(ctx, KindWelcome, to, name, subject, body)
}

func (s *Service) SendEnrollmentReceipt(ctx context.Context, to, name, className string, startsAt time.Time, amount decimal.Decimal) error {
	subject := "Class enrollment - " + className
	body := fmt.Sprintf(`Hi %s,

You are enrolled in %s.

When: %s
Paid: $%s

See you at the gym!

- %s`, name, className, startsAt.Format("Jan 2, 2006 at 3:04 PM"), amount.StringFixed(2), s.gymName)

	return s.Enqueue(ctx, KindEnrollment, to, name, subject, body)
}

func (s *Service) SendSubscriptionReceipt(ctx context.Context, to, name, plan string, endDate time.Time, amount decimal.Decimal) error {
	subject := "Membership payment received"
	body := fmt.Sprintf(`Hi %s,

We received your %s membership payment of $%s.
Your membership is valid until %s.

- %s`, name, plan, amount.StringFixed(2), endDate.Format("Jan 2, 2006"), s.gymName)

	return s.Enqueue(ctx, KindSubscription, to, name, subject, body)
}

// Start consumes the queue until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.Error("failed to read notification queue", "error", err)
			s.wait(ctx)
		}
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("bad notification payload", "error", err)
		return
	}

	job.Tries++
	if err := s.sender.Send(job); err != nil {
		logger.Error("failed to send notification", "kind", job.Kind, "to", job.To, "attempt", job.Tries, "error", err)
		metrics.RecordNotification(job.Kind, "failed")

		if job.Tries < maxTries {
			s.wait(ctx)
			s.push(queueKey, job)
			return
		}
		s.saveFailed(job, err)
		return
	}

	metrics.RecordNotification(job.Kind, "success")
	logger.Info("notification sent", "kind", job.Kind, "to", job.To)
}

func (s *Service) wait(ctx context.Context) {
	if s.retryDelay <= 0 {
		return
	}
	t := time.NewTimer(s.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (s *Service) saveFailed(job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  s.now(),
	}
	if err := s.push(failedQueueKey, failed); err != nil {
		return
	}
	logger.Error("notification moved to failed queue", "kind", job.Kind, "to", job.To)
}

// push appends v to key. It outlives the worker context so a job taken off
// the queue is not lost on shutdown.
func (s *Service) push(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err == nil {
		err = s.redis.LPush(context.Background(), key, string(data)).Err()
	}
	if err != nil {
		logger.Error("failed to push notification", "queue", key, "error", err)
	}
	return err
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.NotificationQueueLength.Set(float64(length))
	return length
}

func (s *Service) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

func (s *Service) Close() error {
	return s.redis.Close()
}

// Nop discards every notification.
type Nop struct{}

func (Nop) SendWelcome(ctx context.Context, to, name, username, tempPassword string) error {
	return nil
}

func (Nop) SendEnrollmentReceipt(ctx context.Context, to, name, className string, startsAt time.Time, amount decimal.Decimal) error {
	return nil
}

func (Nop) SendSubscriptionReceipt(ctx context.Context, to, name, plan string, endDate time.Time, amount decimal.Decimal) error {
	return nil
}
