package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	err  error
	sent []Job
}

func (f *fakeSender) Send(job Job) error {
	f.sent = append(f.sent, job)
	return f.err
}

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestService(rdb *redis.Client, sender Sender) *Service {
	svc := New(rdb, sender, "ReCo Gym")
	svc.retryDelay = 0
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestEnqueue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `.*`).SetVal(1)

	svc := newTestService(db, &fakeSender{})

	err := svc.Enqueue(context.Background(), KindWelcome, "ana@example.com", "Ana", "Hello", "Body")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnqueueWithoutRecipientIsSkipped(t *testing.T) {
	db, mock := redismock.NewClientMock()

	svc := newTestService(db, &fakeSender{})

	err := svc.SendWelcome(context.Background(), "", "Ana", "S001", "secret")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendWelcomeCarriesCredentials(t *testing.T) {
	db, mock := redismock.NewClientMock()

	job := Job{
		Kind:    KindWelcome,
		To:      "ana@example.com",
		Name:    "Ana",
		Subject: "Welcome to ReCo Gym",
		Created: fixedNow,
	}
	job.Body = "Hi Ana,\n\nYour ReCo Gym account is ready.\n\nUsername: S001\nTemporary password: Tmp12345\n\nPlease change your password after your first login.\n\n- ReCo Gym"
	payload, err := json.Marshal(job)
	require.NoError(t, err)
	mock.ExpectLPush(queueKey, string(payload)).SetVal(1)

	svc := newTestService(db, &fakeSender{})

	err = svc.SendWelcome(context.Background(), "ana@example.com", "Ana", "S001", "Tmp12345")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendReceipts(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `enrollment_receipt`).SetVal(1)
	mock.Regexp().ExpectLPush(queueKey, `subscription_receipt`).SetVal(2)

	svc := newTestService(db, &fakeSender{})
	ctx := context.Background()

	assert.NoError(t, svc.SendEnrollmentReceipt(ctx, "ana@example.com", "Ana", "Yoga", fixedNow, decimal.NewFromInt(150)))
	assert.NoError(t, svc.SendSubscriptionReceipt(ctx, "ana@example.com", "Ana", "monthly", fixedNow.AddDate(0, 0, 30), decimal.NewFromInt(500)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnqueueError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `.*`).SetErr(assert.AnError)

	svc := newTestService(db, &fakeSender{})

	err := svc.Enqueue(context.Background(), KindWelcome, "ana@example.com", "Ana", "Hello", "Body")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextDelivers(t *testing.T) {
	db, mock := redismock.NewClientMock()

	payload, _ := json.Marshal(Job{Kind: KindWelcome, To: "ana@example.com", Subject: "Hi"})
	mock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, string(payload)})

	sender := &fakeSender{}
	svc := newTestService(db, sender)

	svc.processNext(context.Background())

	require.Len(t, sender.sent, 1)
	assert.Equal(t, 1, sender.sent[0].Tries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextRequeuesOnFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()

	payload, _ := json.Marshal(Job{Kind: KindWelcome, To: "ana@example.com"})
	mock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, string(payload)})
	mock.Regexp().ExpectLPush(queueKey, `"tries":1`).SetVal(1)

	svc := newTestService(db, &fakeSender{err: errors.New("smtp down")})

	svc.processNext(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextMovesToFailedQueue(t *testing.T) {
	db, mock := redismock.NewClientMock()

	payload, _ := json.Marshal(Job{Kind: KindWelcome, To: "ana@example.com", Tries: maxTries - 1})
	mock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, string(payload)})
	mock.Regexp().ExpectLPush(failedQueueKey, `smtp down`).SetVal(1)

	svc := newTestService(db, &fakeSender{err: errors.New("smtp down")})

	svc.processNext(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextBacksOffWhenRedisFails(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(2*time.Second, queueKey).SetErr(errors.New("connection refused"))

	svc := newTestService(db, &fakeSender{})
	svc.retryDelay = 50 * time.Millisecond

	start := time.Now()
	svc.processNext(context.Background())

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextEmptyQueueDoesNotWait(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(2*time.Second, queueKey).RedisNil()

	svc := newTestService(db, &fakeSender{})
	svc.retryDelay = time.Hour

	done := make(chan struct{})
	go func() {
		svc.processNext(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processNext waited on an empty queue")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPushReportsRedisErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.Regexp().ExpectLPush(queueKey, `.*`).SetErr(assert.AnError)
	mock.Regexp().ExpectLPush(failedQueueKey, `.*`).SetVal(1)

	svc := newTestService(db, &fakeSender{})

	assert.ErrorIs(t, svc.push(queueKey, Job{Kind: KindWelcome}), assert.AnError)
	assert.NoError(t, svc.push(failedQueueKey, Job{Kind: KindWelcome}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectLLen(queueKey).SetVal(5)

	svc := newTestService(db, &fakeSender{})

	assert.Equal(t, int64(5), svc.QueueLength(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSMTPSenderRequiresHost(t *testing.T) {
	err := NewSMTPSender(SMTPConfig{}).Send(Job{To: "ana@example.com"})
	assert.Error(t, err)
}
