package gojob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-dispatch/core"
)

type stubJobDelivery struct {
	msg    *core.JobExecutionMessage
	acked  int
	nacked []core.JobNackOptions
}

func (d *stubJobDelivery) Message() *core.JobExecutionMessage {
	return d.msg
}

func (d *stubJobDelivery) Ack(context.Context) error {
	d.acked++
	return nil
}

func (d *stubJobDelivery) Nack(_ context.Context, opts core.JobNackOptions) error {
	d.nacked = append(d.nacked, opts)
	return nil
}

type stubBatchRunner struct {
	limits []int
	result core.BatchResult
	err    error
}

func (r *stubBatchRunner) RunBatch(_ context.Context, limit int) (core.BatchResult, error) {
	r.limits = append(r.limits, limit)
	return r.result, r.err
}

func TestRetryPolicy_NormalizeAttempt(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, MaxDelay: 10 * time.Second, DeadLetterOnMax: true}

	out := policy.NormalizeAttempt(core.JobNackOptions{Requeue: true, Delay: time.Minute, Reason: "  boom  "}, 1)
	if out.Delay != 10*time.Second {
		t.Fatalf("expected clamped delay, got %s", out.Delay)
	}
	if out.Reason != "boom" {
		t.Fatalf("expected trimmed reason, got %q", out.Reason)
	}
	if !out.Requeue || out.DeadLetter {
		t.Fatalf("unexpected routing: %+v", out)
	}

	out = policy.NormalizeAttempt(core.JobNackOptions{Requeue: true}, 3)
	if out.Requeue || !out.DeadLetter {
		t.Fatalf("expected dead letter at max attempts, got %+v", out)
	}

	out = RetryPolicy{}.NormalizeAttempt(core.JobNackOptions{Delay: -time.Second}, 1)
	if out.Delay != 0 {
		t.Fatalf("expected negative delay zeroed")
	}
	if !out.Requeue {
		t.Fatalf("expected requeue fallback when neither routing flag set")
	}
}

func TestNewDispatchBatchMessage(t *testing.T) {
	msg := NewDispatchBatchMessage(25)
	if msg.JobID != JobIDDispatchBatch {
		t.Fatalf("unexpected job id %q", msg.JobID)
	}
	if msg.Parameters["limit"] != 25 {
		t.Fatalf("unexpected parameters: %+v", msg.Parameters)
	}
	if NewDispatchBatchMessage(-1).Parameters["limit"] != 0 {
		t.Fatalf("expected negative limit zeroed")
	}
}

func TestBatchHandler_AcksOnSuccess(t *testing.T) {
	runner := &stubBatchRunner{result: core.BatchResult{Selected: 2, Sent: 2}}
	handler := NewBatchHandler(runner, RetryPolicy{})
	delivery := &stubJobDelivery{msg: NewDispatchBatchMessage(5)}

	result, err := handler.Handle(context.Background(), delivery, 1)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if result.Sent != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if delivery.acked != 1 || len(delivery.nacked) != 0 {
		t.Fatalf("expected ack only, got acks=%d nacks=%d", delivery.acked, len(delivery.nacked))
	}
	if len(runner.limits) != 1 || runner.limits[0] != 5 {
		t.Fatalf("expected limit forwarded, got %+v", runner.limits)
	}
}

func TestBatchHandler_RequeuesOnFailure(t *testing.T) {
	runner := &stubBatchRunner{err: errors.New("store unavailable")}
	handler := NewBatchHandler(runner, RetryPolicy{})
	delivery := &stubJobDelivery{msg: NewDispatchBatchMessage(0)}

	_, err := handler.Handle(context.Background(), delivery, 1)
	if err == nil {
		t.Fatalf("expected runner error")
	}
	if delivery.acked != 0 || len(delivery.nacked) != 1 {
		t.Fatalf("expected one nack, got acks=%d nacks=%d", delivery.acked, len(delivery.nacked))
	}
	if !delivery.nacked[0].Requeue || delivery.nacked[0].DeadLetter {
		t.Fatalf("expected requeue nack, got %+v", delivery.nacked[0])
	}
}

func TestBatchHandler_DeadLettersUnknownJob(t *testing.T) {
	runner := &stubBatchRunner{}
	handler := NewBatchHandler(runner, RetryPolicy{})
	delivery := &stubJobDelivery{msg: &core.JobExecutionMessage{JobID: "other.job"}}

	_, err := handler.Handle(context.Background(), delivery, 1)
	if err == nil {
		t.Fatalf("expected unexpected job id error")
	}
	if len(runner.limits) != 0 {
		t.Fatalf("expected no batch run")
	}
	if len(delivery.nacked) != 1 || !delivery.nacked[0].DeadLetter {
		t.Fatalf("expected dead letter nack, got %+v", delivery.nacked)
	}
}

func TestReadLimit_NumericTypes(t *testing.T) {
	if got := readLimit(map[string]any{"limit": 5}); got != 5 {
		t.Fatalf("expected int support, got %d", got)
	}
	if got := readLimit(map[string]any{"limit": int64(6)}); got != 6 {
		t.Fatalf("expected int64 support, got %d", got)
	}
	if got := readLimit(map[string]any{"limit": float64(7)}); got != 7 {
		t.Fatalf("expected float64 support, got %d", got)
	}
	if got := readLimit(map[string]any{"limit": "8"}); got != 0 {
		t.Fatalf("expected non-numeric ignored, got %d", got)
	}
	if got := readLimit(nil); got != 0 {
		t.Fatalf("expected zero for nil parameters, got %d", got)
	}
}

func TestExecutionMessageRoundTrip(t *testing.T) {
	original := &core.JobExecutionMessage{
		JobID:          "  dispatch.batch.run  ",
		ScriptPath:     " scripts/run.js ",
		Parameters:     map[string]any{"limit": 3},
		IdempotencyKey: " key-1 ",
		DedupPolicy:    " drop ",
	}

	jobMsg := ToExecutionMessage(original)
	if jobMsg.JobID != "dispatch.batch.run" || jobMsg.IdempotencyKey != "key-1" {
		t.Fatalf("expected trimmed fields: %+v", jobMsg)
	}

	back := FromExecutionMessage(jobMsg)
	if back.JobID != "dispatch.batch.run" || back.DedupPolicy != "drop" {
		t.Fatalf("round trip mismatch: %+v", back)
	}
	if back.Parameters["limit"] != 3 {
		t.Fatalf("expected parameters preserved: %+v", back.Parameters)
	}

	if ToExecutionMessage(nil) != nil || FromExecutionMessage(nil) != nil {
		t.Fatalf("expected nil passthrough")
	}
}

func TestNackOptionsRoundTrip(t *testing.T) {
	original := core.JobNackOptions{
		Delay:      5 * time.Second,
		Requeue:    true,
		DeadLetter: false,
		Reason:     "backoff",
	}
	if got := FromNackOptions(ToNackOptions(original)); got != original {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
