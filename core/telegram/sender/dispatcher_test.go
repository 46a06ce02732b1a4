package sender

import (
	"context"
	"errors"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestEnqueueExecutesJob(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4})
	defer d.Close()

	var done sync.WaitGroup
	done.Add(1)
	var ran atomic.Bool

	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		ran.Store(true)
		done.Done()
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	done.Wait()
	if !ran.Load() {
		t.Fatal("job did not run")
	}
	if d.ErrorCount() != 0 {
		t.Fatalf("ErrorCount = %d, want 0", d.ErrorCount())
	}
}

func TestRetryOnTransientError(t *testing.T) {
	d := NewDispatcher(Options{
		Workers:      1,
		QueueSize:    4,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
	defer d.Close()

	var done sync.WaitGroup
	done.Add(1)
	var attempts atomic.Int32

	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if attempts.Add(1) < 3 {
			return &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeoutErr{}}
		}
		done.Done()
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	done.Wait()
	if got := attempts.Load(); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
	if d.ErrorCount() != 0 {
		t.Fatalf("ErrorCount = %d, want 0 after recovery", d.ErrorCount())
	}
}

func TestPermanentFailureCounts(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4, MaxRetries: 1, RetryBackoff: time.Millisecond})

	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		return errors.New("telegram: bad request (400)")
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	d.Close()
	if d.ErrorCount() != 1 {
		t.Fatalf("ErrorCount = %d, want 1", d.ErrorCount())
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	d.Close()

	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"dns", &net.DNSError{Err: "no such host", Name: "api.telegram.org"}, "dns"},
		{"net timeout", timeoutErr{}, "timeout"},
		{"url wrapped timeout", &url.Error{Op: "Post", URL: "x", Err: timeoutErr{}}, "timeout"},
		{"api 500", &tele.Error{Code: 502, Description: "bad gateway"}, "http_5xx"},
		{"api 400", &tele.Error{Code: 400, Description: "bad request"}, "http_4xx"},
		{"plain", errors.New("boom"), "unknown"},
	}
	for _, tc := range cases {
		if got := classifyError(tc.err); got != tc.want {
			t.Errorf("%s: classifyError = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestHTTPStatusFromErrorMessage(t *testing.T) {
	if got := httpStatusFromError(errors.New("telegram: retry after 3 (429)")); got != 429 {
		t.Fatalf("status = %d, want 429", got)
	}
	if got := httpStatusFromError(errors.New("no code here")); got != 0 {
		t.Fatalf("status = %d, want 0", got)
	}
}
