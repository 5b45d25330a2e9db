package outreach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mhrabcak/jobpilot/internal/retry"
)

type stubSender struct {
	mu    sync.Mutex
	sent  []string
	fails map[string]int // action id -> remaining failures
	err   error
}

func (s *stubSender) Send(_ context.Context, action *Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails[action.ID] > 0 {
		s.fails[action.ID]--
		if s.err != nil {
			return s.err
		}
		return &TimeoutError{TargetID: action.TargetID, Elapsed: time.Second}
	}
	s.sent = append(s.sent, action.ID)
	return nil
}

func newTestThrottler(t *testing.T, window *Window, sender Sender, opts ...Option) *Throttler {
	t.Helper()
	deps := &Deps{Window: window, Sender: sender, Logger: zap.NewNop()}
	opts = append(opts, WithSpacing(0, 0), WithRetryConfig(retry.Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    time.Millisecond,
		Multiplier:  1,
	}))
	th, err := NewThrottler(deps, opts...)
	if err != nil {
		t.Fatalf("NewThrottler: %v", err)
	}
	return th
}

func queueOf(n int) []*Action {
	queue := make([]*Action, n)
	for i := range queue {
		queue[i] = NewAction(fmt.Sprintf("recruiter-%d", i), fmt.Sprintf("app-%d", i), "intro-direct", "hello", time.Now())
	}
	return queue
}

func TestProcessRespectsWindowBudget(t *testing.T) {
	sender := &stubSender{}
	window := NewWindow(10, 24*time.Hour)
	th := newTestThrottler(t, window, sender)

	queue := queueOf(15)
	report, err := th.Process(context.Background(), queue)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if report.Sent != 10 {
		t.Errorf("sent = %d, want 10", report.Sent)
	}
	if report.RateLimited != 5 {
		t.Errorf("rate limited = %d, want 5", report.RateLimited)
	}

	var pending int
	for _, a := range queue {
		if a.Result == ResultSkippedRateLimit {
			if !a.Pending() {
				t.Errorf("rate-limited action %s no longer pending", a.ID)
			}
			pending++
		}
	}
	if pending != 5 {
		t.Errorf("pending for next window = %d, want 5", pending)
	}
	if window.Remaining() != 0 {
		t.Errorf("window remaining = %d, want 0", window.Remaining())
	}
}

func TestProcessSkipsWithdrawnBeforeSend(t *testing.T) {
	sender := &stubSender{}
	window := NewWindow(10, 24*time.Hour)
	th := newTestThrottler(t, window, sender)
	th.deps.Withdrawn = func(appID string) bool { return appID == "app-6" }

	queue := queueOf(10)
	report, err := th.Process(context.Background(), queue)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if report.Withdrawn != 1 {
		t.Errorf("withdrawn = %d, want 1", report.Withdrawn)
	}
	if report.Sent != 9 {
		t.Errorf("sent = %d, want 9", report.Sent)
	}
	if queue[6].Result != ResultSkippedWithdrawn {
		t.Errorf("action 6 result = %s, want %s", queue[6].Result, ResultSkippedWithdrawn)
	}
	if queue[6].SentAt != nil {
		t.Error("withdrawn action must never be sent")
	}
	// The withdrawn action's slot goes back to the budget.
	if window.Remaining() != 1 {
		t.Errorf("window remaining = %d, want 1", window.Remaining())
	}
}

func TestProcessRetriesTimeoutsThenFails(t *testing.T) {
	window := NewWindow(10, 24*time.Hour)

	transient := &stubSender{fails: map[string]int{}}
	queue := queueOf(1)
	transient.fails[queue[0].ID] = 2 // recovers on third attempt
	th := newTestThrottler(t, window, transient)

	report, err := th.Process(context.Background(), queue)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if report.Sent != 1 {
		t.Errorf("sent = %d, want 1", report.Sent)
	}
	if queue[0].Attempts != 3 {
		t.Errorf("attempts = %d, want 3", queue[0].Attempts)
	}

	exhausted := &stubSender{fails: map[string]int{}}
	queue = queueOf(1)
	exhausted.fails[queue[0].ID] = 5
	th = newTestThrottler(t, NewWindow(10, 24*time.Hour), exhausted)

	report, err = th.Process(context.Background(), queue)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if report.Failed != 1 {
		t.Errorf("failed = %d, want 1", report.Failed)
	}
	if queue[0].Result != ResultFailed {
		t.Errorf("result = %s, want %s", queue[0].Result, ResultFailed)
	}
	var timeoutErr *TimeoutError
	if !errors.As(&TimeoutError{}, &timeoutErr) {
		t.Fatal("TimeoutError must satisfy errors.As")
	}
}

func TestProcessPermanentErrorNotRetried(t *testing.T) {
	sender := &stubSender{fails: map[string]int{}, err: errors.New("blocked by platform")}
	queue := queueOf(1)
	sender.fails[queue[0].ID] = 5
	th := newTestThrottler(t, NewWindow(10, 24*time.Hour), sender)

	report, err := th.Process(context.Background(), queue)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if report.Failed != 1 {
		t.Errorf("failed = %d, want 1", report.Failed)
	}
	if queue[0].Attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on permanent error)", queue[0].Attempts)
	}
}

type declineConfirmer struct{ approve map[string]bool }

func (c *declineConfirmer) Confirm(action *Action) (bool, error) {
	return c.approve[action.TargetID], nil
}

func TestConfirmerHoldsActions(t *testing.T) {
	sender := &stubSender{}
	queue := queueOf(3)
	th := newTestThrottler(t, NewWindow(10, 24*time.Hour), sender)
	th.deps.Confirmer = &declineConfirmer{approve: map[string]bool{
		"recruiter-0": true,
		"recruiter-2": true,
	}}

	report, err := th.Process(context.Background(), queue)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if report.Sent != 2 || report.Declined != 1 {
		t.Errorf("sent/declined = %d/%d, want 2/1", report.Sent, report.Declined)
	}
	if queue[1].Result != ResultSkippedDeclined {
		t.Errorf("declined action result = %s", queue[1].Result)
	}
}

func TestWindowConcurrentReservations(t *testing.T) {
	window := NewWindow(10, 24*time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	reserved := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if window.TryReserve() {
				mu.Lock()
				reserved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if reserved != 10 {
		t.Errorf("reserved = %d, want exactly the budget of 10", reserved)
	}
}

func TestWindowRollsOver(t *testing.T) {
	window := NewWindow(2, 24*time.Hour)
	current := time.Now()
	window.now = func() time.Time { return current }

	if !window.TryReserve() || !window.TryReserve() {
		t.Fatal("first two reservations must succeed")
	}
	if window.TryReserve() {
		t.Fatal("third reservation must fail inside the window")
	}

	current = current.Add(25 * time.Hour)
	if !window.TryReserve() {
		t.Error("reservation must succeed after the window rolls over")
	}
}

func TestComposerRotatesTemplates(t *testing.T) {
	c := NewComposer(nil)
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		a := c.Compose(Target{ID: "r", Name: "Jana", Company: "Acme", Role: "Backend Engineer"}, "", time.Now())
		if seen[a.TemplateID] {
			t.Errorf("template %s repeated within one rotation cycle", a.TemplateID)
		}
		seen[a.TemplateID] = true
		for _, want := range []string{"Jana", "Acme", "Backend Engineer"} {
			if !strings.Contains(a.Message, want) {
				t.Errorf("message missing %q: %s", want, a.Message)
			}
		}
	}

	next := c.Compose(Target{ID: "r"}, "", time.Now())
	if next.TemplateID != defaultTemplates[0].ID {
		t.Errorf("rotation did not wrap, got %s", next.TemplateID)
	}
}
