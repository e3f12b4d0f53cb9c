package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/starford/mealtime/internal/notify"
)

// RecurringCall records one ScheduleRecurring invocation.
type RecurringCall struct {
	Token    string
	Reminder notify.Reminder
	Weekday  int
	Hour     int
	Minute   int
}

// OneShotCall records one ScheduleOneShot invocation.
type OneShotCall struct {
	Token    string
	Reminder notify.Reminder
	FireAt   time.Time
}

// FakeScheduler is a notify.Scheduler that records every call and hands out
// sequential tokens ("tok-1", "tok-2", ...).
type FakeScheduler struct {
	mu sync.Mutex

	// Granted is the answer to RequestPermission.
	Granted bool
	// ScheduleErr, when set, fails every schedule call.
	ScheduleErr error

	PermissionRequests int
	Recurring          []RecurringCall
	OneShots           []OneShotCall
	Cancelled          []string

	seq    int
	active map[string]bool
}

// NewFakeScheduler returns a fake that grants permission.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{Granted: true, active: make(map[string]bool)}
}

func (f *FakeScheduler) nextToken() string {
	f.seq++
	tok := fmt.Sprintf("tok-%d", f.seq)
	f.active[tok] = true
	return tok
}

func (f *FakeScheduler) RequestPermission(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PermissionRequests++
	return f.Granted, nil
}

func (f *FakeScheduler) ScheduleRecurring(_ context.Context, r notify.Reminder, weekday, hour, minute int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ScheduleErr != nil {
		return "", f.ScheduleErr
	}
	tok := f.nextToken()
	f.Recurring = append(f.Recurring, RecurringCall{Token: tok, Reminder: r, Weekday: weekday, Hour: hour, Minute: minute})
	return tok, nil
}

func (f *FakeScheduler) ScheduleOneShot(_ context.Context, r notify.Reminder, fireAt time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ScheduleErr != nil {
		return "", f.ScheduleErr
	}
	tok := f.nextToken()
	f.OneShots = append(f.OneShots, OneShotCall{Token: tok, Reminder: r, FireAt: fireAt})
	return tok, nil
}

func (f *FakeScheduler) Cancel(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Cancelled = append(f.Cancelled, token)
	delete(f.active, token)
	return nil
}

// Active returns the tokens scheduled and not yet cancelled, sorted.
func (f *FakeScheduler) Active() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.active))
	for tok := range f.active {
		out = append(out, tok)
	}
	slices.Sort(out)
	return out
}

// RecurringCount returns the number of ScheduleRecurring calls so far.
func (f *FakeScheduler) RecurringCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Recurring)
}

// CancelledTokens returns a copy of the cancelled tokens in call order.
func (f *FakeScheduler) CancelledTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.Cancelled)
}

// Reset clears the recorded calls but keeps the active set and token sequence.
func (f *FakeScheduler) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PermissionRequests = 0
	f.Recurring = nil
	f.OneShots = nil
	f.Cancelled = nil
}
