package notify

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/starford/mealtime/internal/apperr"
	"github.com/starford/mealtime/internal/schedule"
)

// Permission is the answer Local gives to RequestPermission.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Delivery is a reminder that came due.
type Delivery struct {
	Token    string    `json:"token"`
	Reminder Reminder  `json:"reminder"`
	FiredAt  time.Time `json:"firedAt"`
}

type registration struct {
	token    string
	reminder Reminder
	fireAt   time.Time
	weekly   bool
}

// Local is an in-process Scheduler. Registrations live in memory only and
// are lost on restart, the same as the platform's snooze reminders.
//
// Concurrency model: a single goroutine owns the registration set and the
// timer. Public methods talk to it through channels.
type Local struct {
	permission Permission
	deliver    func(Delivery)

	addCh    chan registration
	cancelCh chan string
	countCh  chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewLocal starts a Local scheduler. deliver is called on its own goroutine
// for every due reminder; it may be nil.
func NewLocal(permission Permission, deliver func(Delivery)) *Local {
	if deliver == nil {
		deliver = func(Delivery) {}
	}
	l := &Local{
		permission: permission,
		deliver:    deliver,
		addCh:      make(chan registration),
		cancelCh:   make(chan string),
		countCh:    make(chan chan int),
		stopCh:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Local) run() {
	defer close(l.stopped)

	regs := make(map[string]registration)
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	arm := func() {
		timer.Stop()
		var next time.Time
		for _, r := range regs {
			if next.IsZero() || r.fireAt.Before(next) {
				next = r.fireAt
			}
		}
		if !next.IsZero() {
			timer.Reset(max(time.Until(next), 0))
		}
	}

	for {
		arm()
		select {
		case <-l.stopCh:
			timer.Stop()
			return

		case r := <-l.addCh:
			regs[r.token] = r

		case tok := <-l.cancelCh:
			delete(regs, tok)

		case resp := <-l.countCh:
			resp <- len(regs)

		case <-timer.C:
			now := time.Now()
			for tok, r := range regs {
				if r.fireAt.After(now) {
					continue
				}
				go l.deliver(Delivery{Token: tok, Reminder: r.reminder, FiredAt: now})
				if !r.weekly {
					delete(regs, tok)
					continue
				}
				for !r.fireAt.After(now) {
					r.fireAt = r.fireAt.AddDate(0, 0, 7)
				}
				regs[tok] = r
			}
		}
	}
}

// Close stops the scheduler loop. Pending reminders are dropped.
func (l *Local) Close() {
	if l.closed.CompareAndSwap(false, true) {
		close(l.stopCh)
	}
	<-l.stopped
}

// RequestPermission reports the configured permission policy.
func (l *Local) RequestPermission(_ context.Context) (bool, error) {
	return l.permission == PermissionGranted, nil
}

// ScheduleRecurring registers a weekly reminder.
func (l *Local) ScheduleRecurring(ctx context.Context, r Reminder, weekday, hour, minute int) (string, error) {
	if weekday < 1 || weekday > 7 {
		return "", fmt.Errorf("notify: weekday %d out of range 1..7", weekday)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("notify: invalid time %d:%d", hour, minute)
	}
	fireAt := schedule.NextOccurrence(weekday, hour, minute, time.Now())
	return l.add(ctx, registration{reminder: r, fireAt: fireAt, weekly: true})
}

// ScheduleOneShot registers a reminder that fires once at fireAt.
func (l *Local) ScheduleOneShot(ctx context.Context, r Reminder, fireAt time.Time) (string, error) {
	return l.add(ctx, registration{reminder: r, fireAt: fireAt})
}

func (l *Local) add(ctx context.Context, r registration) (string, error) {
	if l.closed.Load() {
		return "", apperr.ErrSchedulerStopped
	}
	r.token = uuid.NewString()
	select {
	case l.addCh <- r:
		return r.token, nil
	case <-l.stopped:
		return "", apperr.ErrSchedulerStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Cancel removes a registration. Unknown tokens are ignored.
func (l *Local) Cancel(ctx context.Context, token string) error {
	if l.closed.Load() {
		return nil
	}
	select {
	case l.cancelCh <- token:
		return nil
	case <-l.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of live registrations.
func (l *Local) Pending() int {
	if l.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case l.countCh <- resp:
	case <-l.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-l.stopped:
		return 0
	}
}
