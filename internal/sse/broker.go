// Package sse streams store changes, fired reminders and inbox results to the
// presentation layer as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/mealtime/internal/diet"
	"github.com/starford/mealtime/internal/notify"
	"github.com/starford/mealtime/internal/schedule"
)

// Event names besides the diet.Change kinds, which are streamed as is.
const (
	EventTodayUpdated  = "today.updated"
	EventReminderFired = "reminder.fired"
	EventInbox         = "inbox.processed"
)

const (
	clientBuffer = 64
	keepAlive    = 25 * time.Second
)

// ChangeData is the payload of a store change event.
type ChangeData struct {
	ID string `json:"id,omitempty"`
}

// TodayData is the payload of today.updated.
type TodayData struct {
	Date string `json:"date"`
}

// ReminderData is the payload of reminder.fired.
type ReminderData struct {
	Token   string    `json:"token"`
	MealID  string    `json:"mealId"`
	DietID  string    `json:"dietId,omitempty"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	FiredAt time.Time `json:"firedAt"`
}

// InboxData is the payload of inbox.processed.
type InboxData struct {
	Kind string `json:"kind"`
	File string `json:"file"`
}

type message struct {
	name string
	data any
	// today marks messages that change what the today view shows.
	today bool
}

// Broker fans events out to connected clients.
//
// One goroutine owns the client set, the frame sequence and the today.updated
// throttle; the exported methods only talk to it over channels. today.updated
// is sent at most once per throttle window, and a change inside the window is
// flushed when the window ends so the last state always reaches clients.
type Broker struct {
	throttle time.Duration
	now      func() time.Time

	in    chan message
	join  chan chan []byte
	leave chan chan []byte

	clients   atomic.Int32
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewBroker starts a broker. throttle bounds how often today.updated is sent
// (1s when not positive); now dates it (time.Now when nil).
func NewBroker(throttle time.Duration, now func() time.Time) *Broker {
	if throttle <= 0 {
		throttle = time.Second
	}
	if now == nil {
		now = time.Now
	}
	b := &Broker{
		throttle: throttle,
		now:      now,
		in:       make(chan message, 256),
		join:     make(chan chan []byte),
		leave:    make(chan chan []byte),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var seq uint64
	var lastToday time.Time
	pending := false
	flush := time.NewTimer(b.throttle)
	flush.Stop()
	defer flush.Stop()

	send := func(name string, data any) {
		payload, err := json.Marshal(data)
		if err != nil {
			return
		}
		seq++
		frame := fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", seq, name, payload)
		for ch := range clients {
			select {
			case ch <- frame:
			default:
				// Slow client; it catches up on the next today.updated.
			}
		}
	}
	sendToday := func() {
		pending = false
		lastToday = time.Now()
		send(EventTodayUpdated, TodayData{Date: schedule.DateISO(b.now())})
	}

	for {
		select {
		case <-b.done:
			for ch := range clients {
				close(ch)
			}
			b.clients.Store(0)
			return

		case ch := <-b.join:
			clients[ch] = struct{}{}
			b.clients.Store(int32(len(clients)))

		case ch := <-b.leave:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}
			b.clients.Store(int32(len(clients)))

		case m := <-b.in:
			send(m.name, m.data)
			if !m.today || pending {
				continue
			}
			if wait := b.throttle - time.Since(lastToday); wait > 0 {
				pending = true
				flush.Reset(wait)
				continue
			}
			sendToday()

		case <-flush.C:
			if pending {
				sendToday()
			}
		}
	}
}

func (b *Broker) publish(m message) {
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.in <- m:
	case <-b.stopped:
	}
}

// PublishChange streams a store change. Plan and history changes also
// schedule a today.updated.
func (b *Broker) PublishChange(c diet.Change) {
	b.publish(message{
		name:  c.Kind,
		data:  ChangeData{ID: c.ID},
		today: c.Kind == diet.ChangePlans || c.Kind == diet.ChangeHistory,
	})
}

// PublishReminder streams a reminder delivered by the scheduler.
func (b *Broker) PublishReminder(d notify.Delivery) {
	b.publish(message{name: EventReminderFired, data: ReminderData{
		Token:   d.Token,
		MealID:  d.Reminder.Payload.MealID,
		DietID:  d.Reminder.Payload.DietID,
		Title:   d.Reminder.Title,
		Body:    d.Reminder.Body,
		FiredAt: d.FiredAt,
	}})
}

// PublishInbox streams the outcome of one inbox file.
func (b *Broker) PublishInbox(kind, file string) {
	b.publish(message{name: EventInbox, data: InboxData{Kind: kind, File: file}})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	return int(b.clients.Load())
}

// Close stops the broker and disconnects every client.
func (b *Broker) Close() {
	b.closeOnce.Do(func() { close(b.done) })
	<-b.stopped
}

// subscribe registers a client. The channel is closed when the client leaves
// or the broker stops; ok is false when the broker has already stopped.
func (b *Broker) subscribe() (ch chan []byte, ok bool) {
	ch = make(chan []byte, clientBuffer)
	select {
	case b.join <- ch:
		return ch, true
	case <-b.stopped:
		return nil, false
	}
}

func (b *Broker) unsubscribe(ch chan []byte) {
	select {
	case b.leave <- ch:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ch, ok := b.subscribe()
	if !ok {
		http.Error(w, "event stream closed", http.StatusServiceUnavailable)
		return
	}
	defer b.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ping := time.NewTicker(keepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		case frame, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(frame)
			flusher.Flush()
		}
	}
}
