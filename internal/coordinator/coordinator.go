// Package coordinator dispatches UI events to the settings store, the
// summarizer and the exporter, and sends the replies back to the attached
// session.
//
// All events, including replies produced by background work, are handled on
// one goroutine (Run). Slow work runs in its own goroutine and posts its
// reply back to that loop, so a summary in flight never holds up other
// channels.
package coordinator

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/hpungsan/skim/internal/logging"
	"github.com/hpungsan/skim/internal/ops"
	"github.com/hpungsan/skim/internal/settings"
)

// ErrStopped is returned when submitting to a coordinator whose Run loop has exited.
var ErrStopped = stderrors.New("coordinator stopped")

// Session is the UI surface replies are sent to.
type Session interface {
	Send(msg Outbound) error
}

// ConfigStore is the persisted user state the coordinator reads and writes.
type ConfigStore interface {
	Get(ctx context.Context) settings.Configuration
	HasCredential(ctx context.Context) bool
	SetCredential(ctx context.Context, secret string) error
	SetOutputFolderPath(ctx context.Context, path string) error
	SetWindowSize(ctx context.Context, width, height int) error
}

// Config holds the coordinator's collaborators.
type Config struct {
	Store      ConfigStore
	Summarizer ops.Summarizer

	// Opener defaults to ops.SystemOpener.
	Opener ops.Opener

	Logger *slog.Logger
}

// Coordinator is the event dispatcher. Create with New, then call Run.
type Coordinator struct {
	store      ConfigStore
	summarizer ops.Summarizer
	opener     ops.Opener
	log        *slog.Logger

	events chan func(context.Context)
	tasks  sync.WaitGroup

	// closed is set once Run stops accepting events. Senders hold stopMu
	// for reading while they queue.
	stopMu sync.RWMutex
	closed bool

	// One request in flight per channel.
	summaryFlight *semaphore.Weighted
	exportFlight  *semaphore.Weighted

	// Owned by the Run goroutine.
	session Session
}

// New creates a Coordinator with no session attached.
func New(cfg Config) *Coordinator {
	opener := cfg.Opener
	if opener == nil {
		opener = ops.SystemOpener{}
	}
	return &Coordinator{
		store:         cfg.Store,
		summarizer:    cfg.Summarizer,
		opener:        opener,
		log:           logging.OrDiscard(cfg.Logger).With("component", "coordinator"),
		events:        make(chan func(context.Context), 64),
		summaryFlight: semaphore.NewWeighted(1),
		exportFlight:  semaphore.NewWeighted(1),
	}
}

// Run processes events until ctx is cancelled, then waits for background
// work to finish. It must be called exactly once.
func (c *Coordinator) Run(ctx context.Context) error {
	c.log.Debug("coordinator started")
	for {
		select {
		case handle := <-c.events:
			handle(ctx)
		case <-ctx.Done():
			c.shutdown(ctx)
			c.tasks.Wait()
			c.log.Debug("coordinator stopped")
			return nil
		}
	}
}

// shutdown stops accepting events and handles every event already queued.
// Senders blocked on a full queue are drained until the write lock is taken.
func (c *Coordinator) shutdown(ctx context.Context) {
	locked := make(chan struct{})
	go func() {
		c.stopMu.Lock()
		c.closed = true
		c.stopMu.Unlock()
		close(locked)
	}()

	for {
		select {
		case handle := <-c.events:
			handle(ctx)
		case <-locked:
			for {
				select {
				case handle := <-c.events:
					handle(ctx)
				default:
					return
				}
			}
		}
	}
}

// Submit queues an inbound event. An empty ID is replaced with a new one.
func (c *Coordinator) Submit(ctx context.Context, msg Inbound) error {
	if msg.ID == "" {
		msg.ID = NewID()
	}
	return c.enqueue(ctx, func(runCtx context.Context) {
		c.dispatch(runCtx, msg)
	})
}

// Attach makes s the active session, replacing any previous one.
func (c *Coordinator) Attach(s Session) error {
	return c.enqueue(context.Background(), func(context.Context) {
		c.session = s
		c.log.Debug("session attached")
	})
}

// Detach clears the active session if it is s. Replies produced while no
// session is attached are dropped.
func (c *Coordinator) Detach(s Session) error {
	return c.enqueue(context.Background(), func(context.Context) {
		if c.session == s {
			c.session = nil
			c.log.Debug("session detached")
		}
	})
}

// enqueue queues handle for the loop. A nil return means handle will run,
// even if Run is shutting down.
func (c *Coordinator) enqueue(ctx context.Context, handle func(context.Context)) error {
	c.stopMu.RLock()
	defer c.stopMu.RUnlock()

	if c.closed {
		return ErrStopped
	}

	select {
	case c.events <- handle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// send delivers msg to the active session. Runs on the loop goroutine.
func (c *Coordinator) send(msg Outbound) {
	if c.session == nil {
		c.log.Debug("no session, dropping event", "channel", msg.Channel, "event_id", msg.ID)
		return
	}
	if err := c.session.Send(msg); err != nil {
		c.log.Warn("send failed", "channel", msg.Channel, "event_id", msg.ID, "error", err)
	}
}

// post schedules a send from a background task.
func (c *Coordinator) post(channel, id string, payload any) {
	msg := Outbound{Channel: channel, ID: id, Payload: payload}
	if err := c.enqueue(context.Background(), func(context.Context) { c.send(msg) }); err != nil {
		c.log.Debug("reply dropped", "channel", channel, "event_id", id, "error", err)
	}
}

// spawn runs task in the background; Run waits for it before returning.
func (c *Coordinator) spawn(task func()) {
	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		task()
	}()
}

func (c *Coordinator) dispatch(ctx context.Context, msg Inbound) {
	log := c.log.With("channel", msg.Channel, "event_id", msg.ID)
	log.Debug("event received")

	switch msg.Channel {
	case ChannelReady:
		c.handleReady(ctx)
	case ChannelSaveCredential:
		c.handleSaveCredential(ctx, log, msg)
	case ChannelSaveFolderPath:
		c.handleSaveFolderPath(ctx, log, msg)
	case ChannelRequestSummary:
		c.handleRequestSummary(ctx, log, msg)
	case ChannelExport:
		c.handleExport(ctx, log, msg)
	case ChannelOpenExportedFile:
		c.handleOpenExportedFile(ctx, log, msg)
	case ChannelWindowResized:
		c.handleWindowResized(ctx, log, msg)
	default:
		log.Warn("unknown channel")
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	return json.Unmarshal(raw, v)
}
