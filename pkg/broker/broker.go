package broker

import (
	"errors"
	"time"

	"github.com/droneguard/droneguard/pkg/log"
	"github.com/droneguard/droneguard/pkg/realtime"
)

// ErrEmptyDeviceID is returned when a caller enqueues or attaches without a
// device id.
var ErrEmptyDeviceID = errors.New("device_id must not be empty")

// Broker is the single entry point producers use to enqueue a command for a
// device and connection handlers use to attach or detach a subscriber. It
// owns the subscriber registry and the pending-command ledger; it is
// constructed once at process start and handed to every HTTP handler.
type Broker struct {
	registry *Registry
	ledger   *Ledger
	hub      *realtime.Hub
	logger   *log.Logger
}

// Options configures a Broker.
type Options struct {
	// QueueCapacity bounds each subscriber's delivery queue.
	// <= 0 selects DefaultQueueCapacity.
	QueueCapacity int

	// Hub receives activity events for live observers. Nil disables
	// observer notification.
	Hub *realtime.Hub
}

// New constructs a broker with an empty registry and ledger.
func New(opts Options) *Broker {
	return &Broker{
		registry: NewRegistry(opts.QueueCapacity),
		ledger:   NewLedger(),
		hub:      opts.Hub,
		logger:   log.ForService("broker"),
	}
}

// Stats is the introspection snapshot returned by Inspect.
type Stats struct {
	Devices   map[string]int `json:"devices"`
	TotalSubs int            `json:"total_subs"`
}

// Enqueue builds an envelope with a fresh command id and pushes it to every
// subscriber currently attached for deviceID. See EnqueueWithID.
func (b *Broker) Enqueue(deviceID, cmdType string, payload map[string]any) (string, error) {
	return b.EnqueueWithID(deviceID, cmdType, payload, "")
}

// EnqueueWithID is Enqueue with a caller-supplied command id for idempotent
// resubmission (empty generates one). The command is recorded in the ledger,
// then pushed non-blocking into each queue from a registry snapshot taken
// under the lock; the pushes themselves happen outside it. Zero attached
// subscribers is not an error: the command is recorded and delivered to
// nobody, matching the best-effort, no-store-and-forward contract.
func (b *Broker) EnqueueWithID(deviceID, cmdType string, payload map[string]any, commandID string) (string, error) {
	if deviceID == "" {
		return "", ErrEmptyDeviceID
	}
	env, err := NewEnvelopeWithID(cmdType, payload, commandID)
	if err != nil {
		return "", err
	}

	b.ledger.Record(deviceID, env)
	queues := b.registry.Snapshot(deviceID)

	evictions := 0
	for _, q := range queues {
		if q.Push(env) {
			evictions++
		}
	}

	b.logger.Infof("enqueue device_id=%s cmd_type=%s subs_for_device=%d total_subs=%d command_id=%s",
		deviceID, cmdType, len(queues), b.registry.Total(), env.CommandID)
	if evictions > 0 {
		b.logger.Warnf("queue overflow for device_id=%s: evicted oldest envelope on %d subscriber(s)", deviceID, evictions)
	}

	if b.hub != nil {
		ev := realtime.NewActivityEvent(realtime.KindCommand, deviceID)
		ev.CommandID = env.CommandID
		ev.CmdType = env.CmdType
		b.hub.Broadcast(ev)
	}
	return env.CommandID, nil
}

// Attach registers a new subscriber for deviceID and returns its delivery
// queue. The caller owns the queue until it calls Detach.
func (b *Broker) Attach(deviceID string) (*Queue, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}
	q := b.registry.Attach(deviceID)
	b.logger.Infof("connect device_id=%s subs_for_device=%d total_subs=%d",
		deviceID, b.registry.CountFor(deviceID), b.registry.Total())
	return q, nil
}

// Detach deregisters a subscriber. Idempotent.
func (b *Broker) Detach(deviceID string, q *Queue) {
	b.registry.Detach(deviceID, q)
	b.logger.Infof("disconnect device_id=%s subs_for_device=%d total_subs=%d",
		deviceID, b.registry.CountFor(deviceID), b.registry.Total())
}

// Ack reconciles an acknowledgment against the ledger and notifies
// observers. found reports whether a pending record existed; an unknown
// command id is accepted but flagged. A device mismatch returns
// ErrDeviceMismatch and leaves the ledger entry untouched.
func (b *Broker) Ack(deviceID, commandID string, ok bool, errMsg string) (found bool, err error) {
	found, err = b.ledger.Reconcile(deviceID, commandID)
	if err != nil {
		b.logger.Warnf("ack rejected device_id=%s command_id=%s: %v", deviceID, commandID, err)
		return found, err
	}
	if !found {
		b.logger.Warnf("ack for unknown command device_id=%s command_id=%s (no pending record found)", deviceID, commandID)
	}
	b.logger.Infof("ack device_id=%s command_id=%s ok=%t error=%q pending_found=%t",
		deviceID, commandID, ok, errMsg, found)

	if b.hub != nil {
		ev := realtime.NewActivityEvent(realtime.KindAck, deviceID)
		ev.CommandID = commandID
		ev.Detail = map[string]any{"ok": ok, "pending_found": found}
		if errMsg != "" {
			ev.Detail["error"] = errMsg
		}
		b.hub.Broadcast(ev)
	}
	return found, nil
}

// Inspect returns per-device subscriber counts and the total.
func (b *Broker) Inspect() Stats {
	return Stats{
		Devices:   b.registry.Counts(),
		TotalSubs: b.registry.Total(),
	}
}

// PendingCommands returns the number of ledger entries awaiting ack.
func (b *Broker) PendingCommands() int {
	return b.ledger.Pending()
}

// SweepLedger evicts ledger entries older than maxAge. See
// Ledger.SweepOlderThan.
func (b *Broker) SweepLedger(maxAge time.Duration) int {
	return b.ledger.SweepOlderThan(maxAge)
}

// Close detaches all subscribers. Queues owned by live sessions stop
// receiving pushes; their sessions terminate on their own disconnect.
func (b *Broker) Close() {
	b.registry.clear()
	b.logger.Infof("broker closed, all subscribers detached")
}
