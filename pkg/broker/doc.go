// Package broker implements the command fan-out core of droneguard: a
// per-device subscriber registry, bounded delivery queues, an advisory
// pending-command ledger, and the Broker facade producers use to enqueue
// commands for a device.
//
// Delivery is best-effort while a subscriber is connected. There is no
// store-and-forward: enqueueing with zero subscribers attached records the
// command in the ledger and delivers it to nobody. Pushes never block the
// producer; a full queue evicts its oldest envelope so the most recent
// command stays visible (drop-oldest policy).
package broker
