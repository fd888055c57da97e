// Package core implements the outbound dispatch queue: durable dispatch
// items, the capped-exponential retry state machine, and the worker and
// scheduler that drive signed deliveries to the configured automation
// endpoint.
package core
