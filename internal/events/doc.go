// Package events carries task lifecycle notifications from the service layer
// to interested handlers.
//
// Events are emitted after the change they describe has been committed, so a
// handler never observes a mutation that was later rolled back. Delivery is
// synchronous and in-process.
package events
