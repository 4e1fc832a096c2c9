// Package subscriber is the consumer side of the publish notifiers. It parses
// received frames and reports gaps in each topic's sequence numbers.
package subscriber
