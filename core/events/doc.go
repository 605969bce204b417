// Package events defines the events emitted on the internal bus.
//
// Available event types:
//   - StatusEvent: a status record was (re)computed, after a poll or on a
//     precise schedule boundary
//   - PollEvent: outcome of one fetch of the source
package events
