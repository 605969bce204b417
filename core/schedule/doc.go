// Package schedule turns the per-hour outage table published for a queue into
// half-hour day schedules.
//
// A published day is 24 hour classes:
//   - on: powered the whole hour
//   - off: unpowered the whole hour
//   - f4: unpowered during the first half, powered during the second
//   - f5: powered during the first half, unpowered during the second
//
// Each class expands into two half-hour slots, giving 48 slots per day.
// A Timeline pairs today's Day with tomorrow's when the source already
// publishes it. Timelines are values and are never modified after parsing.
package schedule
