// Package matcher recognises registered gestures in a live stream of key
// events.
//
// The Matcher sits in front of the host's normal key handling. Every
// physical transition is handed to Process, which answers Consumed when
// the event became part of a gesture in progress and PassThrough when the
// host should handle it as usual. Consumed events are held back in a
// record.Buffer until the gesture resolves:
//
//   - When a leaf gesture completes, its action fires and the held events
//     are discarded. Keys still down at that point have their releases
//     consumed too.
//   - When the next event rules out every candidate, the held events are
//     replayed through the ReplayFunc and the invalidating event itself is
//     returned as PassThrough, so the host sees the original keystrokes in
//     their original order.
//   - When the timeout expires, the matcher walks up from the last
//     completed phrase through Transparent actions looking for a keycode
//     or callback to fire; if none is found the held events are replayed.
//   - The abort position ends any match with a replay and is itself
//     swallowed.
//
// Timeouts are polled: the host calls Tick from its loop and Process
// checks the deadline before evaluating each new event. A late tick only
// delays the timeout; it never fires early.
//
// A Matcher is owned by one goroutine. Replayed events that the host feeds
// straight back into Process are passed through untouched.
package matcher
