// Package record holds the key events withheld from the host while a
// gesture is being matched.
//
// A Buffer is filled in arrival order and emptied in one of two ways: it
// is discarded when the gesture completes and its action fires, or it is
// replayed when the match fails, times out or is aborted. Replay shifts
// every timestamp by a single offset so that the last buffered event lands
// on the replay time while the original spacing between events survives:
//
//	buf := record.NewBuffer(record.DefaultCapacity)
//	_ = buf.Append(ev)
//	// ...
//	buf.Replay(clock.Now(), host.Inject)
//
// Buffers are not safe for concurrent use; the matcher that owns one is
// driven from a single goroutine.
package record
