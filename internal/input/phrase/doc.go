// Package phrase implements the nodes of a gesture tree.
//
// A gesture is a sequence of phrases. Each phrase is one of three variants:
//
//   - Note: a single position, matched as a press followed by the release
//     of that same position.
//   - Chord: a set of positions that must all be held down at once.
//   - Cluster: a set of positions that must each be pressed at least once,
//     in any order, with no need to hold them together.
//
// Nodes are fed one event at a time through Consider and report whether
// they are still in progress, completed or invalidated. A press of a
// position outside a node's members invalidates it; every other
// irrelevant transition leaves the state unchanged.
//
// Nodes carry per-match state and are not safe for concurrent use.
// Building with the melodydebug tag turns misuse, such as considering an
// event on a node that already completed, into a panic.
package phrase
