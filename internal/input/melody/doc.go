// Package melody builds the gesture tree consumed by the matcher.
//
// Gestures are registered as ordered lists of phrase specs. Gestures that
// share a prefix share nodes: at every step the registry looks for a
// structurally equal child to reuse before attaching a new one. Every
// reused node takes the smallest layer any gesture through it was
// registered on, so an ancestor is never harder to reach than the
// gestures beneath it.
//
// Two leaves that are equal but registered on different layers are kept
// as separate siblings. At match time the matcher prefers the one with the
// highest layer not above the active layer, so a higher layer can shadow
// a base-layer gesture without duplicating its tree. Two leaves on the
// same layer collapse into one node; if their actions differ the later
// registration wins and the collision is recorded as a Conflict.
//
// Registration happens once at startup and the registry is not safe for
// concurrent use with a running matcher.
package melody
