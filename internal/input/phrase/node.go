package phrase

import (
	"fmt"
	"strings"

	"github.com/dshills/keymelody/internal/input/action"
	"github.com/dshills/keymelody/internal/input/key"
)

// State is the outcome of feeding events to a node.
type State uint8

const (
	// InProgress means the node may still complete. It is the reset state.
	InProgress State = iota
	// Completed means every member event arrived in the required shape.
	Completed
	// Invalid means the node cannot complete until it is reset.
	Invalid
)

func (s State) String() string {
	switch s {
	case InProgress:
		return "in-progress"
	case Completed:
		return "completed"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Node is one phrase placed in a gesture tree. Children are owned by
// their parent; the parent link is only followed when looking for a
// fallback action.
type Node struct {
	variant Variant
	members []key.Position
	active  []bool
	count   int
	armed   bool
	state   State

	layer    key.Layer
	action   action.Action
	parent   *Node
	children []*Node
}

// NewRoot creates an empty tree root.
func NewRoot() *Node {
	return &Node{variant: VariantRoot}
}

// New builds a detached node from spec.
func New(spec Spec, layer key.Layer) (*Node, error) {
	members, err := spec.Validate()
	if err != nil {
		return nil, err
	}
	return &Node{
		variant: spec.Variant,
		members: members,
		active:  make([]bool, len(members)),
		layer:   layer,
	}, nil
}

// NewNote builds a detached note node.
func NewNote(pos key.Position, layer key.Layer) (*Node, error) {
	return New(Note(pos), layer)
}

// NewChord builds a detached chord node.
func NewChord(layer key.Layer, positions ...key.Position) (*Node, error) {
	return New(Chord(positions...), layer)
}

// NewCluster builds a detached cluster node.
func NewCluster(layer key.Layer, positions ...key.Position) (*Node, error) {
	return New(Cluster(positions...), layer)
}

// Variant returns the phrase kind.
func (n *Node) Variant() Variant { return n.variant }

// State returns the matching state reached by the last event.
func (n *Node) State() State { return n.state }

// Layer returns the lowest layer on which the node is eligible.
func (n *Node) Layer() key.Layer { return n.layer }

// Action returns the action fired when the node ends a gesture.
func (n *Node) Action() action.Action { return n.action }

// Parent returns the enclosing node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the phrases that may follow this one. The slice is
// shared with the node.
func (n *Node) Children() []*Node { return n.children }

// IsRoot reports whether n is a tree root.
func (n *Node) IsRoot() bool { return n.variant == VariantRoot }

// IsLeaf reports whether n has no children. Completing a leaf ends the
// gesture.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// HasChildren is the negation of IsLeaf.
func (n *Node) HasChildren() bool { return len(n.children) > 0 }

// SetAction replaces the node's action.
func (n *Node) SetAction(a action.Action) { n.action = a }

// Members returns a copy of the member positions.
func (n *Node) Members() []key.Position {
	out := make([]key.Position, len(n.members))
	copy(out, n.members)
	return out
}

// ActiveCount returns how many members are currently armed.
func (n *Node) ActiveCount() int { return n.count }

// Armed reports whether a note has seen its press.
func (n *Node) Armed() bool { return n.armed }

// SetLayer tightens the node layer to the smaller of the current value and l.
func (n *Node) SetLayer(l key.Layer) {
	if l < n.layer {
		n.layer = l
	}
}

// AddChild appends child and sets its parent link.
func (n *Node) AddChild(child *Node) {
	child.parent = n
	n.children = append(n.children, child)
}

// Depth returns the number of edges between n and the root.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

func (n *Node) memberIndex(pos key.Position) int {
	for i, m := range n.members {
		if m == pos {
			return i
		}
	}
	return -1
}

// Consider feeds ev to the node and returns its new state. It must only be
// called while the node is InProgress; otherwise the state is returned
// unchanged.
func (n *Node) Consider(ev key.Event) State {
	assertf(n.variant != VariantRoot, "consider on root")
	assertf(n.state == InProgress, "consider on %s node %s", n.state, n)
	if n.state != InProgress || n.variant == VariantRoot {
		return n.state
	}

	idx := n.memberIndex(ev.Position)
	if idx < 0 {
		if ev.Pressed {
			n.state = Invalid
		}
		return n.state
	}

	switch n.variant {
	case VariantNote:
		n.considerNote(ev)
	case VariantChord:
		n.considerChord(idx, ev)
	case VariantCluster:
		n.considerCluster(idx, ev)
	}
	return n.state
}

func (n *Node) considerNote(ev key.Event) {
	if ev.Pressed {
		n.armed = true
		return
	}
	if n.armed {
		n.state = Completed
	}
}

func (n *Node) considerChord(idx int, ev key.Event) {
	switch {
	case ev.Pressed && !n.active[idx]:
		n.active[idx] = true
		n.count++
	case !ev.Pressed && n.active[idx]:
		n.active[idx] = false
		n.count--
	}
	if n.count == len(n.members) {
		n.state = Completed
	}
}

func (n *Node) considerCluster(idx int, ev key.Event) {
	if !ev.Pressed || n.active[idx] {
		return
	}
	n.active[idx] = true
	n.count++
	if n.count == len(n.members) {
		n.state = Completed
	}
}

// Reset returns the node to InProgress and clears its activation.
func (n *Node) Reset() {
	n.state = InProgress
	n.armed = false
	n.count = 0
	for i := range n.active {
		n.active[i] = false
	}
}

// ResetChildren resets every direct child.
func (n *Node) ResetChildren() {
	for _, c := range n.children {
		c.Reset()
	}
}

// Equal reports structural equality: same variant and same member set.
// Chords and clusters ignore member order.
func (n *Node) Equal(other *Node) bool {
	if other == nil || n.variant != other.variant || len(n.members) != len(other.members) {
		return false
	}
	return n.sameMembers(other.members)
}

// Matches reports whether n is structurally equal to spec.
func (n *Node) Matches(spec Spec) bool {
	if n.variant != spec.Variant {
		return false
	}
	members, err := spec.Validate()
	if err != nil || len(members) != len(n.members) {
		return false
	}
	return n.sameMembers(members)
}

func (n *Node) sameMembers(members []key.Position) bool {
	for _, p := range members {
		if n.memberIndex(p) < 0 {
			return false
		}
	}
	return true
}

// Spec returns the description n was built from.
func (n *Node) Spec() Spec {
	return Spec{Variant: n.variant, Members: n.Members()}
}

// String renders the node as "chord(r0c1 r0c2)@1".
func (n *Node) String() string {
	if n.variant == VariantRoot {
		return "root"
	}
	parts := make([]string, len(n.members))
	for i, p := range n.members {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)@%d", n.variant, strings.Join(parts, " "), n.layer)
}
