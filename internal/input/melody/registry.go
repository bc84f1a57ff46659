package melody

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/keymelody/internal/input/action"
	"github.com/dshills/keymelody/internal/input/key"
	"github.com/dshills/keymelody/internal/input/phrase"
	"github.com/dshills/keymelody/internal/logging"
)

var (
	// ErrEmptySequence is returned when a gesture has no phrases.
	ErrEmptySequence = errors.New("melody: empty phrase sequence")

	// ErrInvalidHandle is returned for a zero or foreign Handle.
	ErrInvalidHandle = errors.New("melody: invalid handle")

	// ErrNoTaps is returned when a tap dance names no tap counts.
	ErrNoTaps = errors.New("melody: tap dance without taps")

	// ErrTapCount is returned for a non-positive or repeated tap count.
	ErrTapCount = errors.New("melody: invalid tap count")
)

// Handle refers to the last node of a registered gesture.
type Handle struct {
	node  *phrase.Node
	owner *Registry
}

// Node returns the node behind the handle, or nil for a zero handle.
func (h Handle) Node() *phrase.Node { return h.node }

// Valid reports whether h was returned by a registry.
func (h Handle) Valid() bool { return h.node != nil && h.owner != nil }

// Conflict records two same-layer definitions ending on one node with
// different actions.
type Conflict struct {
	Path        string
	Layer       key.Layer
	Existing    action.Action
	Replacement action.Action
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s on layer %d: %s replaced by %s", c.Path, c.Layer, c.Existing, c.Replacement)
}

// Registry owns the gesture tree.
type Registry struct {
	root      *phrase.Node
	logger    *logging.Logger
	conflicts []Conflict
	gestures  int
	nodes     int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for conflict warnings.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l.WithComponent("melody")
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		root:   phrase.NewRoot(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the tree root.
func (r *Registry) Root() *phrase.Node { return r.root }

// Len returns the number of gestures registered.
func (r *Registry) Len() int { return r.gestures }

// NodeCount returns the number of non-root nodes in the tree.
func (r *Registry) NodeCount() int { return r.nodes }

// Conflicts returns the same-layer collisions seen so far.
func (r *Registry) Conflicts() []Conflict {
	out := make([]Conflict, len(r.conflicts))
	copy(out, r.conflicts)
	return out
}

// Register adds a gesture made of specs on layer and binds a to its last
// node. Specs are validated before the tree is touched.
func (r *Registry) Register(layer key.Layer, specs []phrase.Spec, a action.Action) (Handle, error) {
	if len(specs) == 0 {
		return Handle{}, ErrEmptySequence
	}
	for i, s := range specs {
		if _, err := s.Validate(); err != nil {
			return Handle{}, fmt.Errorf("phrase %d: %w", i, err)
		}
	}

	node := r.root
	for i, spec := range specs {
		last := i == len(specs)-1
		next := r.lookup(node, spec, layer, last)
		if next == nil {
			created, err := phrase.New(spec, layer)
			if err != nil {
				return Handle{}, fmt.Errorf("phrase %d: %w", i, err)
			}
			node.AddChild(created)
			r.nodes++
			next = created
		} else if last {
			r.checkConflict(next, layer, a)
		}
		next.SetLayer(layer)
		node = next
	}

	node.SetAction(a)
	r.gestures++
	r.logger.Debug("registered %s on layer %d -> %s", pathOf(node), layer, a)
	return Handle{node: node, owner: r}, nil
}

// lookup finds a child of parent to reuse for spec. Non-terminal equal
// children are always reused. An equal leaf is reused when the new gesture
// continues past it or when it was registered on the same layer.
func (r *Registry) lookup(parent *phrase.Node, spec phrase.Spec, layer key.Layer, last bool) *phrase.Node {
	var sameLayerLeaf, anyLeaf *phrase.Node
	for _, c := range parent.Children() {
		if !c.Matches(spec) {
			continue
		}
		if c.HasChildren() {
			return c
		}
		if sameLayerLeaf == nil && c.Layer() == layer {
			sameLayerLeaf = c
		}
		if anyLeaf == nil {
			anyLeaf = c
		}
	}
	if sameLayerLeaf != nil {
		return sameLayerLeaf
	}
	if !last {
		return anyLeaf
	}
	return nil
}

func (r *Registry) checkConflict(n *phrase.Node, layer key.Layer, a action.Action) {
	existing := n.Action()
	if !existing.IsSet() || existing.Equal(a) || n.Layer() != layer {
		return
	}
	c := Conflict{
		Path:        pathOf(n),
		Layer:       layer,
		Existing:    existing,
		Replacement: a,
	}
	r.conflicts = append(r.conflicts, c)
	r.logger.Warn("ambiguous gesture: %s", c)
}

// SetAction rebinds the action of a registered gesture.
func (r *Registry) SetAction(h Handle, a action.Action) error {
	if !h.Valid() || h.owner != r {
		return ErrInvalidHandle
	}
	h.node.SetAction(a)
	return nil
}

// Note registers a single-note gesture.
func (r *Registry) Note(layer key.Layer, pos key.Position, a action.Action) (Handle, error) {
	return r.Register(layer, []phrase.Spec{phrase.Note(pos)}, a)
}

// SingleNoteLine registers a line of notes played one after another.
func (r *Registry) SingleNoteLine(layer key.Layer, positions []key.Position, a action.Action) (Handle, error) {
	return r.Register(layer, phrase.Notes(positions...), a)
}

// Chord registers a single chord gesture.
func (r *Registry) Chord(layer key.Layer, positions []key.Position, a action.Action) (Handle, error) {
	return r.Register(layer, []phrase.Spec{phrase.Chord(positions...)}, a)
}

// Cluster registers a single cluster gesture.
func (r *Registry) Cluster(layer key.Layer, positions []key.Position, a action.Action) (Handle, error) {
	return r.Register(layer, []phrase.Spec{phrase.Cluster(positions...)}, a)
}

// Sequence registers an arbitrary phrase sequence.
func (r *Registry) Sequence(layer key.Layer, specs []phrase.Spec, a action.Action) (Handle, error) {
	return r.Register(layer, specs, a)
}

// Tap binds an action to a tap count of a tap dance.
type Tap struct {
	Count  int
	Action action.Action
}

// TapDance registers repeated taps of pos as a line of notes as long as
// the largest tap count. Counts without an explicit action get fallback,
// typically action.Transparent so that a timeout falls back to the
// nearest shorter count. The returned handles are indexed by count - 1.
func (r *Registry) TapDance(layer key.Layer, pos key.Position, fallback action.Action, taps []Tap) ([]Handle, error) {
	if len(taps) == 0 {
		return nil, ErrNoTaps
	}

	byCount := make(map[int]action.Action, len(taps))
	maxCount := 0
	for _, t := range taps {
		if t.Count < 1 {
			return nil, fmt.Errorf("%w: %d", ErrTapCount, t.Count)
		}
		if _, dup := byCount[t.Count]; dup {
			return nil, fmt.Errorf("%w: %d repeated", ErrTapCount, t.Count)
		}
		byCount[t.Count] = t.Action
		if t.Count > maxCount {
			maxCount = t.Count
		}
	}

	handles := make([]Handle, 0, maxCount)
	positions := make([]key.Position, 0, maxCount)
	for count := 1; count <= maxCount; count++ {
		positions = append(positions, pos)
		a, ok := byCount[count]
		if !ok {
			a = fallback
		}
		h, err := r.SingleNoteLine(layer, positions, a)
		if err != nil {
			return nil, fmt.Errorf("tap %d: %w", count, err)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// Reset returns every node in the tree to its initial matching state.
func (r *Registry) Reset() {
	r.Walk(func(n *phrase.Node, _ int) bool {
		n.Reset()
		return true
	})
}

// Walk visits every non-root node depth first, children in registration
// order. Top-level nodes have depth 0. Returning false from fn skips the
// node's subtree.
func (r *Registry) Walk(fn func(n *phrase.Node, depth int) bool) {
	var visit func(n *phrase.Node, depth int)
	visit = func(n *phrase.Node, depth int) {
		for _, c := range n.Children() {
			if fn(c, depth) {
				visit(c, depth+1)
			}
		}
	}
	visit(r.root, 0)
}

// Layers returns the distinct node layers in the tree, ascending.
func (r *Registry) Layers() []key.Layer {
	seen := map[key.Layer]bool{}
	r.Walk(func(n *phrase.Node, _ int) bool {
		seen[n.Layer()] = true
		return true
	})
	layers := make([]key.Layer, 0, len(seen))
	for l := range seen {
		layers = append(layers, l)
	}
	sort.Slice(layers, func(i, j int) bool { return layers[i] < layers[j] })
	return layers
}

func pathOf(n *phrase.Node) string {
	var parts []string
	for ; n != nil && !n.IsRoot(); n = n.Parent() {
		parts = append(parts, n.String())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}
