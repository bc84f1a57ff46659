package phrase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/keymelody/internal/input/key"
)

var (
	// ErrNoMembers is returned when a phrase names no positions.
	ErrNoMembers = errors.New("phrase: no member positions")

	// ErrNoteArity is returned when a note names more than one position.
	ErrNoteArity = errors.New("phrase: note takes exactly one position")

	// ErrUnknownVariant is returned for a variant outside Note, Chord and Cluster.
	ErrUnknownVariant = errors.New("phrase: unknown variant")
)

// Variant selects the matching behaviour of a node.
type Variant uint8

const (
	// VariantRoot marks the tree root. It is never considered.
	VariantRoot Variant = iota
	// VariantNote completes on the press then release of one key.
	VariantNote
	// VariantChord completes when every member is down at once.
	VariantChord
	// VariantCluster completes once every member has been pressed, in
	// any order and with releases in between.
	VariantCluster
)

func (v Variant) String() string {
	switch v {
	case VariantRoot:
		return "root"
	case VariantNote:
		return "note"
	case VariantChord:
		return "chord"
	case VariantCluster:
		return "cluster"
	default:
		return "unknown"
	}
}

// ParseVariant maps a lower-case variant name to a Variant.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "note":
		return VariantNote, nil
	case "chord":
		return VariantChord, nil
	case "cluster":
		return VariantCluster, nil
	default:
		return VariantRoot, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
}

// Spec describes one phrase of a gesture before it is placed in a tree.
type Spec struct {
	Variant Variant
	Members []key.Position
}

// Note describes a single-position phrase.
func Note(pos key.Position) Spec {
	return Spec{Variant: VariantNote, Members: []key.Position{pos}}
}

// Chord describes a phrase completed when all positions are held together.
func Chord(positions ...key.Position) Spec {
	return Spec{Variant: VariantChord, Members: positions}
}

// Cluster describes a phrase completed once every position was pressed.
func Cluster(positions ...key.Position) Spec {
	return Spec{Variant: VariantCluster, Members: positions}
}

// Notes expands positions into a line of single-note specs.
func Notes(positions ...key.Position) []Spec {
	specs := make([]Spec, len(positions))
	for i, p := range positions {
		specs[i] = Note(p)
	}
	return specs
}

// Validate checks the spec and returns its members with duplicates removed,
// in first-seen order.
func (s Spec) Validate() ([]key.Position, error) {
	switch s.Variant {
	case VariantNote, VariantChord, VariantCluster:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, s.Variant)
	}
	if len(s.Members) == 0 {
		return nil, fmt.Errorf("%s: %w", s.Variant, ErrNoMembers)
	}

	members := make([]key.Position, 0, len(s.Members))
	seen := make(map[key.Position]bool, len(s.Members))
	for _, p := range s.Members {
		if !p.IsValid() {
			return nil, fmt.Errorf("%s: %w: %s", s.Variant, key.ErrInvalidPosition, p)
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		members = append(members, p)
	}

	if s.Variant == VariantNote && len(members) != 1 {
		return nil, ErrNoteArity
	}
	return members, nil
}

// String renders the spec as "chord(r0c1 r0c2)".
func (s Spec) String() string {
	parts := make([]string, len(s.Members))
	for i, p := range s.Members {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", s.Variant, strings.Join(parts, " "))
}
