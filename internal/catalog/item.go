// Package catalog defines the identity of a single catalog line: the part,
// instruction sheet, set, or box that demand and offers are keyed against.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the catalog line type.
type Kind string

const (
	KindPart         Kind = "part"
	KindInstruction  Kind = "instruction"
	KindSet          Kind = "set"
	KindBox          Kind = "box"
)

// Condition is the acceptable state of an item, or "any" when either is fine.
type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionUsed Condition = "used"
	ConditionAny  Condition = "any"
)

// Item is an immutable value identifying one catalog line. ColorID is only
// meaningful when Kind is KindPart; it is the zero value otherwise.
type Item struct {
	Kind      Kind
	PartID    string
	Condition Condition
	ColorID   int
}

// NewPart builds a part Item, the only kind that carries a color.
func NewPart(partID string, colorID int, condition Condition) Item {
	return Item{Kind: KindPart, PartID: partID, Condition: condition, ColorID: colorID}
}

// New builds a non-part Item (instruction, set, or box); these carry no color.
func New(kind Kind, partID string, condition Condition) Item {
	return Item{Kind: kind, PartID: partID, Condition: condition}
}

// Key returns the stable textual form used as a map key and for persistence
// and LP emission. Two items with the same field values always produce the
// same key; the key is rebuilt from the fields on each call.
func (i Item) Key() string {
	if i.Kind == KindPart {
		return fmt.Sprintf("%s:%s:%s:%d", i.Kind, i.PartID, i.Condition, i.ColorID)
	}
	return fmt.Sprintf("%s:%s:%s", i.Kind, i.PartID, i.Condition)
}

// String implements fmt.Stringer using the stable key form.
func (i Item) String() string {
	return i.Key()
}

// ParseKey parses the textual form produced by Key back into an Item, for
// callers (the CLI, the cached-offers handler) that take an item key as
// input rather than constructing an Item directly.
func ParseKey(key string) (Item, error) {
	parts := strings.Split(key, ":")
	if len(parts) < 3 {
		return Item{}, fmt.Errorf("catalog: malformed item key %q", key)
	}

	kind := Kind(parts[0])
	switch kind {
	case KindPart:
		if len(parts) != 4 {
			return Item{}, fmt.Errorf("catalog: malformed part item key %q", key)
		}
		colorID, err := strconv.Atoi(parts[3])
		if err != nil {
			return Item{}, fmt.Errorf("catalog: malformed color id in key %q: %w", key, err)
		}
		return NewPart(parts[1], colorID, Condition(parts[2])), nil
	case KindInstruction, KindSet, KindBox:
		if len(parts) != 3 {
			return Item{}, fmt.Errorf("catalog: malformed item key %q", key)
		}
		return New(kind, parts[1], Condition(parts[2])), nil
	default:
		return Item{}, fmt.Errorf("catalog: unknown item kind %q in key %q", parts[0], key)
	}
}

// Less gives a total order over Item, used wherever a deterministic walk
// order over items is required (e.g. the critical-set construction's
// tie-breaking by input order falls back to this for any secondary sort).
func (i Item) Less(other Item) bool {
	if i.Kind != other.Kind {
		return i.Kind < other.Kind
	}
	if i.PartID != other.PartID {
		return i.PartID < other.PartID
	}
	if i.Condition != other.Condition {
		return i.Condition < other.Condition
	}
	return i.ColorID < other.ColorID
}
