package activitylog

import (
	"fmt"
	"reflect"
	"strings"
)

// Payload is the loggable result of one mutation.
type Payload struct {
	Attributes *Snapshot `json:"attributes,omitempty"`
	Old        *Snapshot `json:"old,omitempty"`
}

// IsEmpty reports whether there is nothing to log.
func (p Payload) IsEmpty() bool {
	return p.Attributes.Len() == 0
}

// Staged holds the pre-mutation snapshot between the before and after steps
// of one mutation. It is read once.
type Staged struct {
	Event Event
	old   *Snapshot
}

// NewStaged wraps a pre-mutation snapshot.
func NewStaged(event Event, old *Snapshot) *Staged {
	return &Staged{Event: event, old: old}
}

// Old returns the staged snapshot, nil once it has been consumed.
func (s *Staged) Old() *Snapshot {
	if s == nil {
		return nil
	}
	return s.old
}

func (s *Staged) take() *Snapshot {
	if s == nil {
		return nil
	}
	old := s.old
	s.old = nil
	return old
}

// Reduce combines the fresh snapshot with the staged one. withOld fills Old
// from staged, defaulting every current key to nil, and consumes staged.
// onlyDirty then keeps only the attributes whose value changed.
func Reduce(attrs *Snapshot, staged *Staged, onlyDirty, withOld bool) Payload {
	p := Payload{Attributes: attrs}
	if withOld {
		old := NewSnapshot()
		for _, k := range attrs.Keys() {
			old.Set(k, nil)
		}
		if prev := staged.take(); prev != nil {
			for _, k := range prev.keys {
				old.Set(k, prev.values[k])
			}
		}
		p.Old = old
	}
	if onlyDirty && p.Old != nil {
		p = p.dirty()
	}
	return p
}

func (p Payload) dirty() Payload {
	kept := NewSnapshot()
	for _, k := range p.Attributes.Keys() {
		v := p.Attributes.values[k]
		old := p.Old.Value(k)
		if isSequence(v) {
			// Only relation projections compare as sets.
			if strings.Contains(k, ".") && sameElements(v, old) {
				continue
			}
		} else if reflect.DeepEqual(old, v) {
			continue
		}
		kept.Set(k, v)
	}
	return Payload{Attributes: kept, Old: p.Old.only(kept.keys)}
}

// isSequence reports slices, arrays and maps. Byte slices count as scalars.
func isSequence(v any) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Uint8
	case reflect.Array, reflect.Map:
		return true
	default:
		return false
	}
}

// sameElements reports whether a and b hold the same set of elements,
// ignoring order and multiplicity. Elements compare by their fmt rendering.
func sameElements(a, b any) bool {
	as, bs := elementSet(a), elementSet(b)
	if len(as) != len(bs) {
		return false
	}
	for k := range as {
		if _, ok := bs[k]; !ok {
			return false
		}
	}
	return true
}

func elementSet(v any) map[string]struct{} {
	set := map[string]struct{}{}
	if v == nil {
		return set
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			set[fmt.Sprint(rv.Index(i).Interface())] = struct{}{}
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			set[fmt.Sprint(iter.Value().Interface())] = struct{}{}
		}
	default:
		set[fmt.Sprint(v)] = struct{}{}
	}
	return set
}
