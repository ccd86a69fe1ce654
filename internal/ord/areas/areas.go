// Package areas implements the permanent and temporary per-inscription
// dynamic-field bags (spec §4.7): type-name-keyed containers holding at
// most one value per type. The permanent area survives transfers and
// must be explicitly destroyed-empty; the temporary area is wiped on
// every transfer and can be dropped wholesale regardless of contents.
//
// The "private-generics" discipline — only the module defining T may
// construct/destruct T values held in an area — has no compile-time
// equivalent in Go without a code-generation step; callers are expected
// to respect type ownership the way unexported struct fields are
// respected elsewhere, not a runtime-enforced capability.
package areas

import "reflect"

// Area is a type-name-keyed bag holding at most one value per type.
// The same operation set backs both the permanent and temporary roles;
// only the terminal operation (DestroyEmpty vs Drop) differs by
// convention of which the caller invokes.
type Area struct {
	fields map[string]any
}

// New returns an empty area.
func New() *Area {
	return &Area{fields: make(map[string]any)}
}

func typeKey[T any]() string {
	var zero T
	return reflect.TypeOf(&zero).Elem().String()
}

// Add inserts v, keyed by its type. A second Add of the same type
// overwrites the prior value, matching a bag's "at most one per type"
// invariant. Values are boxed behind a pointer internally so BorrowMut
// can hand out a stable address.
func Add[T any](a *Area, v T) {
	boxed := v
	a.fields[typeKey[T]()] = &boxed
}

// Contains reports whether the area holds a value of type T.
func Contains[T any](a *Area) bool {
	_, ok := a.fields[typeKey[T]()]
	return ok
}

// Borrow returns a copy of the area's T value, if present.
func Borrow[T any](a *Area) (T, bool) {
	v, ok := a.fields[typeKey[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return *v.(*T), true
}

// BorrowMut returns a pointer into the area's stored T value so the
// caller can mutate it in place.
func BorrowMut[T any](a *Area) (*T, bool) {
	v, ok := a.fields[typeKey[T]()]
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// Remove deletes and returns the area's T value, if present.
func Remove[T any](a *Area) (T, bool) {
	key := typeKey[T]()
	v, ok := a.fields[key]
	if !ok {
		var zero T
		return zero, false
	}
	delete(a.fields, key)
	return *v.(*T), true
}

// Len reports how many typed values the area currently holds.
func (a *Area) Len() int {
	return len(a.fields)
}

// DestroyEmpty destroys the area, permanent-area style: it refuses to
// discard a non-empty bag, returning false so the caller can surface
// that as an error rather than silently losing state.
func (a *Area) DestroyEmpty() bool {
	if len(a.fields) != 0 {
		return false
	}
	a.fields = nil
	return true
}

// Drop empties the area unconditionally, temporary-area style: every
// transfer wipes this bag regardless of what it holds.
func (a *Area) Drop() {
	a.fields = make(map[string]any)
}
