package rtdi

import "reflect"

// TypeID is an opaque, totally-ordered, hashable handle identifying a
// registered interface or dependency type.
//
// original_source/include/librtdi/type_id.hpp builds this atop the host's
// own RTTI facility; reflect.Type already satisfies everything TypeID
// requires — it is comparable, usable as a map key, and Go never returns
// two distinct reflect.Type values for the same type — so TypeID is a
// thin named wrapper rather than a hand-rolled identity scheme.
type TypeID struct {
	rt reflect.Type
}

// TypeOf returns the TypeID for T. T is typically an interface type; for
// interfaces the zero-valued *T trick is required because reflect.TypeOf
// on a nil interface value returns nil.
func TypeOf[T any]() TypeID {
	return TypeID{rt: reflect.TypeOf((*T)(nil)).Elem()}
}

// Name renders a TypeID for diagnostics. This is the engine's equivalent
// of the host's demangler — a pure function TypeID -> string.
func (t TypeID) Name() string {
	if t.rt == nil {
		return "<invalid>"
	}
	return t.rt.String()
}

// Less gives TypeID a total order (by rendered name). Nothing in this
// package sorts by it; it is provided for callers that need an order.
func (t TypeID) Less(other TypeID) bool {
	return t.Name() < other.Name()
}

func (t TypeID) String() string { return t.Name() }

// IsValid reports whether the TypeID was produced from a concrete type
// expression (TypeOf) rather than being the zero value.
func (t TypeID) IsValid() bool { return t.rt != nil }
