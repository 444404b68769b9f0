package rtdi

// ErasedPtr is a type-erased, one-owner handle over a constructed
// instance, modeled on the source library's erased_ptr: a value plus an
// optional close function. A nil close function denotes a non-owning
// handle — used by forward-aliased singletons, whose underlying instance
// is owned by the resolver's singleton cache entry for the forward
// target, not by the alias descriptor itself.
//
// Go's garbage collector frees the backing memory regardless of this
// type's bookkeeping; what ErasedPtr actually guards is *observable*
// ownership (decorators must know whether they may treat the inner
// instance as theirs) and optional deterministic cleanup (closing a
// resource the instance holds, e.g. a DB handle) exactly once.
type ErasedPtr struct {
	value any
	close func() error
}

// NewOwningErasedPtr wraps value as an owning handle. close may be nil if
// the instance needs no deterministic cleanup; such a handle reports
// Owned() == false, since ownership is tracked only through close.
func NewOwningErasedPtr(value any, close func() error) ErasedPtr {
	return ErasedPtr{value: value, close: close}
}

// NewNonOwningErasedPtr wraps value as a non-owning window onto an
// instance some other handle owns.
func NewNonOwningErasedPtr(value any) ErasedPtr {
	return ErasedPtr{value: value}
}

// Value returns the wrapped instance.
func (e ErasedPtr) Value() any { return e.value }

// Owned reports whether this handle is responsible for closing value.
// Ownership here means "this handle owns the close function", which is a
// distinct bit from Go's memory ownership: even a non-owning handle keeps
// value reachable for as long as the handle itself is reachable.
func (e ErasedPtr) Owned() bool { return e.close != nil }

// Release detaches the close function from this handle and returns it
// alongside the value, leaving the handle non-owning. Used when a
// transient forward alias takes over destruction responsibility from the
// descriptor it was cast from.
func (e *ErasedPtr) Release() (any, func() error) {
	v, c := e.value, e.close
	e.close = nil
	return v, c
}

// Close runs the close function if this handle owns one. It is safe to
// call on a non-owning handle (a no-op) and safe to call twice (the
// second call is also a no-op, since the first clears the function).
func (e *ErasedPtr) Close() error {
	if e.close == nil {
		return nil
	}
	c := e.close
	e.close = nil
	return c()
}
