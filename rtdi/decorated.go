package rtdi

// DecoratedHandle is the value passed to a decorator constructor. It
// exposes the inner interface value and whether the decorator may treat
// it as owned.
//
// A decorator must not transfer ownership out of a non-owning handle.
// Owned() is false when the inner instance is a forward-aliased singleton,
// which some other cache entry is responsible for closing. It is also false
// for any inner instance that has no close function (one that does not
// implement io.Closer), because ownership is tracked only through the close
// function.
type DecoratedHandle[T any] struct {
	inner T
	owner ErasedPtr
}

func newDecoratedHandle[T any](inner T, owner ErasedPtr) DecoratedHandle[T] {
	return DecoratedHandle[T]{inner: inner, owner: owner}
}

// Inner returns the wrapped value.
func (d DecoratedHandle[T]) Inner() T { return d.inner }

// Owned reports whether this handle owns its inner instance.
func (d DecoratedHandle[T]) Owned() bool { return d.owner.Owned() }

// erased exposes the underlying ErasedPtr so the registry's decorator
// wrapper can chain ownership into the decorator's own produced ErasedPtr
// without leaking the concept to user decorator constructors.
func (d DecoratedHandle[T]) erased() ErasedPtr { return d.owner }
