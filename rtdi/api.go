package rtdi

import (
	"io"

	"go.uber.org/multierr"
)

// closeFnFor returns v.Close if v implements io.Closer, else nil. This is
// the engine's stand-in for the source library's hand-written
// drop_fn/deleter: Go's GC already reclaims memory, so the only cleanup an
// ErasedPtr needs to run deterministically is releasing a resource the
// instance itself holds (a DB connection, a file handle), which io.Closer
// already names.
func closeFnFor(v any) func() error {
	if c, ok := v.(io.Closer); ok {
		return c.Close
	}
	return nil
}

// chainedClose returns a close function that closes decorated's own
// io.Closer (if it has one) and then the inner handle it wraps, so that
// decorating an owning singleton never loses the inner resource's cleanup
// just because the decorator type itself doesn't implement io.Closer.
func chainedClose(decorated any, inner ErasedPtr) func() error {
	outer := closeFnFor(decorated)
	return func() error {
		var err error
		if outer != nil {
			err = multierr.Append(err, outer())
		}
		err = multierr.Append(err, inner.Close())
		return err
	}
}

// AddSingleton registers TImpl as the singleton implementation of
// TInterface. ctor receives the Resolver so it can resolve its own
// dependencies; without the host's compile-time parameter-pack facility
// (original_source/include/librtdi/registry.hpp's variadic deps_tag<...>),
// the factory closure is written by hand instead of generated.
func AddSingleton[TInterface any, TImpl TInterface](r *Registry, ctor func(*Resolver) (TImpl, error), opts ...RegOption) error {
	if ctor == nil {
		return newGenericError("Component factory cannot be empty", captureLocation(0))
	}
	cfg := applyOptions(opts)
	implType := TypeOf[TImpl]()
	factory := func(res *Resolver) (ErasedPtr, error) {
		impl, err := ctor(res)
		if err != nil {
			return ErasedPtr{}, err
		}
		var asInterface TInterface = impl
		return NewOwningErasedPtr(asInterface, closeFnFor(impl)), nil
	}
	return r.addSingle(TypeOf[TInterface](), Singleton, factory, cfg.deps, cfg.key, &implType)
}

// AddTransient registers TImpl as a transient implementation of
// TInterface: a fresh instance is constructed on every resolution.
func AddTransient[TInterface any, TImpl TInterface](r *Registry, ctor func(*Resolver) (TImpl, error), opts ...RegOption) error {
	if ctor == nil {
		return newGenericError("Component factory cannot be empty", captureLocation(0))
	}
	cfg := applyOptions(opts)
	implType := TypeOf[TImpl]()
	factory := func(res *Resolver) (ErasedPtr, error) {
		impl, err := ctor(res)
		if err != nil {
			return ErasedPtr{}, err
		}
		var asInterface TInterface = impl
		return NewOwningErasedPtr(asInterface, closeFnFor(impl)), nil
	}
	return r.addSingle(TypeOf[TInterface](), Transient, factory, cfg.deps, cfg.key, &implType)
}

// AddSingletonToCollection registers TImpl into TInterface's singleton
// collection slot. Collection registrations never conflict (P1 only
// constrains single-instance slots).
func AddSingletonToCollection[TInterface any, TImpl TInterface](r *Registry, ctor func(*Resolver) (TImpl, error), opts ...RegOption) error {
	if ctor == nil {
		return newGenericError("Component factory cannot be empty", captureLocation(0))
	}
	cfg := applyOptions(opts)
	implType := TypeOf[TImpl]()
	factory := func(res *Resolver) (ErasedPtr, error) {
		impl, err := ctor(res)
		if err != nil {
			return ErasedPtr{}, err
		}
		var asInterface TInterface = impl
		return NewOwningErasedPtr(asInterface, closeFnFor(impl)), nil
	}
	return r.addCollection(TypeOf[TInterface](), Singleton, factory, cfg.deps, cfg.key, &implType)
}

// AddTransientToCollection registers TImpl into TInterface's transient
// collection slot: every CreateAll call invokes every entry's factory
// fresh.
func AddTransientToCollection[TInterface any, TImpl TInterface](r *Registry, ctor func(*Resolver) (TImpl, error), opts ...RegOption) error {
	if ctor == nil {
		return newGenericError("Component factory cannot be empty", captureLocation(0))
	}
	cfg := applyOptions(opts)
	implType := TypeOf[TImpl]()
	factory := func(res *Resolver) (ErasedPtr, error) {
		impl, err := ctor(res)
		if err != nil {
			return ErasedPtr{}, err
		}
		var asInterface TInterface = impl
		return NewOwningErasedPtr(asInterface, closeFnFor(impl)), nil
	}
	return r.addCollection(TypeOf[TInterface](), Transient, factory, cfg.deps, cfg.key, &implType)
}

// Forward registers an alias from TInterface to every non-keyed
// descriptor of TTarget, expanded at Build into one descriptor per
// matching target lifetime/collection shape. Resolving TInterface then
// yields the same underlying instance(s) as resolving TTarget (P7),
// whether TTarget satisfies TInterface through single or multiple
// interface membership.
func Forward[TInterface any, TTarget TInterface](r *Registry) error {
	cast := func(v any) (any, error) {
		impl, ok := v.(TTarget)
		if !ok {
			return nil, newGenericError("forward target does not implement "+TypeOf[TInterface]().Name(), sourceLocation{})
		}
		var asInterface TInterface = impl
		return asInterface, nil
	}
	return r.addForward(TypeOf[TInterface](), TypeOf[TTarget](), cast)
}

// Decorate wraps every registration of TInterface with TDecorator, in
// registered order (decorators registered D1 then D2 resolve as
// D2(D1(base)), P6). ctor receives the inner DecoratedHandle, which is
// non-owning when the inner registration is a forward-aliased singleton —
// ctor must not attempt to take ownership away from it.
func Decorate[TInterface any, TDecorator TInterface](r *Registry, ctor func(*Resolver, DecoratedHandle[TInterface]) (TDecorator, error), opts ...RegOption) error {
	if ctor == nil {
		return newGenericError("Decorator factory cannot be empty", captureLocation(0))
	}
	cfg := applyOptions(opts)
	wrapper := func(inner factoryFunc) factoryFunc {
		return func(res *Resolver) (ErasedPtr, error) {
			innerEP, err := inner(res)
			if err != nil {
				return ErasedPtr{}, err
			}
			innerValue, ok := innerEP.Value().(TInterface)
			if !ok {
				return ErasedPtr{}, newGenericError("decorator: inner value does not implement the decorated interface", sourceLocation{})
			}
			handle := newDecoratedHandle(innerValue, innerEP)
			decorated, err := ctor(res, handle)
			if err != nil {
				return ErasedPtr{}, err
			}
			var asInterface TInterface = decorated
			if !handle.Owned() {
				return NewNonOwningErasedPtr(asInterface), nil
			}
			return NewOwningErasedPtr(asInterface, chainedClose(decorated, handle.erased())), nil
		}
	}
	return r.addDecorator(TypeOf[TInterface](), cfg.targetImpl, wrapper, cfg.deps)
}

// Get resolves the unkeyed singleton registered for T.
func Get[T any](r *Resolver) (T, error) { return GetKeyed[T](r, "") }

// GetKeyed resolves the singleton registered for T under key.
func GetKeyed[T any](r *Resolver, key string) (T, error) {
	var zero T
	v, err := r.getSingleton(TypeOf[T](), key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, newGenericError("resolved value does not implement the requested type", sourceLocation{})
	}
	return typed, nil
}

// Create resolves the unkeyed transient registered for T, constructing a
// fresh instance.
func Create[T any](r *Resolver) (T, error) { return CreateKeyed[T](r, "") }

// CreateKeyed resolves the transient registered for T under key.
func CreateKeyed[T any](r *Resolver, key string) (T, error) {
	var zero T
	ep, err := r.createTransient(TypeOf[T](), key)
	if err != nil {
		return zero, err
	}
	typed, ok := ep.Value().(T)
	if !ok {
		return zero, newGenericError("resolved value does not implement the requested type", sourceLocation{})
	}
	return typed, nil
}

// GetAll resolves every instance in T's unkeyed singleton collection
// slot, in add_collection order.
func GetAll[T any](r *Resolver) ([]T, error) { return GetAllKeyed[T](r, "") }

// GetAllKeyed resolves every instance in T's keyed singleton collection
// slot.
func GetAllKeyed[T any](r *Resolver, key string) ([]T, error) {
	raw, err := r.getCollection(TypeOf[T](), key)
	if err != nil {
		return nil, err
	}
	return castSlice[T](raw)
}

// CreateAll resolves every entry in T's unkeyed transient collection slot
// fresh.
func CreateAll[T any](r *Resolver) ([]T, error) { return CreateAllKeyed[T](r, "") }

// CreateAllKeyed resolves every entry in T's keyed transient collection
// slot fresh.
func CreateAllKeyed[T any](r *Resolver, key string) ([]T, error) {
	raw, err := r.createCollection(TypeOf[T](), key)
	if err != nil {
		return nil, err
	}
	return castSlice[T](raw)
}

func castSlice[T any](raw []any) ([]T, error) {
	out := make([]T, 0, len(raw))
	for _, v := range raw {
		typed, ok := v.(T)
		if !ok {
			return nil, newGenericError("resolved collection element does not implement the requested type", sourceLocation{})
		}
		out = append(out, typed)
	}
	return out, nil
}

// TryGet resolves T like Get, but a missing registration reports
// found=false instead of a NotFoundError. Any other error (e.g. a factory
// failure) still propagates.
func TryGet[T any](r *Resolver) (T, bool, error) { return TryGetKeyed[T](r, "") }

// TryGetKeyed is the keyed form of TryGet.
func TryGetKeyed[T any](r *Resolver, key string) (T, bool, error) {
	var zero T
	if len(r.findSlot(TypeOf[T](), key, Singleton, false)) == 0 {
		return zero, false, nil
	}
	v, err := GetKeyed[T](r, key)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// TryCreate resolves T like Create, but a missing registration reports
// found=false instead of a NotFoundError.
func TryCreate[T any](r *Resolver) (T, bool, error) { return TryCreateKeyed[T](r, "") }

// TryCreateKeyed is the keyed form of TryCreate.
func TryCreateKeyed[T any](r *Resolver, key string) (T, bool, error) {
	var zero T
	if len(r.findSlot(TypeOf[T](), key, Transient, false)) == 0 {
		return zero, false, nil
	}
	v, err := CreateKeyed[T](r, key)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// TryGetAll is equivalent to GetAll: a collection slot never fails on a
// missing registration, only on a genuine factory error, so there is
// nothing additional for the Try variant to suppress.
func TryGetAll[T any](r *Resolver) ([]T, error) { return GetAll[T](r) }

// TryCreateAll is equivalent to CreateAll, for the same reason as
// TryGetAll.
func TryCreateAll[T any](r *Resolver) ([]T, error) { return CreateAll[T](r) }
