package rtdi

import (
	"go.uber.org/zap"
)

// regConfig accumulates the optional knobs a registration call site may
// set via RegOption — the Go stand-in for the source library's string_view
// key overloads and deps_tag<...> template parameter: a functional-options
// surface instead of a combinatorial set of overloads.
type regConfig struct {
	key        string
	deps       []DependencyInfo
	targetImpl *TypeID
}

// RegOption configures an AddSingleton/AddTransient/Decorate call.
type RegOption func(*regConfig)

// WithKey registers under the given non-empty key instead of the
// unkeyed slot.
func WithKey(key string) RegOption {
	return func(c *regConfig) { c.key = key }
}

// WithDeps declares the dependencies validation should check for this
// registration (for Decorate, these are appended to the decorated
// descriptor's existing dependency list).
func WithDeps(deps ...DependencyInfo) RegOption {
	return func(c *regConfig) { c.deps = deps }
}

// WithTargetImpl narrows a Decorate call to only the registrations whose
// concrete implementation type is TImpl, rather than every registration
// of the decorated interface.
func WithTargetImpl[TImpl any]() RegOption {
	t := TypeOf[TImpl]()
	return func(c *regConfig) { c.targetImpl = &t }
}

func applyOptions(opts []RegOption) regConfig {
	var c regConfig
	for _, o := range opts {
		o(&c)
	}
	return c
}

// Registry is a one-shot builder: client code registers component
// factories, forwards, and decorators against it, then calls Build
// exactly once to obtain a Resolver. Registering anything after Build has
// been called fails with a GenericError.
type Registry struct {
	descriptors []Descriptor
	decorators  []decoratorEntry
	forwards    []forwardEntry
	built       bool
	logger      *zap.Logger
}

// RegistryOption configures a new Registry.
type RegistryOption func(*Registry)

// WithLogger attaches a structured logger the registry and the resolver
// it builds use for build-time and resolution diagnostics. The default is
// a no-op logger (zap.NewNop()) — logging never affects control flow.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry constructs an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{logger: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) checkNotBuilt(loc sourceLocation) error {
	if r.built {
		return newGenericError("Cannot register components after build() has been called", loc)
	}
	return nil
}

func (r *Registry) hasSingle(t TypeID, key string, lt Lifetime) bool {
	for i := range r.descriptors {
		d := &r.descriptors[i]
		if d.ComponentType == t && d.Key == key && d.Lifetime == lt && !d.IsCollection {
			return true
		}
	}
	return false
}

// addSingle registers a single-instance slot descriptor. It is the
// non-generic engine behind AddSingleton/AddTransient; see api.go for the
// ergonomic generic wrappers client code actually calls.
func (r *Registry) addSingle(t TypeID, lifetime Lifetime, factory factoryFunc, deps []DependencyInfo, key string, implType *TypeID) error {
	loc := captureLocation(2)
	if err := r.checkNotBuilt(loc); err != nil {
		return err
	}
	if factory == nil {
		return newGenericError("Component factory cannot be empty", loc)
	}
	if r.hasSingle(t, key, lifetime) {
		return newDuplicateRegistration(t, key, loc)
	}
	r.descriptors = append(r.descriptors, Descriptor{
		ComponentType:        t,
		Lifetime:             lifetime,
		Factory:              factory,
		Dependencies:         deps,
		Key:                  key,
		IsCollection:         false,
		ImplType:             implType,
		RegistrationLocation: loc,
		registrationTrace:    captureTrace(2),
	})
	return nil
}

// addCollection registers into a collection slot; never conflicts (P1).
func (r *Registry) addCollection(t TypeID, lifetime Lifetime, factory factoryFunc, deps []DependencyInfo, key string, implType *TypeID) error {
	loc := captureLocation(2)
	if err := r.checkNotBuilt(loc); err != nil {
		return err
	}
	if factory == nil {
		return newGenericError("Component factory cannot be empty", loc)
	}
	r.descriptors = append(r.descriptors, Descriptor{
		ComponentType:        t,
		Lifetime:             lifetime,
		Factory:              factory,
		Dependencies:         deps,
		Key:                  key,
		IsCollection:         true,
		ImplType:             implType,
		RegistrationLocation: loc,
		registrationTrace:    captureTrace(2),
	})
	return nil
}

// addForward defers an alias from target's descriptors to interfaceType,
// expanded at Build.
func (r *Registry) addForward(interfaceType, targetType TypeID, cast forwardCastFunc) error {
	loc := captureLocation(2)
	if err := r.checkNotBuilt(loc); err != nil {
		return err
	}
	r.forwards = append(r.forwards, forwardEntry{
		InterfaceType: interfaceType,
		TargetType:    targetType,
		Cast:          cast,
		Location:      loc,
	})
	return nil
}

// addDecorator defers a decorator, applied at Build in registered order.
func (r *Registry) addDecorator(interfaceType TypeID, targetImpl *TypeID, wrapper func(factoryFunc) factoryFunc, extraDeps []DependencyInfo) error {
	loc := captureLocation(2)
	if err := r.checkNotBuilt(loc); err != nil {
		return err
	}
	r.decorators = append(r.decorators, decoratorEntry{
		InterfaceType: interfaceType,
		TargetImpl:    targetImpl,
		Wrapper:       wrapper,
		ExtraDeps:     extraDeps,
	})
	return nil
}

// Build finalizes the registry: forward expansion, then decorator
// application, then validation, then (if requested) eager singleton
// construction, in that fixed, deterministic order. Build is one-shot; a
// second call fails with a GenericError and no descriptors become newly
// reachable.
func (r *Registry) Build(options BuildOptions) (*Resolver, error) {
	loc := captureLocation(1)
	if r.built {
		return nil, newGenericError("build() can only be called once", loc)
	}
	r.built = true

	expanded := r.expandForwards()
	r.descriptors = append(r.descriptors, expanded...)
	r.applyDecorators()

	if options.ValidateOnBuild {
		if err := validate(r.descriptors, options); err != nil {
			return nil, err
		}
	}

	r.logger.Debug("rtdi: registry built",
		zap.Int("descriptors", len(r.descriptors)),
		zap.Int("forwards_expanded", len(expanded)),
		zap.Int("decorators_applied", len(r.decorators)),
	)

	res := newResolver(r.descriptors, r.logger)

	if options.EagerSingletons {
		if err := res.resolveEagerSingletons(); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// expandForwards applies every deferred forward alias: for each forward
// entry, iterate all non-keyed descriptors whose component type matches
// the forward's target, and append one new descriptor per match under the
// forward's interface type. A forward with no match still gets a
// placeholder descriptor so the validator reports a proper
// missing-dependency error pointing at the forward's origin.
func (r *Registry) expandForwards() []Descriptor {
	var expanded []Descriptor
	for _, fwd := range r.forwards {
		foundAny := false
		for i := range r.descriptors {
			target := &r.descriptors[i]
			if target.ComponentType != fwd.TargetType || target.Key != "" {
				continue
			}
			foundAny = true
			targetIdx := i
			cast := fwd.Cast
			implType := target.ImplType
			forwardTarget := fwd.TargetType

			if target.Lifetime == Singleton {
				expanded = append(expanded, Descriptor{
					ComponentType: fwd.InterfaceType,
					Lifetime:      Singleton,
					Factory: func(res *Resolver) (ErasedPtr, error) {
						raw, err := res.resolveSingletonByIndex(targetIdx)
						if err != nil {
							return ErasedPtr{}, err
						}
						casted, err := cast(raw)
						if err != nil {
							return ErasedPtr{}, err
						}
						return NewNonOwningErasedPtr(casted), nil
					},
					Dependencies:         []DependencyInfo{{Type: forwardTarget, IsCollection: target.IsCollection}},
					IsCollection:         target.IsCollection,
					ImplType:             implType,
					ForwardTarget:        &forwardTarget,
					ForwardCast:          cast,
					RegistrationLocation: fwd.Location,
				})
			} else {
				expanded = append(expanded, Descriptor{
					ComponentType: fwd.InterfaceType,
					Lifetime:      Transient,
					Factory: func(res *Resolver) (ErasedPtr, error) {
						ep, err := res.resolveTransientByIndex(targetIdx)
						if err != nil {
							return ErasedPtr{}, err
						}
						value, closeFn := ep.Release()
						casted, err := cast(value)
						if err != nil {
							return ErasedPtr{}, err
						}
						return NewOwningErasedPtr(casted, closeFn), nil
					},
					Dependencies:         []DependencyInfo{{Type: forwardTarget, IsCollection: target.IsCollection, IsTransient: true}},
					IsCollection:         target.IsCollection,
					ImplType:             implType,
					ForwardTarget:        &forwardTarget,
					ForwardCast:          cast,
					RegistrationLocation: fwd.Location,
				})
			}
		}
		if !foundAny {
			forwardTarget := fwd.TargetType
			expanded = append(expanded, Descriptor{
				ComponentType: fwd.InterfaceType,
				Lifetime:      Transient,
				Factory: func(*Resolver) (ErasedPtr, error) {
					return ErasedPtr{}, nil
				},
				Dependencies:         []DependencyInfo{{Type: forwardTarget}},
				ForwardTarget:        &forwardTarget,
				RegistrationLocation: fwd.Location,
			})
		}
	}
	return expanded
}

// applyDecorators wraps each matching descriptor's factory in registered
// order, so decorators nest as D2(D1(base)) when D1 then D2 are
// registered (P6). A decorator applied to a forward-aliased singleton is
// permitted: the resolved descriptor here already carries the correct
// Lifetime/ImplType, and the decorator receives a DecoratedHandle whose
// Owned() reports the forward's non-owning status, so it can't
// accidentally free something it doesn't own.
func (r *Registry) applyDecorators() {
	for _, dec := range r.decorators {
		for i := range r.descriptors {
			desc := &r.descriptors[i]
			if desc.ComponentType != dec.InterfaceType {
				continue
			}
			if dec.TargetImpl != nil {
				if desc.ImplType == nil || *desc.ImplType != *dec.TargetImpl {
					continue
				}
			}
			desc.Factory = dec.Wrapper(desc.Factory)
			desc.Dependencies = append(desc.Dependencies, dec.ExtraDeps...)
		}
	}
}

// Descriptors returns the descriptors registered so far, for testing and
// diagnostics. Once Build has run, the slice also holds the forward-expanded
// descriptors and the decorator-wrapped factories, and it shares its backing
// array with the Resolver that Build returned.
func (r *Registry) Descriptors() []Descriptor {
	return r.descriptors
}
