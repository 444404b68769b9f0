package rtdi

// factoryFunc constructs one instance of a descriptor's component type.
// It is the engine's `fn(&Resolver) -> Result<ErasedPtr, Error>`, the
// equivalent of original_source/include/librtdi/factory.hpp's throwing
// factory, expressed with Go's value-based error convention instead of
// unwinding.
type factoryFunc func(*Resolver) (ErasedPtr, error)

// forwardCastFunc adjusts a resolved target-type value into the
// forward's interface type. original_source/src/registry.cpp models this
// as a pointer adjustment under multiple/virtual inheritance; in Go,
// where an interface value already carries its own method table, the
// adjustment degenerates to a type assertion — but the descriptor still
// records it as an explicit step, and the target type the alias was
// built against.
type forwardCastFunc func(any) (any, error)

// Descriptor is the frozen record produced by one registration call.
type Descriptor struct {
	ComponentType TypeID
	Lifetime      Lifetime
	Factory       factoryFunc
	Dependencies  []DependencyInfo
	Key           string
	IsCollection  bool
	ImplType      *TypeID

	// ForwardTarget is set iff this descriptor was produced by forward
	// expansion at Build time. ForwardCast is set on every such descriptor
	// except the placeholder added for a forward with no matching target.
	ForwardTarget *TypeID
	ForwardCast   forwardCastFunc

	RegistrationLocation sourceLocation
	registrationTrace    string
}

// tag renders the short "name(component_type)[impl: name(impl_type)]"
// diagnostic label the resolver appends to a container error's
// resolution-context chain on the way out of a factory invocation.
func (d *Descriptor) tag() string {
	s := d.ComponentType.Name()
	if d.ImplType != nil {
		s += " [impl: " + d.ImplType.Name() + "]"
	}
	return s
}

type slotKey struct {
	Type         TypeID
	Key          string
	Lifetime     Lifetime
	IsCollection bool
}

func (d *Descriptor) slot() slotKey {
	return slotKey{Type: d.ComponentType, Key: d.Key, Lifetime: d.Lifetime, IsCollection: d.IsCollection}
}

// decoratorEntry is a deferred decorator registration, applied in
// registered order at Build time.
type decoratorEntry struct {
	InterfaceType TypeID
	TargetImpl    *TypeID
	Wrapper       func(factoryFunc) factoryFunc
	ExtraDeps     []DependencyInfo
}

// forwardEntry is a deferred forward-alias registration, expanded into
// concrete descriptors at Build time.
type forwardEntry struct {
	InterfaceType TypeID
	TargetType    TypeID
	Cast          forwardCastFunc
	Location      sourceLocation
}
