package rtdi

// DependencyInfo describes one declared input of a factory. Its two
// booleans combine into the four canonical dependency shapes:
//
//	IsCollection  IsTransient   shape
//	false         false         bare / singleton-of T
//	false         true          transient-of T
//	true          false         collection of singleton T
//	true          true          collection of transient T
//
// DependencyInfo is used only by validation (missing-dependency, captive
// lifetime, cycle detection) — a factory's actual resolution calls are
// made directly against the Resolver it receives, not driven by this
// struct. Declaring a dependency here that the factory does not actually
// resolve (or vice versa) will not be caught; the contract is advisory
// metadata the validator trusts. original_source/src/registry.cpp derives
// its own dependency list the same way: alongside the factory closure,
// never generated from it.
type DependencyInfo struct {
	Type         TypeID
	IsCollection bool
	IsTransient  bool
}

// Dep declares a bare singleton-of-T dependency.
func Dep[T any]() DependencyInfo {
	return DependencyInfo{Type: TypeOf[T]()}
}

// TransientDep declares a transient-of-T dependency.
func TransientDep[T any]() DependencyInfo {
	return DependencyInfo{Type: TypeOf[T](), IsTransient: true}
}

// CollectionDep declares a collection-of-singleton-T dependency.
func CollectionDep[T any]() DependencyInfo {
	return DependencyInfo{Type: TypeOf[T](), IsCollection: true}
}

// TransientCollectionDep declares a collection-of-transient-T dependency.
func TransientCollectionDep[T any]() DependencyInfo {
	return DependencyInfo{Type: TypeOf[T](), IsCollection: true, IsTransient: true}
}

// Deps is a small readability helper for listing DependencyInfo values at
// a registration call site.
func Deps(infos ...DependencyInfo) []DependencyInfo { return infos }

// NoDeps declares a factory with no dependencies.
func NoDeps() []DependencyInfo { return nil }
