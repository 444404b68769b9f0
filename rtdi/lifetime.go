package rtdi

// Lifetime is the enumeration of the two supported instance lifetimes.
//
// original_source/include/librtdi/lifetime.hpp also distinguishes a third
// "scoped" lifetime tied to a per-request scope object. This engine drops
// scopes entirely: Lifetime has exactly two values, and every slot, cache,
// and validation pass is defined only in terms of them.
type Lifetime int

const (
	// Singleton instances are constructed at most once and cached for the
	// life of the Resolver.
	Singleton Lifetime = iota
	// Transient instances are constructed fresh on every resolution.
	Transient
)

func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	default:
		return "unknown"
	}
}
