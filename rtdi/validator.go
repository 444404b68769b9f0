package rtdi

// validate is a pure function over the final descriptor vector: it never
// mutates descriptors and never touches a Resolver. It runs the three
// validation passes in order, aborting at the first failure so Build
// never returns a half-built Resolver (P10).
func validate(descriptors []Descriptor, options BuildOptions) error {
	slotIdx := buildSlotIndex(descriptors)

	if err := checkMissingDependencies(descriptors, slotIdx, options); err != nil {
		return err
	}
	if options.ValidateLifetimes {
		if err := checkLifetimeRules(descriptors); err != nil {
			return err
		}
	}
	if options.DetectCycles {
		if err := checkCycles(descriptors); err != nil {
			return err
		}
	}
	return nil
}

func buildSlotIndex(descriptors []Descriptor) map[slotKey][]int {
	idx := make(map[slotKey][]int)
	for i := range descriptors {
		sk := descriptors[i].slot()
		idx[sk] = append(idx[sk], i)
	}
	return idx
}

// checkMissingDependencies requires, for every declared dependency on
// every descriptor, that a matching unkeyed slot exist. Keyed
// registrations are never consulted here — the deps mechanism only
// resolves unkeyed names.
func checkMissingDependencies(descriptors []Descriptor, slotIdx map[slotKey][]int, options BuildOptions) error {
	for i := range descriptors {
		desc := &descriptors[i]
		for _, dep := range desc.Dependencies {
			neededLt := Singleton
			if dep.IsTransient {
				neededLt = Transient
			}
			sk := slotKey{Type: dep.Type, Key: "", Lifetime: neededLt, IsCollection: dep.IsCollection}
			indices, ok := slotIdx[sk]
			if ok && len(indices) > 0 {
				continue
			}
			if dep.IsCollection && options.AllowEmptyCollections {
				continue
			}
			loc := desc.RegistrationLocation
			err := newNotFound(dep.Type, "", "", loc)
			err.SetDiagnosticDetail(desc.registrationTrace)
			return err
		}
	}
	return nil
}

// checkLifetimeRules forbids a singleton from declaring a non-collection
// transient dependency — a captive dependency that would pin exactly one
// transient instance in the singleton's lifetime forever. Collections of
// transients are permitted: the singleton receives the collection once,
// but re-invoking the collection's factories on each resolution the
// singleton chooses to is a documented extensibility seam, not a
// per-call guarantee (pinned by TestValidator_CollectionOfTransients_IsNotCaptive).
func checkLifetimeRules(descriptors []Descriptor) error {
	for i := range descriptors {
		desc := &descriptors[i]
		if desc.Lifetime != Singleton {
			continue
		}
		for _, dep := range desc.Dependencies {
			if dep.IsTransient && !dep.IsCollection {
				return newLifetimeMismatch(desc.ComponentType, Singleton, dep.Type, Transient, desc.ImplType, desc.RegistrationLocation)
			}
		}
	}
	return nil
}

type visitState int

const (
	unvisited visitState = iota
	inProgress
	done
)

// checkCycles performs a depth-first traversal on a graph whose nodes are
// TypeID values — cycles are defined per-type, not per-slot-variant, so a
// type that appears as both a singleton and a transient dependency is a
// single DFS node. Its outgoing edges are the union of every descriptor
// sharing that ComponentType — including across different keys, lifetimes,
// and collection slots, all of which may legally coexist for one type — so
// a cycle reachable only through a less-obvious registration variant is
// never missed just because the type was first reached through another
// one.
func checkCycles(descriptors []Descriptor) error {
	byType := make(map[TypeID][]int)
	for i := range descriptors {
		t := descriptors[i].ComponentType
		byType[t] = append(byType[t], i)
	}

	states := make(map[TypeID]visitState)
	var path []TypeID

	var dfs func(node TypeID) error
	dfs = func(node TypeID) error {
		switch states[node] {
		case done:
			return nil
		case inProgress:
			start := 0
			for i, n := range path {
				if n == node {
					start = i
					break
				}
			}
			cycle := append(append([]TypeID{}, path[start:]...), node)
			return newCyclicDependency(cycle, sourceLocation{})
		}

		states[node] = inProgress
		path = append(path, node)

		for _, idx := range byType[node] {
			dep := &descriptors[idx]
			for _, d := range dep.Dependencies {
				if err := dfs(d.Type); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		states[node] = done
		return nil
	}

	for i := range descriptors {
		desc := &descriptors[i]
		if states[desc.ComponentType] == unvisited {
			if err := dfs(desc.ComponentType); err != nil {
				return err
			}
		}
	}
	return nil
}
