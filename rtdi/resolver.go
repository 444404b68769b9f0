package rtdi

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// singletonEntry guards the exactly-once construction of one singleton
// descriptor. Its mutex is deliberately per-descriptor rather than a
// single resolver-wide recursive mutex: because the validator rejects
// dependency cycles (P9), the lock-acquisition order a nested resolution
// induces is acyclic, so a factory resolving other singletons on the same
// goroutine can never deadlock against itself, and distinct singletons
// never contend with each other.
type singletonEntry struct {
	mu    sync.Mutex
	built bool
	value ErasedPtr
}

// Resolver is the runtime built by Registry.Build. It is immutable after
// construction (P11): the descriptor vector and slot index are never
// mutated again, so concurrent Get/Create calls on the same Resolver,
// from any goroutine, are safe.
type Resolver struct {
	descriptors []Descriptor
	slotIndex   map[slotKey][]int
	singletons  []singletonEntry
	logger      *zap.Logger
}

func newResolver(descriptors []Descriptor, logger *zap.Logger) *Resolver {
	r := &Resolver{
		descriptors: descriptors,
		slotIndex:   make(map[slotKey][]int, len(descriptors)),
		singletons:  make([]singletonEntry, len(descriptors)),
		logger:      logger,
	}
	for i := range descriptors {
		sk := descriptors[i].slot()
		r.slotIndex[sk] = append(r.slotIndex[sk], i)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

func (r *Resolver) findSlot(t TypeID, key string, lt Lifetime, isCollection bool) []int {
	return r.slotIndex[slotKey{Type: t, Key: key, Lifetime: lt, IsCollection: isCollection}]
}

// resolveSingletonByIndex resolves a specific descriptor by its internal
// index, caching the result. Exactly one factory invocation occurs per
// descriptor regardless of concurrent callers (P4); a failing factory
// leaves no cache entry, so the next call reinvokes it.
func (r *Resolver) resolveSingletonByIndex(idx int) (any, error) {
	entry := &r.singletons[idx]
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.built {
		return entry.value.Value(), nil
	}

	desc := &r.descriptors[idx]
	ep, err := r.invokeFactory(desc)
	if err != nil {
		return nil, err
	}
	entry.value = ep
	entry.built = true
	r.logger.Debug("rtdi: singleton constructed", zap.String("type", desc.ComponentType.Name()))
	return ep.Value(), nil
}

// resolveTransientByIndex invokes a transient descriptor's factory fresh,
// every call.
func (r *Resolver) resolveTransientByIndex(idx int) (ErasedPtr, error) {
	desc := &r.descriptors[idx]
	return r.invokeFactory(desc)
}

// invokeFactory runs desc.Factory and, on error, annotates it: a
// container-kind error gets the resolution-context tag appended and (if
// it carries no detail yet) the registration trace attached; a
// non-container error is wrapped once into a ResolutionError.
func (r *Resolver) invokeFactory(desc *Descriptor) (ErasedPtr, error) {
	ep, err := desc.Factory(r)
	if err == nil {
		return ep, nil
	}

	if ce, ok := asContainerError(err); ok {
		ce.AppendResolutionContext(desc.tag())
		if ce.diagnosticDetail == "" && desc.registrationTrace != "" {
			ce.SetDiagnosticDetail(desc.registrationTrace)
		}
		return ErasedPtr{}, err
	}

	wrapped := newResolutionError(desc.ComponentType, err, desc.RegistrationLocation, captureLocation(1))
	wrapped.SetDiagnosticDetail(desc.registrationTrace)
	return ErasedPtr{}, wrapped
}

// getSingleton implements the strict get<T> contract: zero entries is a
// not-found error with a slot hint, exactly one resolves it. Two or more
// is unreachable — the registry forbids that at registration time (P1).
func (r *Resolver) getSingleton(t TypeID, key string) (any, error) {
	id := uuid.New()
	r.logger.Debug("rtdi: resolve", zap.String("corr_id", id.String()), zap.String("type", t.Name()), zap.String("accessor", "get"))
	indices := r.findSlot(t, key, Singleton, false)
	if len(indices) == 0 {
		return nil, r.notFound(t, key, "get<T>()")
	}
	return r.resolveSingletonByIndex(indices[0])
}

// createTransient implements the strict create<T> contract.
func (r *Resolver) createTransient(t TypeID, key string) (ErasedPtr, error) {
	id := uuid.New()
	r.logger.Debug("rtdi: resolve", zap.String("corr_id", id.String()), zap.String("type", t.Name()), zap.String("accessor", "create"))
	indices := r.findSlot(t, key, Transient, false)
	if len(indices) == 0 {
		return ErasedPtr{}, r.notFound(t, key, "create<T>()")
	}
	return r.resolveTransientByIndex(indices[0])
}

// getCollection returns every instance registered in the singleton
// collection slot, in add_collection call order (P5). A missing or empty
// slot yields an empty, non-nil sequence, never an error.
func (r *Resolver) getCollection(t TypeID, key string) ([]any, error) {
	indices := r.findSlot(t, key, Singleton, true)
	result := make([]any, 0, len(indices))
	for _, idx := range indices {
		v, err := r.resolveSingletonByIndex(idx)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// createCollection resolves every transient collection entry fresh, in
// add_collection call order.
func (r *Resolver) createCollection(t TypeID, key string) ([]any, error) {
	indices := r.findSlot(t, key, Transient, true)
	result := make([]any, 0, len(indices))
	for _, idx := range indices {
		ep, err := r.resolveTransientByIndex(idx)
		if err != nil {
			return nil, err
		}
		result = append(result, ep.Value())
	}
	return result, nil
}

// notFound builds a NotFoundError enriched with a slot hint: if the type
// is registered under a different accessor than the one the caller used,
// the hint names it.
func (r *Resolver) notFound(t TypeID, key, attemptedAccessor string) *NotFoundError {
	loc := captureLocation(2)
	return newNotFound(t, key, r.slotHint(t, key, attemptedAccessor), loc)
}

func (r *Resolver) slotHint(t TypeID, key, attemptedAccessor string) string {
	type slotDesc struct {
		lt          Lifetime
		isColl      bool
		description string
		suggestion  string
	}
	slots := []slotDesc{
		{Singleton, false, "singleton", "get<T>()"},
		{Transient, false, "transient", "create<T>()"},
		{Singleton, true, "singleton collection", "get_all<T>()"},
		{Transient, true, "transient collection", "create_all<T>()"},
	}

	var hints string
	for _, s := range slots {
		if len(r.findSlot(t, key, s.lt, s.isColl)) > 0 {
			if hints != "" {
				hints += ", "
			}
			hints += s.description + " (use " + s.suggestion + ")"
		}
	}
	if hints == "" {
		return ""
	}
	return "type is registered as " + hints + " but was requested via " + attemptedAccessor
}

// resolveEagerSingletons resolves every singleton descriptor once, so
// that factory failures surface at Build instead of on first use.
func (r *Resolver) resolveEagerSingletons() error {
	for i := range r.descriptors {
		if r.descriptors[i].Lifetime != Singleton {
			continue
		}
		if _, err := r.resolveSingletonByIndex(i); err != nil {
			return err
		}
	}
	return nil
}

// Close releases every cached singleton, in unspecified order, via each
// instance's close function (if any). Cleanup failures from independent
// singletons must not hide each other, so they are aggregated with
// multierr rather than short-circuiting on the first one.
func (r *Resolver) Close() error {
	var errs error
	for i := range r.singletons {
		entry := &r.singletons[i]
		entry.mu.Lock()
		if entry.built {
			errs = multierr.Append(errs, entry.value.Close())
		}
		entry.mu.Unlock()
	}
	return errs
}
