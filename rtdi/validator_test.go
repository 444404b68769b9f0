package rtdi_test

import (
	"errors"
	"testing"

	"github.com/go-rtdi/rtdi/rtdi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Logger interface {
	Log(string)
}

type ConsoleLogger struct{}

func (ConsoleLogger) Log(string) {}

type Cache interface {
	Get(string) string
}

type MemCache struct{}

func (MemCache) Get(string) string { return "" }

func TestValidator_MissingDependency_FailsBuild(t *testing.T) {
	t.Parallel()

	r := rtdi.NewRegistry()
	require.NoError(t, rtdi.AddSingleton[Repository, *UserRepository](r, newUserRepository, rtdi.WithDeps(rtdi.Dep[Database]())))

	_, err := r.Build(rtdi.DefaultBuildOptions())
	require.Error(t, err)

	var nf *rtdi.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, rtdi.TypeOf[Database](), nf.ComponentType)
}

func TestValidator_CaptiveTransientDependency_FailsBuild(t *testing.T) {
	t.Parallel()

	r := rtdi.NewRegistry()
	require.NoError(t, rtdi.AddTransient[Logger, ConsoleLogger](r, func(*rtdi.Resolver) (ConsoleLogger, error) {
		return ConsoleLogger{}, nil
	}))
	require.NoError(t, rtdi.AddSingleton[Cache, MemCache](r, func(res *rtdi.Resolver) (MemCache, error) {
		_, err := rtdi.Get[Logger](res)
		return MemCache{}, err
	}, rtdi.WithDeps(rtdi.TransientDep[Logger]())))

	_, err := r.Build(rtdi.DefaultBuildOptions())
	require.Error(t, err)

	var lm *rtdi.LifetimeMismatchError
	require.True(t, errors.As(err, &lm))
	assert.Equal(t, rtdi.Singleton, lm.ConsumerLifetime)
	assert.Equal(t, rtdi.Transient, lm.DependencyLife)
}

func TestValidator_CollectionOfTransients_IsNotCaptive(t *testing.T) {
	t.Parallel()

	r := rtdi.NewRegistry()
	require.NoError(t, rtdi.AddTransientToCollection[Logger, ConsoleLogger](r, func(*rtdi.Resolver) (ConsoleLogger, error) {
		return ConsoleLogger{}, nil
	}))
	require.NoError(t, rtdi.AddSingleton[Cache, MemCache](r, func(res *rtdi.Resolver) (MemCache, error) {
		_, err := rtdi.CreateAll[Logger](res)
		return MemCache{}, err
	}, rtdi.WithDeps(rtdi.TransientCollectionDep[Logger]())))

	_, err := r.Build(rtdi.DefaultBuildOptions())
	require.NoError(t, err)
}

type CycleA struct{}
type CycleB struct{}

func TestValidator_Cycle_FailsBuild(t *testing.T) {
	t.Parallel()

	r := rtdi.NewRegistry()
	require.NoError(t, rtdi.AddSingleton[*CycleA, *CycleA](r, func(res *rtdi.Resolver) (*CycleA, error) {
		_, err := rtdi.Get[*CycleB](res)
		return &CycleA{}, err
	}, rtdi.WithDeps(rtdi.Dep[*CycleB]())))
	require.NoError(t, rtdi.AddSingleton[*CycleB, *CycleB](r, func(res *rtdi.Resolver) (*CycleB, error) {
		_, err := rtdi.Get[*CycleA](res)
		return &CycleB{}, err
	}, rtdi.WithDeps(rtdi.Dep[*CycleA]())))

	_, err := r.Build(rtdi.DefaultBuildOptions())
	require.Error(t, err)

	var cd *rtdi.CyclicDependencyError
	require.True(t, errors.As(err, &cd))
	assert.GreaterOrEqual(t, len(cd.Cycle), 2)
}

func TestValidator_Cycle_AcrossDifferentLifetimeVariants_FailsBuild(t *testing.T) {
	t.Parallel()

	// CycleA is registered twice, once as a singleton with no deps and
	// once as a transient depending on CycleB. CycleB depends back on the
	// singleton variant of CycleA. Neither single slot-variant of CycleA
	// alone closes a loop, but the two variants describe the same type,
	// and CycleB's dependency on CycleA reaches back into the cycle
	// through the transient registration's edge to CycleB.
	r := rtdi.NewRegistry()
	require.NoError(t, rtdi.AddSingleton[*CycleA, *CycleA](r, func(*rtdi.Resolver) (*CycleA, error) {
		return &CycleA{}, nil
	}))
	require.NoError(t, rtdi.AddSingleton[*CycleB, *CycleB](r, func(res *rtdi.Resolver) (*CycleB, error) {
		_, err := rtdi.Get[*CycleA](res)
		return &CycleB{}, err
	}, rtdi.WithDeps(rtdi.Dep[*CycleA]())))
	require.NoError(t, rtdi.AddTransient[*CycleA, *CycleA](r, func(res *rtdi.Resolver) (*CycleA, error) {
		_, err := rtdi.Get[*CycleB](res)
		return &CycleA{}, err
	}, rtdi.WithDeps(rtdi.Dep[*CycleB]())))

	_, err := r.Build(rtdi.DefaultBuildOptions())
	require.Error(t, err)

	var cd *rtdi.CyclicDependencyError
	require.True(t, errors.As(err, &cd))
}

func TestValidator_EmptyCollection_AllowedWhenOptedIn(t *testing.T) {
	t.Parallel()

	r := rtdi.NewRegistry()
	require.NoError(t, rtdi.AddSingleton[Cache, MemCache](r, func(res *rtdi.Resolver) (MemCache, error) {
		_, err := rtdi.GetAll[Logger](res)
		return MemCache{}, err
	}, rtdi.WithDeps(rtdi.CollectionDep[Logger]())))

	res, err := r.Build(rtdi.BuildOptions{ValidateOnBuild: true, AllowEmptyCollections: true})
	require.NoError(t, err)

	_, err = rtdi.Get[Cache](res)
	require.NoError(t, err)
}

func TestValidator_EmptyCollection_RejectedWhenNotOptedIn(t *testing.T) {
	t.Parallel()

	r := rtdi.NewRegistry()
	require.NoError(t, rtdi.AddSingleton[Cache, MemCache](r, func(res *rtdi.Resolver) (MemCache, error) {
		_, err := rtdi.GetAll[Logger](res)
		return MemCache{}, err
	}, rtdi.WithDeps(rtdi.CollectionDep[Logger]())))

	_, err := r.Build(rtdi.BuildOptions{ValidateOnBuild: true, AllowEmptyCollections: false})
	require.Error(t, err)
}

func TestValidator_Disabled_SkipsAllChecks(t *testing.T) {
	t.Parallel()

	r := rtdi.NewRegistry()
	require.NoError(t, rtdi.AddSingleton[Repository, *UserRepository](r, newUserRepository, rtdi.WithDeps(rtdi.Dep[Database]())))

	res, err := r.Build(rtdi.BuildOptions{ValidateOnBuild: false})
	require.NoError(t, err)
	require.NotNil(t, res)
}
