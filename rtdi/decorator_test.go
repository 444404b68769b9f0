package rtdi_test

import (
	"testing"

	"github.com/go-rtdi/rtdi/rtdi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Handler interface {
	Handle() string
}

type BaseHandler struct{}

func (BaseHandler) Handle() string { return "base" }

type LoggingHandler struct {
	inner Handler
}

func (h *LoggingHandler) Handle() string { return "log(" + h.inner.Handle() + ")" }

type MetricsHandler struct {
	inner Handler
}

func (h *MetricsHandler) Handle() string { return "metrics(" + h.inner.Handle() + ")" }

func TestDecorate_SingleDecorator_Wraps(t *testing.T) {
	t.Parallel()

	r := rtdi.NewRegistry()
	require.NoError(t, rtdi.AddSingleton[Handler, BaseHandler](r, func(*rtdi.Resolver) (BaseHandler, error) {
		return BaseHandler{}, nil
	}))
	require.NoError(t, rtdi.Decorate[Handler, *LoggingHandler](r, func(_ *rtdi.Resolver, h rtdi.DecoratedHandle[Handler]) (*LoggingHandler, error) {
		return &LoggingHandler{inner: h.Inner()}, nil
	}))

	res, err := r.Build(rtdi.DefaultBuildOptions())
	require.NoError(t, err)

	handler, err := rtdi.Get[Handler](res)
	require.NoError(t, err)
	assert.Equal(t, "log(base)", handler.Handle())
}

func TestDecorate_TwoDecorators_NestInRegistrationOrder(t *testing.T) {
	t.Parallel()

	r := rtdi.NewRegistry()
	require.NoError(t, rtdi.AddSingleton[Handler, BaseHandler](r, func(*rtdi.Resolver) (BaseHandler, error) {
		return BaseHandler{}, nil
	}))
	require.NoError(t, rtdi.Decorate[Handler, *LoggingHandler](r, func(_ *rtdi.Resolver, h rtdi.DecoratedHandle[Handler]) (*LoggingHandler, error) {
		return &LoggingHandler{inner: h.Inner()}, nil
	}))
	require.NoError(t, rtdi.Decorate[Handler, *MetricsHandler](r, func(_ *rtdi.Resolver, h rtdi.DecoratedHandle[Handler]) (*MetricsHandler, error) {
		return &MetricsHandler{inner: h.Inner()}, nil
	}))

	res, err := r.Build(rtdi.DefaultBuildOptions())
	require.NoError(t, err)

	handler, err := rtdi.Get[Handler](res)
	require.NoError(t, err)
	assert.Equal(t, "metrics(log(base))", handler.Handle())
}

type NamedHandler struct {
	name string
}

func (NamedHandler) Handle() string { return "named" }

func TestDecorate_WithTargetImpl_OnlyAffectsMatchingImpl(t *testing.T) {
	t.Parallel()

	r := rtdi.NewRegistry()
	require.NoError(t, rtdi.AddSingleton[Handler, BaseHandler](r, func(*rtdi.Resolver) (BaseHandler, error) {
		return BaseHandler{}, nil
	}, rtdi.WithKey("base")))
	require.NoError(t, rtdi.AddSingleton[Handler, NamedHandler](r, func(*rtdi.Resolver) (NamedHandler, error) {
		return NamedHandler{name: "x"}, nil
	}, rtdi.WithKey("named")))
	require.NoError(t, rtdi.Decorate[Handler, *LoggingHandler](r, func(_ *rtdi.Resolver, h rtdi.DecoratedHandle[Handler]) (*LoggingHandler, error) {
		return &LoggingHandler{inner: h.Inner()}, nil
	}, rtdi.WithTargetImpl[BaseHandler]()))

	res, err := r.Build(rtdi.DefaultBuildOptions())
	require.NoError(t, err)

	base, err := rtdi.GetKeyed[Handler](res, "base")
	require.NoError(t, err)
	assert.Equal(t, "log(base)", base.Handle())

	named, err := rtdi.GetKeyed[Handler](res, "named")
	require.NoError(t, err)
	assert.Equal(t, "named", named.Handle())
}

func TestDecorate_ClosingDecoratedSingleton_ClosesOnce(t *testing.T) {
	t.Parallel()

	var base *closingHandler
	r := rtdi.NewRegistry()
	require.NoError(t, rtdi.AddSingleton[Handler, *closingHandler](r, func(*rtdi.Resolver) (*closingHandler, error) {
		base = &closingHandler{}
		return base, nil
	}))
	require.NoError(t, rtdi.Decorate[Handler, *LoggingHandler](r, func(_ *rtdi.Resolver, h rtdi.DecoratedHandle[Handler]) (*LoggingHandler, error) {
		return &LoggingHandler{inner: h.Inner()}, nil
	}))

	res, err := r.Build(rtdi.DefaultBuildOptions())
	require.NoError(t, err)

	_, err = rtdi.Get[Handler](res)
	require.NoError(t, err)

	require.NoError(t, res.Close())
	assert.Equal(t, 1, base.closeCalls)
}

type closingHandler struct {
	BaseHandler
	closeCalls int
}

func (c *closingHandler) Close() error {
	c.closeCalls++
	return nil
}
