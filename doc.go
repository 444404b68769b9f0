// Package rtdi provides a runtime dependency-injection container: a
// one-shot Registry builds an immutable Resolver that resolves singletons,
// transients, and collections by interface, with forward aliases and
// decorator chains applied at build time.
//
// Typical usage registers implementations against a Registry, builds a
// Resolver once, and resolves from it for the remainder of the process:
//
//	r := rtdi.NewRegistry()
//	rtdi.AddSingleton[Logger, *ConsoleLogger](r, newConsoleLogger)
//	rtdi.AddSingleton[Greeter, *greeterImpl](r, newGreeter, rtdi.WithDeps(rtdi.Dep[Logger]()))
//
//	res, err := r.Build(rtdi.DefaultBuildOptions())
//	greeter, err := rtdi.Get[Greeter](res)
//
// The container is implemented in the rtdi subdirectory, imported as
// github.com/go-rtdi/rtdi/rtdi; this root package holds only this
// documentation.
package rtdi
