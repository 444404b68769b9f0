// Package rtdi is a runtime dependency-injection container.
//
// Client code registers component factories against interface keys on a
// Registry during a one-shot configuration phase, then calls Build to
// obtain a Resolver that produces fully-wired instances.
//
// The engine decides which factory to invoke for a request, when instances
// are created, cached, or recreated, how independent registrations compose
// into collections and decorator chains, and which configurations are
// rejected before any user factory runs.
//
// A minimal singleton-with-a-dependency example:
//
//	reg := rtdi.NewRegistry()
//	rtdi.AddSingleton[Logger, *ConsoleLogger](reg, newConsoleLogger)
//	rtdi.AddSingleton[Greeter, *GreeterImpl](reg, newGreeter, rtdi.WithDeps(rtdi.Dep[Logger]()))
//	r, err := reg.Build(rtdi.DefaultBuildOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//	g, err := rtdi.Get[Greeter](r)
package rtdi
