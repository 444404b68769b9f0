package rtdi

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// sourceLocation is the Go analogue of std::source_location: a file/line
// pair captured at the call site that raised or registered something.
type sourceLocation struct {
	file string
	line int
}

func (l sourceLocation) String() string {
	if l.file == "" {
		return "<unknown>"
	}
	return l.file + ":" + strconv.Itoa(l.line)
}

// captureLocation walks up skip frames from its own caller. skip=0 means
// "my immediate caller".
func captureLocation(skip int) sourceLocation {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return sourceLocation{}
	}
	return sourceLocation{file: file, line: line}
}

// captureTrace renders a short registration-time call stack, the Go
// stand-in for the optional boost::stacktrace capture in
// original_source/src/stacktrace_capture.cpp. runtime.Callers is cheap
// enough to capture unconditionally rather than gating it behind a build
// tag.
func captureTrace(skip int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		frame, more := frames.Next()
		if strings.HasPrefix(frame.Function, "runtime.") {
			if !more {
				break
			}
			continue
		}
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}

// ContainerError is the common base of every error kind this package
// raises. It carries the source location of the call that raised it, an
// optional diagnostic detail (typically a registration trace), and a
// resolution-context chain that accrues tags as the error unwinds through
// nested factory calls.
type ContainerError struct {
	Message  string
	Location sourceLocation

	diagnosticDetail  string
	resolutionContext string
}

func (e *ContainerError) Error() string {
	msg := e.Message
	if e.resolutionContext != "" {
		msg += " (while resolving " + e.resolutionContext + ")"
	}
	return msg
}

// FullDiagnostic returns Error() plus the diagnostic detail on a new line,
// when detail is set.
func (e *ContainerError) FullDiagnostic() string {
	if e.diagnosticDetail == "" {
		return e.Error()
	}
	return e.Error() + "\n" + e.diagnosticDetail
}

// DiagnosticDetail returns the extended diagnostic text, if any.
func (e *ContainerError) DiagnosticDetail() string { return e.diagnosticDetail }

// SetDiagnosticDetail attaches extended diagnostic text (e.g. a
// registration trace) to the error, if none is set yet.
func (e *ContainerError) SetDiagnosticDetail(detail string) {
	if e.diagnosticDetail == "" {
		e.diagnosticDetail = detail
	}
}

// AppendResolutionContext appends a tag to the resolution-context chain,
// separated by " -> ", so the outermost visible error reads e.g.
// "Component not found: X (while resolving B [impl: B] -> A [impl: A])".
func (e *ContainerError) AppendResolutionContext(tag string) {
	if e.resolutionContext == "" {
		e.resolutionContext = tag
		return
	}
	e.resolutionContext += " -> " + tag
}

// NotFoundError indicates a requested type was never registered in the
// slot the caller asked for.
type NotFoundError struct {
	ContainerError
	ComponentType TypeID
	Key           string
	// Hint lists the slots that do exist for ComponentType+Key and the
	// accessor that matches each one, when any do.
	Hint string
}

func newNotFound(t TypeID, key, hint string, loc sourceLocation) *NotFoundError {
	msg := "Component not found: " + t.Name()
	if key != "" {
		msg += " (key=" + strconv.Quote(key) + ")"
	}
	if hint != "" {
		msg += "; " + hint
	}
	return &NotFoundError{
		ContainerError: ContainerError{Message: msg, Location: loc},
		ComponentType:  t,
		Key:            key,
		Hint:           hint,
	}
}

// DuplicateRegistrationError indicates a single-instance slot was
// registered more than once.
type DuplicateRegistrationError struct {
	ContainerError
	ComponentType TypeID
	Key           string
}

func newDuplicateRegistration(t TypeID, key string, loc sourceLocation) *DuplicateRegistrationError {
	msg := "Duplicate registration: " + t.Name()
	if key != "" {
		msg += " (key=" + strconv.Quote(key) + ")"
	}
	return &DuplicateRegistrationError{
		ContainerError: ContainerError{Message: msg, Location: loc},
		ComponentType:  t,
		Key:            key,
	}
}

// CyclicDependencyError carries the full cycle path [T1, T2, ..., T1],
// where the repeated type marks the back-edge.
type CyclicDependencyError struct {
	ContainerError
	Cycle []TypeID
}

func newCyclicDependency(cycle []TypeID, loc sourceLocation) *CyclicDependencyError {
	names := make([]string, len(cycle))
	for i, t := range cycle {
		names[i] = t.Name()
	}
	msg := "Cyclic dependency detected: " + strings.Join(names, " -> ")
	return &CyclicDependencyError{
		ContainerError: ContainerError{Message: msg, Location: loc},
		Cycle:          cycle,
	}
}

// LifetimeMismatchError indicates a singleton declared a non-collection
// transient dependency — a captive dependency that would pin exactly one
// transient instance in the singleton's lifetime forever.
type LifetimeMismatchError struct {
	ContainerError
	Consumer         TypeID
	ConsumerLifetime Lifetime
	Dependency       TypeID
	DependencyLife   Lifetime
	ConsumerImpl     *TypeID
}

func newLifetimeMismatch(consumer TypeID, consumerLt Lifetime, dep TypeID, depLt Lifetime, consumerImpl *TypeID, loc sourceLocation) *LifetimeMismatchError {
	msg := fmt.Sprintf("Lifetime mismatch: %s (%s) depends on %s (%s)",
		consumer.Name(), consumerLt, dep.Name(), depLt)
	if consumerImpl != nil {
		msg += " [impl: " + consumerImpl.Name() + "]"
	}
	return &LifetimeMismatchError{
		ContainerError:   ContainerError{Message: msg, Location: loc},
		Consumer:         consumer,
		ConsumerLifetime: consumerLt,
		Dependency:       dep,
		DependencyLife:   depLt,
		ConsumerImpl:     consumerImpl,
	}
}

// ResolutionError wraps a non-container error raised from inside a
// factory. The wrapper preserves the original message in its own text and
// keeps the original error reachable via errors.Unwrap.
type ResolutionError struct {
	ContainerError
	ComponentType       TypeID
	RegistrationLoc     sourceLocation
	Inner               error
}

func newResolutionError(t TypeID, inner error, registrationLoc, loc sourceLocation) *ResolutionError {
	msg := "Error resolving " + t.Name() + ": " + inner.Error()
	return &ResolutionError{
		ContainerError:  ContainerError{Message: msg, Location: loc},
		ComponentType:   t,
		RegistrationLoc: registrationLoc,
		Inner:           inner,
	}
}

func (e *ResolutionError) Unwrap() error { return e.Inner }

// GenericError covers misuse that is not expected in correct code paths:
// registering after Build, calling Build twice, registering a nil
// factory.
type GenericError struct {
	ContainerError
}

func newGenericError(msg string, loc sourceLocation) *GenericError {
	return &GenericError{ContainerError: ContainerError{Message: msg, Location: loc}}
}

// asContainerError reports whether err is (or wraps) one of this
// package's container-kind errors, returning the common base so the
// resolver can annotate it in place.
func asContainerError(err error) (*ContainerError, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return &nf.ContainerError, true
	}
	var dr *DuplicateRegistrationError
	if errors.As(err, &dr) {
		return &dr.ContainerError, true
	}
	var cd *CyclicDependencyError
	if errors.As(err, &cd) {
		return &cd.ContainerError, true
	}
	var lm *LifetimeMismatchError
	if errors.As(err, &lm) {
		return &lm.ContainerError, true
	}
	var re *ResolutionError
	if errors.As(err, &re) {
		return &re.ContainerError, true
	}
	var ge *GenericError
	if errors.As(err, &ge) {
		return &ge.ContainerError, true
	}
	return nil, false
}
