package adapter

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Registration describes an introspection adapter. Drivers are matched
// case-insensitively against Name and Aliases.
type Registration struct {
	Name    string
	Aliases []string
	// Summary is a one-line description shown by fedsql version.
	Summary string
	New     func(*slog.Logger) Adapter
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Registration) // folded name or alias -> registration
)

// Register makes an adapter available by name. It is called from the init
// functions of adapter packages and panics when a name or alias is already
// taken or the registration has no constructor.
func Register(r Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if r.Name == "" || r.New == nil {
		panic("adapter: Register requires a name and a constructor")
	}
	names := append([]string{r.Name}, r.Aliases...)
	for _, name := range names {
		if _, dup := registry[strings.ToLower(name)]; dup {
			panic(fmt.Sprintf("adapter: Register called twice for %q", name))
		}
	}
	reg := &r
	for _, name := range names {
		registry[strings.ToLower(name)] = reg
	}
}

// Lookup returns the registration for a driver name or alias.
func Lookup(driver string) (Registration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[strings.ToLower(driver)]
	if !ok {
		return Registration{}, false
	}
	return *r, true
}

// Registered returns every registration once, sorted by name.
func Registered() []Registration {
	registryMu.RLock()
	defer registryMu.RUnlock()
	var out []Registration
	for key, r := range registry {
		if key == strings.ToLower(r.Name) {
			out = append(out, *r)
		}
	}
	slices.SortFunc(out, func(a, b Registration) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Drivers returns the registered adapter names, sorted.
func Drivers() []string {
	regs := Registered()
	names := make([]string, len(regs))
	for i, r := range regs {
		names[i] = r.Name
	}
	return names
}

// NewAdapter creates the adapter selected by cfg.Driver. A nil logger
// discards.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Driver == "" {
		return nil, fmt.Errorf("adapter driver not specified")
	}
	r, ok := Lookup(cfg.Driver)
	if !ok {
		return nil, &UnknownAdapterError{Driver: cfg.Driver, Available: Drivers()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return r.New(logger.With(slog.String("adapter", r.Name))), nil
}

// UnknownAdapterError is returned when an unknown adapter driver is requested.
type UnknownAdapterError struct {
	Driver    string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter driver %q\nAvailable adapters: %s\nHint: Check catalog.source.driver in fedsql.yaml",
		e.Driver, strings.Join(e.Available, ", "))
}
