package resolver

import (
	"sync"

	"github.com/home-lang/pantry-sub012/pkg/pkgspec"
)

// resolution is the shared result of one in-flight or completed resolution,
// broadcast to every caller that asked for the same key.
type resolution struct {
	done chan struct{}
	spec pkgspec.PackageSpec
	err  error
}

// coordinator deduplicates concurrent resolutions for the same
// "name@version-spec" key, folding simultaneous callers onto one shared
// resolution the way golang-dep/gps's sourceCoordinator folds simultaneous
// source-gateway setups for the same normalized name onto one goroutine and
// a fanned-out set of return channels.
type coordinator struct {
	mu       sync.Mutex
	inFlight map[string]*resolution
}

func newCoordinator() *coordinator {
	return &coordinator{inFlight: make(map[string]*resolution)}
}

// do runs fn exactly once per key among concurrent callers; all callers
// sharing a key block until the first caller's fn returns, then all receive
// its result. This is what makes "resolving a dep twice in one run returns
// byte-identical PackageSpec" (spec.md §8) true even under concurrency.
func (c *coordinator) do(key string, fn func() (pkgspec.PackageSpec, error)) (pkgspec.PackageSpec, error) {
	c.mu.Lock()
	if r, ok := c.inFlight[key]; ok {
		c.mu.Unlock()
		<-r.done
		return r.spec, r.err
	}
	r := &resolution{done: make(chan struct{})}
	c.inFlight[key] = r
	c.mu.Unlock()

	r.spec, r.err = fn()
	close(r.done)

	// Leave the completed resolution in place for the lifetime of this
	// coordinator (scoped to one orchestrator invocation) so that later
	// callers in the same run also get the cached, byte-identical result
	// instead of re-resolving.
	return r.spec, r.err
}
