// Package diagnostics implements the diagnostic collector (component
// G): accumulating warnings, applying in-source suppression markers,
// sorting, and rendering, per spec §4.7.
package diagnostics

// Location is a byte range plus the row/column pair tree-sitter
// reports for it, annotated with a human-readable label.
type Location struct {
	Path       string
	StartByte  uint32
	EndByte    uint32
	StartRow   uint32
	StartCol   uint32
	EndRow     uint32
	EndCol     uint32
	Label      string
}

// Warning is the spec §3 Warning tuple.
type Warning struct {
	VexID     string
	Message   string
	Primary   Location
	Secondary []Location
	ExtraInfo string
	Lenient   bool
}

// Collector accumulates warnings during dispatch (spec §4.5 Walking
// state); after the walk, Finalize filters and sorts them and a
// Renderer writes them out.
type Collector struct {
	warnings []Warning
	sources  map[string][]byte
	markers  map[string][]Marker
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		sources: make(map[string][]byte),
		markers: make(map[string][]Marker),
	}
}

// Warn records a warning emitted by a script observer.
func (c *Collector) Warn(w Warning) {
	c.warnings = append(c.warnings, w)
}

// RegisterFile supplies a file's bytes and pre-scanned suppression
// markers so Finalize can apply them without re-parsing. Called once per
// admitted file during the Walking state.
func (c *Collector) RegisterFile(path string, src []byte, markers []Marker) {
	c.sources[path] = src
	c.markers[path] = markers
}

// Finalize applies suppression markers (§4.7 step 1-2), drops lenient
// warnings when lenient is true (step 3), and returns the sorted
// survivors (step 4).
func (c *Collector) Finalize(lenient bool) []Warning {
	var survivors []Warning
	for _, w := range c.warnings {
		if lenient && w.Lenient {
			continue
		}
		if Suppressed(c.markers[w.Primary.Path], w) {
			continue
		}
		survivors = append(survivors, w)
	}
	SortWarnings(survivors)
	return survivors
}

// ExitCode computes the process exit code (spec §4.7): 0 when no
// warnings survived, 1 when at least one did, 2 on engine failure
// (which takes precedence — an aborted run never reports a clean 0/1).
func ExitCode(survived []Warning, engineFailed bool) int {
	if engineFailed {
		return 2
	}
	if len(survived) > 0 {
		return 1
	}
	return 0
}
