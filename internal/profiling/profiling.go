package profiling

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Stage timer shared by the driver and the generation workers. Totals are
// kept per tick and for the whole run.

type stat struct {
	total time.Duration
	calls int
}

var (
	mu       sync.Mutex
	tick     = make(map[string]stat)
	lifetime = make(map[string]stat)
)

// Track returns a stop function that records the elapsed time under name.
// Usage: defer profiling.Track("pipeline.extract")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		s := tick[name]
		s.total += d
		s.calls++
		tick[name] = s
		l := lifetime[name]
		l.total += d
		l.calls++
		lifetime[name] = l
		mu.Unlock()
	}
}

// ResetTick clears the per-tick totals. The driver calls it at the start of
// every tick.
func ResetTick() {
	mu.Lock()
	clear(tick)
	mu.Unlock()
}

// Reset clears everything, including run totals.
func Reset() {
	mu.Lock()
	clear(tick)
	clear(lifetime)
	mu.Unlock()
}

// Snapshot returns a copy of the current per-tick totals.
func Snapshot() map[string]time.Duration {
	return copyTotals(tick)
}

// Totals returns a copy of the run totals.
func Totals() map[string]time.Duration {
	return copyTotals(lifetime)
}

// Calls returns how many times name has been tracked this run.
func Calls(name string) int {
	mu.Lock()
	defer mu.Unlock()
	return lifetime[name].calls
}

func copyTotals(src map[string]stat) map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, len(src))
	for k, v := range src {
		out[k] = v.total
	}
	return out
}

// TopN formats the n slowest stages of the current tick.
// Example: "pipeline.density:4.2ms, pipeline.extract:2.1ms"
func TopN(n int) string {
	return format(Snapshot(), n)
}

// TopNTotal is TopN over the run totals.
func TopNTotal(n int) string {
	return format(Totals(), n)
}

func format(totals map[string]time.Duration, n int) string {
	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(totals))
	for k, v := range totals {
		list = append(list, pair{name: k, dur: v})
	}
	slices.SortFunc(list, func(a, b pair) int {
		if c := cmp.Compare(b.dur, a.dur); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, p := range list[:n] {
		ms := float64(p.dur.Microseconds()) / 1000.0
		parts = append(parts, p.name+":"+formatMs(ms))
	}
	return strings.Join(parts, ", ")
}

// formatMs keeps one decimal and drops a trailing .0
func formatMs(ms float64) string {
	return strconv.FormatFloat(float64(int64(ms*10))/10, 'f', -1, 64) + "ms"
}
