package profiling

import (
	"strings"
	"testing"
	"time"
)

func TestTrackAccumulates(t *testing.T) {
	Reset()
	for range 3 {
		Track("pipeline.extract")()
	}
	if got := Calls("pipeline.extract"); got != 3 {
		t.Fatalf("Calls = %d, want 3", got)
	}
	if _, ok := Snapshot()["pipeline.extract"]; !ok {
		t.Fatal("stage missing from tick snapshot")
	}
	ResetTick()
	if len(Snapshot()) != 0 {
		t.Error("ResetTick left tick totals")
	}
	if _, ok := Totals()["pipeline.extract"]; !ok {
		t.Error("ResetTick cleared run totals")
	}
}

func TestTopNOrdering(t *testing.T) {
	got := format(map[string]time.Duration{
		"a": 1 * time.Millisecond,
		"b": 4200 * time.Microsecond,
		"c": 2 * time.Millisecond,
	}, 2)
	if got != "b:4.2ms, c:2ms" {
		t.Errorf("format = %q", got)
	}
	if format(nil, 3) != "" {
		t.Error("empty totals should format as empty string")
	}
}

func TestTopNTotalIncludesTrackedStage(t *testing.T) {
	Reset()
	Track("pipeline.density")()
	if !strings.Contains(TopNTotal(5), "pipeline.density:") {
		t.Errorf("TopNTotal = %q", TopNTotal(5))
	}
}
