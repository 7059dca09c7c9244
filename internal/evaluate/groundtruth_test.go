package evaluate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harumilabs/kikiwake/internal/align"
)

func writeGroundTruth(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ground_truth.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("seed ground truth: %v", err)
	}
	return path
}

func TestLoadGroundTruth_NumericAndClockTimes(t *testing.T) {
	path := writeGroundTruth(t, `{
		"segments": [
			{"speaker": "alice", "start_time": 0, "end_time": 12.5, "text": "hello"},
			{"speaker": "bob", "start_time": "01:30", "end_time": "01:45", "text": "hi"},
			{"speaker": "alice", "start_time": "1:02:03", "end_time": "1:02:10", "text": "bye"}
		]
	}`)
	segs, err := LoadGroundTruth(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if segs[0].End != 12.5 {
		t.Fatalf("numeric end: got %g", segs[0].End)
	}
	if segs[1].Start != 90 || segs[1].End != 105 {
		t.Fatalf("MM:SS parsing: got [%g,%g]", segs[1].Start, segs[1].End)
	}
	if segs[2].Start != 3723 {
		t.Fatalf("H:MM:SS parsing: got %g", segs[2].Start)
	}
}

func TestLoadGroundTruth_DefaultsMissingFields(t *testing.T) {
	path := writeGroundTruth(t, `{
		"segments": [
			{"start_time": 5, "text": "no speaker no end"}
		]
	}`)
	segs, err := LoadGroundTruth(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if segs[0].Speaker != align.UnknownLabel {
		t.Fatalf("expected %s, got %q", align.UnknownLabel, segs[0].Speaker)
	}
	if segs[0].End != 6 {
		t.Fatalf("expected end defaulted to start+1, got %g", segs[0].End)
	}
}

func TestLoadGroundTruth_SortsByStart(t *testing.T) {
	path := writeGroundTruth(t, `{
		"segments": [
			{"speaker": "b", "start_time": 10, "end_time": 12, "text": "second"},
			{"speaker": "a", "start_time": 0, "end_time": 2, "text": "first"}
		]
	}`)
	segs, err := LoadGroundTruth(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	texts := GroundTruthTexts(segs)
	if texts[0] != "first" || texts[1] != "second" {
		t.Fatalf("expected temporal order, got %v", texts)
	}
	ann := GroundTruthAnnotation(segs)
	if labels := ann.Labels(); labels[0] != "a" {
		t.Fatalf("expected label order by time, got %v", labels)
	}
}
