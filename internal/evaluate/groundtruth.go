package evaluate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/harumilabs/kikiwake/internal/align"
	"github.com/harumilabs/kikiwake/internal/diarize"
)

// GroundTruthSegment is one human-annotated reference span. Loaded from
// file, never mutated.
type GroundTruthSegment struct {
	Speaker string
	Start   float64
	End     float64
	Text    string
}

type groundTruthFile struct {
	Segments []groundTruthEntry `json:"segments"`
}

type groundTruthEntry struct {
	Speaker string          `json:"speaker"`
	Start   json.RawMessage `json:"start_time"`
	End     json.RawMessage `json:"end_time"`
	Text    string          `json:"text"`
}

// LoadGroundTruth reads the annotated reference file. Malformed entries are
// defaulted rather than fatal: a missing end time becomes start+1.0 and a
// missing speaker becomes the UNKNOWN sentinel, so a sloppy annotation only
// degrades evaluation accuracy.
func LoadGroundTruth(path string) ([]GroundTruthSegment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var file groundTruthFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	segments := make([]GroundTruthSegment, 0, len(file.Segments))
	for i, e := range file.Segments {
		start, err := parseFlexTime(e.Start)
		if err != nil {
			slog.Warn("ground truth entry has bad start time; defaulting to 0", "index", i, "error", err)
			start = 0
		}
		end, err := parseFlexTime(e.End)
		if err != nil || end <= start {
			end = start + 1.0
		}
		speaker := e.Speaker
		if speaker == "" {
			speaker = align.UnknownLabel
		}
		segments = append(segments, GroundTruthSegment{
			Speaker: speaker,
			Start:   start,
			End:     end,
			Text:    e.Text,
		})
	}
	sort.SliceStable(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })
	return segments, nil
}

// GroundTruthAnnotation converts reference segments to the annotation shape
// used everywhere else.
func GroundTruthAnnotation(segments []GroundTruthSegment) *diarize.Annotation {
	ann := diarize.NewAnnotation()
	for _, s := range segments {
		ann.Add(diarize.Segment{Start: s.Start, End: s.End, Speaker: s.Speaker})
	}
	return ann
}

// GroundTruthTexts returns reference texts in temporal order.
func GroundTruthTexts(segments []GroundTruthSegment) []string {
	texts := make([]string, 0, len(segments))
	for _, s := range segments {
		texts = append(texts, s.Text)
	}
	return texts
}

// parseFlexTime accepts seconds as a JSON number, a numeric string, or a
// clock string ("MM:SS" / "H:MM:SS").
func parseFlexTime(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("missing time value")
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("time is neither number nor string: %s", string(raw))
	}
	return parseClock(s)
}

func parseClock(s string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	switch len(parts) {
	case 1:
		return strconv.ParseFloat(parts[0], 64)
	case 2:
		m, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("bad minutes in %q", s)
		}
		sec, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, fmt.Errorf("bad seconds in %q", s)
		}
		return float64(m)*60 + sec, nil
	case 3:
		h, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("bad hours in %q", s)
		}
		m, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, fmt.Errorf("bad minutes in %q", s)
		}
		sec, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return 0, fmt.Errorf("bad seconds in %q", s)
		}
		return float64(h)*3600 + float64(m)*60 + sec, nil
	default:
		return 0, fmt.Errorf("unrecognized time format %q", s)
	}
}
