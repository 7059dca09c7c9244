// Package export serializes pipeline artifacts: the RTTM segment-timing
// file and the JSON transcript bundle, both under a per-session directory.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/harumilabs/kikiwake/internal/align"
	"github.com/harumilabs/kikiwake/internal/diarize"
	"github.com/harumilabs/kikiwake/internal/speaker"
)

// Bundle is the per-session transcript artifact consumed by the host
// application and the evaluation CLI.
type Bundle struct {
	SessionID           string                `json:"session_id"`
	ProjectID           string                `json:"project_id"`
	SessionName         string                `json:"session_name"`
	Participants        []speaker.Participant `json:"participants"`
	StartedAt           time.Time             `json:"started_at"`
	EndedAt             time.Time             `json:"ended_at"`
	AudioFilePath       string                `json:"audio_file_path"`
	DiarizationSource   string                `json:"diarization_source"`
	TranscriptionSource string                `json:"transcription_source"`
	Utterances          []align.Utterance     `json:"utterances"`
}

// WriteRTTM writes one SPEAKER line per annotation segment:
// type file channel start duration <NA> <NA> speaker <NA> <NA>.
func WriteRTTM(path, fileID string, ann *diarize.Annotation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, s := range ann.Segments() {
		fmt.Fprintf(w, "SPEAKER %s 1 %.3f %.3f <NA> <NA> %s <NA> <NA>\n",
			fileID, s.Start, s.Duration(), s.Speaker)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// ParseRTTM reads SPEAKER lines back into an annotation. The (start, end,
// speaker) triples round-trip losslessly at millisecond precision.
func ParseRTTM(path string) (*diarize.Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ann := diarize.NewAnnotation()
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] != "SPEAKER" || len(fields) < 8 {
			return nil, fmt.Errorf("%s:%d: malformed rttm line", path, line)
		}
		start, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad start: %w", path, line, err)
		}
		dur, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad duration: %w", path, line, err)
		}
		ann.Add(diarize.Segment{Start: start, End: start + dur, Speaker: fields[7]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ann, nil
}

// WriteBundle persists the transcript bundle with a temp-file rename so a
// crash never leaves a half-written artifact behind.
func WriteBundle(path string, b Bundle) error {
	return writeJSON(path, b)
}

func ReadBundle(path string) (Bundle, error) {
	var b Bundle
	data, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("decode %s: %w", path, err)
	}
	return b, nil
}

func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
