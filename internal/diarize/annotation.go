package diarize

import "sort"

// Segment is one speaker-labeled time interval, in seconds.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

func (s Segment) Duration() float64 {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

// Annotation is a collection of speaker segments. Segments of different
// speakers may overlap (simultaneous speech is legal). Label order is the
// order of first occurrence, which downstream tie-breaking depends on.
type Annotation struct {
	segments []Segment
	labels   []string
	seen     map[string]bool
}

func NewAnnotation(segments ...Segment) *Annotation {
	a := &Annotation{seen: make(map[string]bool)}
	for _, s := range segments {
		a.Add(s)
	}
	return a
}

func (a *Annotation) Add(s Segment) {
	if s.End <= s.Start {
		return
	}
	a.segments = append(a.segments, s)
	if !a.seen[s.Speaker] {
		a.seen[s.Speaker] = true
		a.labels = append(a.labels, s.Speaker)
	}
}

func (a *Annotation) Segments() []Segment {
	return a.segments
}

// Labels returns speaker labels in order of first occurrence.
func (a *Annotation) Labels() []string {
	return a.labels
}

func (a *Annotation) Empty() bool {
	return len(a.segments) == 0
}

// LabelTimeline returns the merged (union) intervals of one speaker,
// sorted by start time.
func (a *Annotation) LabelTimeline(label string) []Segment {
	var raw []Segment
	for _, s := range a.segments {
		if s.Speaker == label {
			raw = append(raw, s)
		}
	}
	return mergeIntervals(raw)
}

// LabelDuration returns a speaker's total speaking time with overlapping
// segments of the same label counted once.
func (a *Annotation) LabelDuration(label string) float64 {
	total := 0.0
	for _, s := range a.LabelTimeline(label) {
		total += s.Duration()
	}
	return total
}

func mergeIntervals(segs []Segment) []Segment {
	if len(segs) == 0 {
		return nil
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })
	out := []Segment{segs[0]}
	for _, s := range segs[1:] {
		last := &out[len(out)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// Overlap returns the intersection duration of two intervals. It is
// symmetric, non-negative, and bounded by the shorter interval.
func Overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}
