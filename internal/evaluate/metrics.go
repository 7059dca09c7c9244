// Package evaluate scores a diarization+transcription pipeline against
// human-annotated ground truth: DER, JER, and WER.
package evaluate

import (
	"sort"
	"strings"

	"github.com/harumilabs/kikiwake/internal/diarize"
)

// Report carries the three error rates and the speaker mapping the
// diarization metrics were computed under.
type Report struct {
	DER        float64           `json:"der"`
	JER        float64           `json:"jer"`
	WER        float64           `json:"wer"`
	SpeakerMap map[string]string `json:"speaker_map"`
}

// Evaluate computes all three metrics. Reference and hypothesis texts are
// joined in their given (temporal) order for WER.
func Evaluate(ref, hyp *diarize.Annotation, refTexts, hypTexts []string) Report {
	mapping := MatchSpeakers(ref, hyp)
	return Report{
		DER:        DER(ref, hyp, mapping),
		JER:        JER(ref, hyp, mapping),
		WER:        WER(strings.Join(refTexts, " "), strings.Join(hypTexts, " ")),
		SpeakerMap: mapping,
	}
}

// MatchSpeakers finds the one-to-one reference→hypothesis label mapping
// that maximizes total time overlap. The search is exact (bitmask DP over
// hypothesis labels) and deterministic: reference labels are processed in
// first-occurrence order and ties resolve toward the earliest-seen
// hypothesis label; zero-overlap pairs stay unmatched.
func MatchSpeakers(ref, hyp *diarize.Annotation) map[string]string {
	refLabels := ref.Labels()
	hypLabels := hyp.Labels()
	if len(refLabels) == 0 || len(hypLabels) == 0 {
		return map[string]string{}
	}

	overlap := make([][]float64, len(refLabels))
	for i, rl := range refLabels {
		overlap[i] = make([]float64, len(hypLabels))
		rt := ref.LabelTimeline(rl)
		for j, hl := range hypLabels {
			ht := hyp.LabelTimeline(hl)
			overlap[i][j] = timelineOverlap(rt, ht)
		}
	}

	nHyp := len(hypLabels)
	memo := make([]map[int]float64, len(refLabels)+1)
	for i := range memo {
		memo[i] = make(map[int]float64)
	}
	var best func(i, mask int) float64
	best = func(i, mask int) float64 {
		if i == len(refLabels) {
			return 0
		}
		if v, ok := memo[i][mask]; ok {
			return v
		}
		v := best(i+1, mask) // leave reference speaker i unmatched
		for j := 0; j < nHyp; j++ {
			if mask&(1<<j) != 0 || overlap[i][j] <= 0 {
				continue
			}
			if cand := overlap[i][j] + best(i+1, mask|1<<j); cand > v {
				v = cand
			}
		}
		memo[i][mask] = v
		return v
	}

	mapping := make(map[string]string)
	mask := 0
	for i := range refLabels {
		total := best(i, mask)
		if best(i+1, mask) == total {
			continue // unmatched achieves the optimum
		}
		for j := 0; j < nHyp; j++ {
			if mask&(1<<j) != 0 || overlap[i][j] <= 0 {
				continue
			}
			if overlap[i][j]+best(i+1, mask|1<<j) == total {
				mapping[refLabels[i]] = hypLabels[j]
				mask |= 1 << j
				break
			}
		}
	}
	return mapping
}

// DER is (missed speech + false alarm + speaker confusion) / total
// reference speech time, computed by a boundary sweep so simultaneous
// speech is counted per speaker. Returns 0 when the reference contains no
// speech at all.
func DER(ref, hyp *diarize.Annotation, mapping map[string]string) float64 {
	type speakerTimeline struct {
		label    string
		timeline []diarize.Segment
	}
	refSpeakers := make([]speakerTimeline, 0, len(ref.Labels()))
	for _, l := range ref.Labels() {
		refSpeakers = append(refSpeakers, speakerTimeline{l, ref.LabelTimeline(l)})
	}
	hypSpeakers := make([]speakerTimeline, 0, len(hyp.Labels()))
	for _, l := range hyp.Labels() {
		hypSpeakers = append(hypSpeakers, speakerTimeline{l, hyp.LabelTimeline(l)})
	}

	boundaries := map[float64]bool{}
	collect := func(speakers []speakerTimeline) {
		for _, sp := range speakers {
			for _, s := range sp.timeline {
				boundaries[s.Start] = true
				boundaries[s.End] = true
			}
		}
	}
	collect(refSpeakers)
	collect(hypSpeakers)
	times := make([]float64, 0, len(boundaries))
	for t := range boundaries {
		times = append(times, t)
	}
	sort.Float64s(times)

	active := func(timeline []diarize.Segment, mid float64) bool {
		for _, s := range timeline {
			if s.Start <= mid && mid < s.End {
				return true
			}
		}
		return false
	}

	var total, miss, falseAlarm, confusion float64
	for i := 0; i+1 < len(times); i++ {
		dt := times[i+1] - times[i]
		if dt <= 0 {
			continue
		}
		mid := (times[i] + times[i+1]) / 2

		nRef, nHyp, nCorrect := 0, 0, 0
		hypActive := make(map[string]bool, len(hypSpeakers))
		for _, sp := range hypSpeakers {
			if active(sp.timeline, mid) {
				hypActive[sp.label] = true
				nHyp++
			}
		}
		for _, sp := range refSpeakers {
			if !active(sp.timeline, mid) {
				continue
			}
			nRef++
			if mapped, ok := mapping[sp.label]; ok && hypActive[mapped] {
				nCorrect++
			}
		}

		total += float64(nRef) * dt
		if nRef > nHyp {
			miss += float64(nRef-nHyp) * dt
		}
		if nHyp > nRef {
			falseAlarm += float64(nHyp-nRef) * dt
		}
		matched := nRef
		if nHyp < matched {
			matched = nHyp
		}
		if matched > nCorrect {
			confusion += float64(matched-nCorrect) * dt
		}
	}

	if total == 0 {
		return 0
	}
	return (miss + falseAlarm + confusion) / total
}

// JER averages 1−IoU between each reference speaker's timeline and its
// matched hypothesis timeline; unmatched reference speakers score 1.
func JER(ref, hyp *diarize.Annotation, mapping map[string]string) float64 {
	labels := ref.Labels()
	if len(labels) == 0 {
		return 0
	}
	sum := 0.0
	for _, rl := range labels {
		hl, ok := mapping[rl]
		if !ok {
			sum += 1.0
			continue
		}
		rt := ref.LabelTimeline(rl)
		ht := hyp.LabelTimeline(hl)
		inter := timelineOverlap(rt, ht)
		union := timelineDuration(rt) + timelineDuration(ht) - inter
		if union <= 0 {
			sum += 1.0
			continue
		}
		sum += 1.0 - inter/union
	}
	return sum / float64(len(labels))
}

// WER is word-level edit distance over the reference word count.
// WER("", "") is 0; a nonempty reference against an empty hypothesis is 1.
func WER(reference, hypothesis string) float64 {
	refWords := strings.Fields(reference)
	hypWords := strings.Fields(hypothesis)
	if len(refWords) == 0 {
		if len(hypWords) == 0 {
			return 0
		}
		return 1
	}

	prev := make([]int, len(hypWords)+1)
	curr := make([]int, len(hypWords)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(refWords); i++ {
		curr[0] = i
		for j := 1; j <= len(hypWords); j++ {
			sub := prev[j-1]
			if refWords[i-1] != hypWords[j-1] {
				sub++
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			m := sub
			if del < m {
				m = del
			}
			if ins < m {
				m = ins
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return float64(prev[len(hypWords)]) / float64(len(refWords))
}

func timelineOverlap(a, b []diarize.Segment) float64 {
	total := 0.0
	for _, x := range a {
		for _, y := range b {
			total += diarize.Overlap(x.Start, x.End, y.Start, y.End)
		}
	}
	return total
}

func timelineDuration(segs []diarize.Segment) float64 {
	total := 0.0
	for _, s := range segs {
		total += s.Duration()
	}
	return total
}
