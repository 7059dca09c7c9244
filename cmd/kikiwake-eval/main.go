// kikiwake-eval scores a session's pipeline output against human-annotated
// ground truth and reports DER, JER, and WER.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/harumilabs/kikiwake/internal/diarize"
	"github.com/harumilabs/kikiwake/internal/evaluate"
	"github.com/harumilabs/kikiwake/internal/export"
	"github.com/spf13/cobra"
)

type evalFlags struct {
	groundTruthPath string
	rttmPath        string
	bundlePath      string
	outPath         string
}

func main() {
	flags := &evalFlags{}
	cmd := &cobra.Command{
		Use:   "kikiwake-eval",
		Short: "Score diarization and transcription output against ground truth",
		Long: `kikiwake-eval compares a session's predicted diarization (RTTM) and
transcript bundle against a human-annotated ground truth file and reports
diarization error rate (DER), Jaccard error rate (JER), and word error
rate (WER).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			return runEval(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.groundTruthPath, "ground-truth", "", "path to the annotated ground truth JSON (required)")
	cmd.Flags().StringVar(&flags.rttmPath, "rttm", "", "path to the predicted diarization RTTM file")
	cmd.Flags().StringVar(&flags.bundlePath, "bundle", "", "path to the session transcript bundle JSON")
	cmd.Flags().StringVar(&flags.outPath, "out", "", "write the evaluation report as JSON to this path")
	_ = cmd.MarkFlagRequired("ground-truth")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runEval(cmd *cobra.Command, flags *evalFlags) error {
	if flags.rttmPath == "" && flags.bundlePath == "" {
		return fmt.Errorf("at least one of --rttm or --bundle is required")
	}

	refSegments, err := evaluate.LoadGroundTruth(flags.groundTruthPath)
	if err != nil {
		return fmt.Errorf("load ground truth: %w", err)
	}
	ref := evaluate.GroundTruthAnnotation(refSegments)
	refTexts := evaluate.GroundTruthTexts(refSegments)

	var hyp *diarize.Annotation
	var hypTexts []string
	if flags.bundlePath != "" {
		bundle, err := export.ReadBundle(flags.bundlePath)
		if err != nil {
			return fmt.Errorf("read bundle: %w", err)
		}
		hyp = bundleAnnotation(bundle)
		for _, u := range bundle.Utterances {
			hypTexts = append(hypTexts, u.Text)
		}
	}
	if flags.rttmPath != "" {
		ann, err := export.ParseRTTM(flags.rttmPath)
		if err != nil {
			return fmt.Errorf("parse rttm: %w", err)
		}
		hyp = ann
	}

	report := evaluate.Evaluate(ref, hyp, refTexts, hypTexts)

	fmt.Fprintf(cmd.OutOrStdout(), "DER: %.4f\n", report.DER)
	fmt.Fprintf(cmd.OutOrStdout(), "JER: %.4f\n", report.JER)
	fmt.Fprintf(cmd.OutOrStdout(), "WER: %.4f\n", report.WER)
	refLabels := make([]string, 0, len(report.SpeakerMap))
	for refLabel := range report.SpeakerMap {
		refLabels = append(refLabels, refLabel)
	}
	sort.Strings(refLabels)
	for _, refLabel := range refLabels {
		fmt.Fprintf(cmd.OutOrStdout(), "speaker map: %s -> %s\n", refLabel, report.SpeakerMap[refLabel])
	}

	if flags.outPath != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := os.WriteFile(flags.outPath, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

// bundleAnnotation rebuilds the predicted speaker timeline from the
// bundle's utterances; the RTTM file supersedes it when both are given.
func bundleAnnotation(b export.Bundle) *diarize.Annotation {
	ann := diarize.NewAnnotation()
	for _, u := range b.Utterances {
		ann.Add(diarize.Segment{Start: u.Start, End: u.End, Speaker: u.SpeakerLabel})
	}
	return ann
}
