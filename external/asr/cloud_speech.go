package asr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/harumilabs/kikiwake/internal/asr"
	"google.golang.org/api/option"
)

const speechAPIEndpointPort = 443

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
	Model           string
	Language        string
}

// CloudSpeechEngine transcribes a finished session asset in one Recognize
// call with word time offsets enabled, so segment timestamps come from the
// recognizer itself.
type CloudSpeechEngine struct {
	projectID       string
	credentialsJSON string
	location        string
	model           string
	language        string
}

func NewCloudSpeechEngine(cfg CloudSpeechConfig) asr.Engine {
	language := cfg.Language
	if language == "" {
		language = "en-US"
	}
	return &CloudSpeechEngine{
		projectID:       cfg.ProjectID,
		credentialsJSON: cfg.CredentialsJSON,
		location:        strings.TrimSpace(cfg.Location),
		model:           strings.TrimSpace(cfg.Model),
		language:        language,
	}
}

func (e *CloudSpeechEngine) Transcribe(ctx context.Context, audioPath string) (asr.Transcript, error) {
	if e.projectID == "" || e.credentialsJSON == "" {
		return asr.Transcript{}, asr.ErrNotConfigured
	}

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(e.credentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return asr.Transcript{}, fmt.Errorf("detect credentials: %w", err)
	}

	opts := []option.ClientOption{option.WithAuthCredentials(creds)}
	if e.location != "" && e.location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", e.location, speechAPIEndpointPort)))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return asr.Transcript{}, err
	}
	defer func() {
		_ = client.Close()
	}()

	content, err := os.ReadFile(audioPath)
	if err != nil {
		return asr.Transcript{}, fmt.Errorf("read %s: %w", audioPath, err)
	}

	location := e.location
	if location == "" {
		location = "global"
	}
	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", e.projectID, location),
		Config: &speechpb.RecognitionConfig{
			Model:         e.model,
			LanguageCodes: []string{e.language},
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			Features: &speechpb.RecognitionFeatures{
				EnableWordTimeOffsets:      true,
				EnableAutomaticPunctuation: true,
			},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: content},
	})
	if err != nil {
		return asr.Transcript{}, err
	}

	var tr asr.Transcript
	for _, result := range resp.GetResults() {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		alt := result.GetAlternatives()[0]
		text := strings.TrimSpace(alt.GetTranscript())
		if text == "" {
			continue
		}
		seg := asr.Segment{Text: text}
		if words := alt.GetWords(); len(words) > 0 {
			seg.Start = words[0].GetStartOffset().AsDuration().Seconds()
			seg.End = words[len(words)-1].GetEndOffset().AsDuration().Seconds()
		} else {
			seg.End = result.GetResultEndOffset().AsDuration().Seconds()
			if n := len(tr.Segments); n > 0 {
				seg.Start = tr.Segments[n-1].End
			}
		}
		if tr.Language == "" {
			tr.Language = result.GetLanguageCode()
		}
		tr.Segments = append(tr.Segments, seg)
	}
	return tr, nil
}
