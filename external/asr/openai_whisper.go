package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/harumilabs/kikiwake/internal/asr"
)

// WhisperEngine calls the OpenAI audio transcription endpoint with
// response_format=verbose_json to get segment-level timestamps.
type WhisperEngine struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewWhisperEngine(baseURL, apiKey, model string) asr.Engine {
	return &WhisperEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{},
	}
}

type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (e *WhisperEngine) Transcribe(ctx context.Context, audioPath string) (asr.Transcript, error) {
	if e.apiKey == "" {
		return asr.Transcript{}, asr.ErrNotConfigured
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return asr.Transcript{}, fmt.Errorf("open %s: %w", audioPath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", e.model); err != nil {
		return asr.Transcript{}, err
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return asr.Transcript{}, err
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return asr.Transcript{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return asr.Transcript{}, fmt.Errorf("copy audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return asr.Transcript{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return asr.Transcript{}, err
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return asr.Transcript{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		const maxErr = 4096
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErr))
		return asr.Transcript{}, fmt.Errorf("transcribe %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var out whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return asr.Transcript{}, fmt.Errorf("transcribe decode: %w", err)
	}

	tr := asr.Transcript{Language: out.Language}
	for _, s := range out.Segments {
		tr.Segments = append(tr.Segments, asr.Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}
	if len(tr.Segments) == 0 && out.Text != "" {
		// Some models return plain text with no timestamps; keep the full
		// text as one segment spanning the reported duration.
		tr.Segments = append(tr.Segments, asr.Segment{Start: 0, End: out.Duration, Text: strings.TrimSpace(out.Text)})
	}
	return tr, nil
}
