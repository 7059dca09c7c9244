package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestWriteWAV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asset.wav")
	// one second of a square-ish pattern at 16kHz
	pcm := make([]byte, 16000*2)
	for i := 0; i < len(pcm); i += 2 {
		pcm[i] = 0x00
		pcm[i+1] = 0x10
	}

	dur, err := WAVWriter{}.WriteWAV(path, pcm, 16000)
	if err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if dur != 1.0 {
		t.Fatalf("expected 1s duration, got %g", dur)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open written wav: %v", err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("written file is not a valid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode wav: %v", err)
	}
	if len(buf.Data) != 16000 {
		t.Fatalf("expected 16000 samples, got %d", len(buf.Data))
	}
	if buf.Data[0] != 0x1000 {
		t.Fatalf("expected sample 0x1000, got %#x", buf.Data[0])
	}
}

func TestWriteWAV_OddLengthRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asset.wav")
	if _, err := (WAVWriter{}).WriteWAV(path, []byte{0x01}, 16000); err == nil {
		t.Fatal("expected error for odd pcm16 buffer")
	}
}
