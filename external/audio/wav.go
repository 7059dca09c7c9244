package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	internalaudio "github.com/harumilabs/kikiwake/internal/audio"
)

const wavBitDepth = 16

type WAVWriter struct{}

func NewWAVWriter() internalaudio.Writer {
	return &WAVWriter{}
}

func (WAVWriter) WriteWAV(path string, pcm []byte, sampleRate int) (float64, error) {
	if len(pcm)%2 != 0 {
		return 0, fmt.Errorf("pcm16 buffer length must be even, got %d", len(pcm))
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	enc := wav.NewEncoder(f, sampleRate, wavBitDepth, 1, 1)
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: wavBitDepth,
		Data:           samples,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return 0, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("close wav encoder: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	return internalaudio.DurationSec(int64(len(pcm)), sampleRate), nil
}
