package audio

// Writer persists a session's concatenated PCM16 buffer as a playable
// audio asset.
type Writer interface {
	// WriteWAV writes mono little-endian PCM16 to path and returns the
	// asset duration in seconds.
	WriteWAV(path string, pcm []byte, sampleRate int) (float64, error)
}

// DurationSec computes the play time of a mono PCM16 buffer.
func DurationSec(pcmBytes int64, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(pcmBytes/2) / float64(sampleRate)
}
