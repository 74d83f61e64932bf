package spec

import "time"

const (
	// === IDENTITY & VERSIONING ===
	AppName      = "segplay"
	VersionMajor = 1
	VersionMinor = 0

	// === ENGINE DEFAULTS ===
	DefaultStepMs       = 5000
	DefaultTickInterval = 500 * time.Millisecond
	DefaultSpeakerBuf   = 100 * time.Millisecond
	DefaultOpusBitrate  = 128000
	DefaultSocketFile   = "/tmp/segplay.sock"

	// === OPUS FRAMING ===
	// One opus frame covers 20ms, i.e. rate/50 samples per channel.
	FrameDuration   = 20 * time.Millisecond
	FramesPerSecond = 50
	MaxPacketSize   = 4000
	MaxOpusChannels = 2

	// === CODEC NAMES ===
	CodecAuto = "auto"
	CodecOpus = "opus"
	CodecPCM  = "pcm"
)

// OpusRates lists the sample rates libopus accepts.
var OpusRates = []int{8000, 12000, 16000, 24000, 48000}

// OpusCompatible reports whether a stream of the given shape can be opus encoded.
func OpusCompatible(sampleRate, channels int) bool {
	if channels < 1 || channels > MaxOpusChannels {
		return false
	}
	for _, r := range OpusRates {
		if r == sampleRate {
			return true
		}
	}
	return false
}
