package audioengine

import (
	"fmt"

	"github.com/hraban/opus"

	"segplay/pkg/spec"
)

// FrameEncoder cuts interleaved PCM into fixed 20ms opus packets.
type FrameEncoder struct {
	enc      *opus.Encoder
	rate     int
	channels int
	tmp      []byte
}

func NewFrameEncoder(rate, channels, bitrate int) (*FrameEncoder, error) {
	enc, err := opus.NewEncoder(rate, channels, opus.AppAudio)
	if err != nil {
		return nil, err
	}
	if bitrate > 0 {
		if err := enc.SetBitrate(bitrate); err != nil {
			return nil, fmt.Errorf("set bitrate %d: %w", bitrate, err)
		}
	}
	return &FrameEncoder{
		enc:      enc,
		rate:     rate,
		channels: channels,
		tmp:      make([]byte, spec.MaxPacketSize),
	}, nil
}

// FrameSamples is the interleaved sample count of one packet.
func (fe *FrameEncoder) FrameSamples() int {
	return fe.rate / spec.FramesPerSecond * fe.channels
}

// Encode returns one packet per 20ms of pcm. The trailing partial frame is
// padded with silence.
func (fe *FrameEncoder) Encode(pcm []int16) ([][]byte, error) {
	size := fe.FrameSamples()
	packets := make([][]byte, 0, (len(pcm)+size-1)/size)

	for i := 0; i < len(pcm); i += size {
		end := i + size
		var chunk []int16
		if end > len(pcm) {
			chunk = make([]int16, size)
			copy(chunk, pcm[i:])
		} else {
			chunk = pcm[i:end]
		}

		n, err := fe.enc.Encode(chunk, fe.tmp)
		if err != nil {
			return nil, err
		}

		packet := make([]byte, n)
		copy(packet, fe.tmp[:n])
		packets = append(packets, packet)
	}
	return packets, nil
}
