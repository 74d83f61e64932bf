package audioengine

import (
	"github.com/hraban/opus"

	"segplay/pkg/spec"
)

type StreamDecoder struct {
	dec      *opus.Decoder
	channels int
	out      []int16
}

func NewStreamDecoder(rate, channels int) (*StreamDecoder, error) {
	d, err := opus.NewDecoder(rate, channels)
	if err != nil {
		return nil, err
	}
	// 120ms is the longest frame opus will hand back.
	maxFrame := rate / spec.FramesPerSecond * 6
	return &StreamDecoder{
		dec:      d,
		channels: channels,
		out:      make([]int16, maxFrame*channels),
	}, nil
}

// DecodeFrame decodes one packet and returns the interleaved samples. The
// returned slice is reused by the next call.
func (sd *StreamDecoder) DecodeFrame(packet []byte) ([]int16, error) {
	n, err := sd.dec.Decode(packet, sd.out)
	if err != nil {
		return nil, err
	}
	return sd.out[:n*sd.channels], nil
}
