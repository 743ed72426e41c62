package camera

import "fmt"

// Channel indexes into an RGB pixel.
const (
	ChannelRed   = 0
	ChannelGreen = 1
	ChannelBlue  = 2

	RGBChannels = 3
)

// PixelBuffer is a row-major grid of pixels with a fixed number of 8-bit channels per pixel.
type PixelBuffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewPixelBuffer allocates a zeroed buffer.
func NewPixelBuffer(width, height, channels int) *PixelBuffer {
	return &PixelBuffer{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

func (b *PixelBuffer) offset(x, y, channel int) int {
	return (y*b.Width+x)*b.Channels + channel
}

// At returns the value of one channel of the pixel at (x, y).
func (b *PixelBuffer) At(x, y, channel int) uint8 {
	return b.Pix[b.offset(x, y, channel)]
}

// Set writes one channel of the pixel at (x, y).
func (b *PixelBuffer) Set(x, y, channel int, value uint8) {
	b.Pix[b.offset(x, y, channel)] = value
}

// Fill sets every pixel's channel to value.
func (b *PixelBuffer) Fill(channel int, value uint8) {
	for i := channel; i < len(b.Pix); i += b.Channels {
		b.Pix[i] = value
	}
}

// Clone returns a deep copy.
func (b *PixelBuffer) Clone() *PixelBuffer {
	c := *b
	c.Pix = make([]uint8, len(b.Pix))
	copy(c.Pix, b.Pix)
	return &c
}

// Validate checks that the buffer covers at least width x height pixels and has the channel.
func (b *PixelBuffer) Validate(width, height, channel int) error {
	if b == nil {
		return fmt.Errorf("frame is nil")
	}
	if b.Width < width || b.Height < height {
		return fmt.Errorf("frame is %dx%d, expected at least %dx%d", b.Width, b.Height, width, height)
	}
	if channel < 0 || channel >= b.Channels {
		return fmt.Errorf("frame has %d channels, channel %d requested", b.Channels, channel)
	}
	if len(b.Pix) < b.Width*b.Height*b.Channels {
		return fmt.Errorf("frame data is %d bytes, expected %d", len(b.Pix), b.Width*b.Height*b.Channels)
	}
	return nil
}
