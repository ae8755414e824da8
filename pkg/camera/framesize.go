package camera

import "fmt"

// Frame size presets, smallest to largest. The stream restarts when the
// preset changes; everything else applies to the running device.
const (
	Size96x96 = iota
	SizeQQVGA
	SizeQCIF
	SizeHQVGA
	Size240x240
	SizeQVGA
	SizeCIF
	SizeHVGA
	SizeVGA
	SizeSVGA
	SizeXGA
	SizeHD
	SizeSXGA
	SizeUXGA
)

type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%d*%d", s.Width, s.Height)
}

var frameSizes = [...]Size{
	Size96x96:   {96, 96},
	SizeQQVGA:   {160, 120},
	SizeQCIF:    {176, 144},
	SizeHQVGA:   {240, 176},
	Size240x240: {240, 240},
	SizeQVGA:    {320, 240},
	SizeCIF:     {400, 296},
	SizeHVGA:    {480, 320},
	SizeVGA:     {640, 480},
	SizeSVGA:    {800, 600},
	SizeXGA:     {1024, 768},
	SizeHD:      {1280, 720},
	SizeSXGA:    {1280, 1024},
	SizeUXGA:    {1600, 1200},
}

// FrameSizeDims resolves a preset index to pixel dimensions.
func FrameSizeDims(preset int) (Size, bool) {
	if preset < 0 || preset >= len(frameSizes) {
		return Size{}, false
	}
	return frameSizes[preset], true
}
