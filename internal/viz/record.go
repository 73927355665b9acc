package viz

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"os"
)

var errNoFrames = errors.New("viz: no frames recorded")

// Recorder collects RGBA8 frames from World.Draw and encodes them as an
// animated GIF.
type Recorder struct {
	frames []*image.Paletted
	delay  int
}

// NewRecorder creates a recorder whose frames each show for delay
// hundredths of a second.
func NewRecorder(delay int) *Recorder {
	if delay < 1 {
		delay = 1
	}
	return &Recorder{delay: delay}
}

func (r *Recorder) Len() int { return len(r.frames) }

// Capture converts frame into a two-color image stride pixels wide.
func (r *Recorder) Capture(frame []byte, stride int) {
	if stride <= 0 {
		return
	}
	pixels := len(frame) / 4
	rows := pixels / stride
	if rows == 0 {
		return
	}

	img := image.NewPaletted(image.Rect(0, 0, stride, rows), color.Palette{color.Black, color.White})
	for k := 0; k < stride*rows; k++ {
		i := k * 4
		if frame[i]|frame[i+1]|frame[i+2] != 0 {
			img.SetColorIndex(k%stride, k/stride, 1)
		}
	}
	r.frames = append(r.frames, img)
}

// Save writes the recorded frames to path and clears the recorder.
func (r *Recorder) Save(path string) error {
	if len(r.frames) == 0 {
		return errNoFrames
	}

	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.delay)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gif.EncodeAll(f, &anim); err != nil {
		return err
	}
	r.frames = r.frames[:0]
	return nil
}
