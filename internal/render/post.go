package render

import "github.com/coreman2200/pixelgenie/internal/pixel"

// WhiteCap scales each LED so r+g+b <= limit*fullScale, where fullScale is
// the value of one channel at full brightness. limit is a sum of channels in
// 0..3; values outside (0,3) disable the cap.
func WhiteCap(buf []pixel.RGB, limit, fullScale float64) {
	if limit <= 0 || limit >= 3 || fullScale <= 0 {
		return
	}
	wc := limit * fullScale
	for i := range buf {
		s := buf[i].Sum()
		if s > wc && s > 0 {
			buf[i] = buf[i].Scale(wc / s)
		}
	}
}
