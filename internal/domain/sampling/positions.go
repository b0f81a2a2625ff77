package sampling

import (
	"errors"
	"fmt"
	"math"
)

// MaxCount bounds a single sampling request. Each sample is one ffmpeg
// process, so larger batches are rejected before any allocation.
const MaxCount = 1000

var (
	ErrCount    = errors.New("frame count must be between 1 and 1000")
	ErrDuration = errors.New("duration must be > 0")
)

// UniformPositions returns count timestamps spread evenly over duration,
// excluding both ends: duration/(count+1)*i for i = 1..count.
// Every value lies strictly inside (0, duration).
func UniformPositions(duration float64, count int) ([]float64, error) {
	if count < 1 || count > MaxCount {
		return nil, fmt.Errorf("%w, got %d", ErrCount, count)
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return nil, fmt.Errorf("%w, got %v", ErrDuration, duration)
	}

	segment := duration / float64(count+1)
	out := make([]float64, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, segment*float64(i))
	}
	return out, nil
}

// FrameName is the deterministic file name for the i-th (1-based) sample.
func FrameName(i int, ext string) string {
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("frame_%d.%s", i, ext)
}
