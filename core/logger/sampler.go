package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratioSampler lets num out of every den events through. A zero ratio
// disables sampling.
type ratioSampler struct {
	ratio atomic.Uint64 // num<<32 | den
	seen  atomic.Uint64
}

func newRatioSampler(num, den int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(num, den)
	return s
}

// Set replaces the ratio and restarts the cycle.
func (s *ratioSampler) Set(num, den int) {
	if num <= 0 || den <= 0 {
		num, den = 0, 0
	}
	if num > den {
		num = den
	}
	s.ratio.Store(uint64(num)<<32 | uint64(uint32(den)))
	s.seen.Store(0)
}

// Allow reports whether the next event passes.
func (s *ratioSampler) Allow() bool {
	r := s.ratio.Load()
	num, den := r>>32, r&0xffffffff
	if num == 0 || den == 0 {
		return true
	}
	return (s.seen.Add(1)-1)%den < num
}

// parseRatioSpec accepts "n/d" or a bare "d" meaning 1/d.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if a, b, ok := strings.Cut(spec, "/"); ok {
		num, err1 := strconv.Atoi(strings.TrimSpace(a))
		den, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 == nil && err2 == nil {
			return num, den
		}
		return 0, 0
	}
	if d, err := strconv.Atoi(spec); err == nil && d > 0 {
		return 1, d
	}
	return 0, 0
}
