package launcher

import (
	"math/rand/v2"
	"strings"

	"github.com/rejot-dev/evalrun/internal/env"
)

const (
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffixLength   = 8
)

// RandomSource returns a uniformly distributed int in [0, n).
type RandomSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

// DefaultRandom returns the process-wide random source, seeded by the
// runtime.
func DefaultRandom() RandomSource {
	return globalRand{}
}

// NewRunIdentity returns "{user}-{name}-{suffix}" where user comes from
// $USER (or "test"), underscores in name become hyphens and suffix is eight
// random lowercase letters or digits.
func NewRunIdentity(src env.Source, r RandomSource, name string) string {
	user := env.String(src, EnvUser, defaultUser)

	var suffix strings.Builder
	suffix.Grow(suffixLength)
	for range suffixLength {
		suffix.WriteByte(suffixAlphabet[r.IntN(len(suffixAlphabet))])
	}

	return user + "-" + strings.ReplaceAll(name, "_", "-") + "-" + suffix.String()
}
