package interaction

import (
	"runtime"
	"strings"
	"time"

	"github.com/matzehuels/particula/pkg/errors"
)

// Tier is a device performance class. It sets how often frames are sent to
// the detector and at what resolution.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// TierAuto asks ParseTier to pick a tier for the current machine.
const TierAuto = "auto"

// Interval is the minimum time between detector dispatches.
func (t Tier) Interval() time.Duration {
	switch t {
	case TierLow:
		return 150 * time.Millisecond
	case TierHigh:
		return 60 * time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}

// Resolution is the frame size handed to the detector.
func (t Tier) Resolution() (width, height int) {
	switch t {
	case TierLow:
		return 320, 240
	case TierHigh:
		return 640, 480
	default:
		return 480, 360
	}
}

func (t Tier) String() string { return string(t) }

// DetectTier classifies the machine by CPU count.
func DetectTier() Tier {
	return tierForCPUs(runtime.NumCPU())
}

func tierForCPUs(n int) Tier {
	switch {
	case n <= 2:
		return TierLow
	case n <= 4:
		return TierMedium
	default:
		return TierHigh
	}
}

// ParseTier parses a tier name. Empty and "auto" detect the tier.
func ParseTier(s string) (Tier, error) {
	switch t := strings.ToLower(strings.TrimSpace(s)); t {
	case "", TierAuto:
		return DetectTier(), nil
	case string(TierLow), string(TierMedium), string(TierHigh):
		return Tier(t), nil
	default:
		return "", errors.New(errors.ErrCodeInvalidConfig, "unknown device tier %q (want low, medium, high or auto)", s)
	}
}
