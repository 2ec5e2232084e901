package media

import "math"

// ResizeStrategy selects how a tier's target dimensions are derived.
type ResizeStrategy string

const (
	// StrategyBoundingBox scales the source to fit inside MaxWidth x MaxHeight,
	// preserving aspect ratio. Sources already inside the box are declined
	// rather than upscaled.
	StrategyBoundingBox ResizeStrategy = "bounding-box"
	// StrategyShortSide scales the source so its shorter side equals
	// TargetShort. Sources with a shorter side at or below the target keep
	// their original dimensions; this strategy never declines a tier.
	StrategyShortSide ResizeStrategy = "short-side-scale"
)

// SizeRule describes one derivative tier's resize and encode settings.
type SizeRule struct {
	Tier        Tier
	Strategy    ResizeStrategy
	MaxWidth    int // bounding-box only
	MaxHeight   int // bounding-box only
	TargetShort int // short-side-scale only
	Quality     int // 0-100, lossy encoders only
}

// TargetSize computes the output dimensions for a source of origW x origH.
// ok is false when the rule declines the tier entirely. Aspect ratio is
// always preserved; rounding may make results differ from the nominal
// targets by a pixel.
func (r SizeRule) TargetSize(origW, origH int) (w, h int, ok bool) {
	if origW <= 0 || origH <= 0 {
		return 0, 0, false
	}

	switch r.Strategy {
	case StrategyBoundingBox:
		if origW <= r.MaxWidth && origH <= r.MaxHeight {
			return 0, 0, false
		}
		scale := math.Min(float64(r.MaxWidth)/float64(origW), float64(r.MaxHeight)/float64(origH))
		w = int(math.Round(float64(origW) * scale))
		h = int(math.Round(float64(origH) * scale))
	case StrategyShortSide:
		short := minInt(origW, origH)
		if short <= r.TargetShort || r.TargetShort <= 0 {
			return origW, origH, true
		}
		ratio := float64(r.TargetShort) / float64(short)
		w = int(math.Round(float64(origW) * ratio))
		h = int(math.Round(float64(origH) * ratio))
	default:
		// unknown strategy behaves as a pass-through, never an error
		return origW, origH, true
	}

	return maxInt(1, w), maxInt(1, h), true
}

// Policy is the static table of derivative tiers, kept in build order.
type Policy struct {
	rules []SizeRule
}

// PolicySettings carries the tunable numbers for NewPolicy. Zero values
// fall back to the defaults.
type PolicySettings struct {
	LargeBoxSize    int
	MediumShortSide int
	ThumbBoxSize    int
	LargeQuality    int
	MediumQuality   int
	ThumbQuality    int
}

const (
	defaultLargeBox    = 1920
	defaultMediumShort = 500
	defaultThumbBox    = 150
	defaultQuality     = 85
)

// NewPolicy builds the tier table. Large and thumb are bounding-box tiers
// and get skipped for sources already inside their boxes; medium is
// short-side-scale and is always produced, since "medium" is relied on
// elsewhere as the default preview size.
func NewPolicy(s PolicySettings) Policy {
	if s.LargeBoxSize <= 0 {
		s.LargeBoxSize = defaultLargeBox
	}
	if s.MediumShortSide <= 0 {
		s.MediumShortSide = defaultMediumShort
	}
	if s.ThumbBoxSize <= 0 {
		s.ThumbBoxSize = defaultThumbBox
	}
	if s.LargeQuality <= 0 {
		s.LargeQuality = defaultQuality
	}
	if s.MediumQuality <= 0 {
		s.MediumQuality = defaultQuality
	}
	if s.ThumbQuality <= 0 {
		s.ThumbQuality = defaultQuality
	}

	return Policy{rules: []SizeRule{
		{Tier: TierLarge, Strategy: StrategyBoundingBox, MaxWidth: s.LargeBoxSize, MaxHeight: s.LargeBoxSize, Quality: s.LargeQuality},
		{Tier: TierMedium, Strategy: StrategyShortSide, TargetShort: s.MediumShortSide, Quality: s.MediumQuality},
		{Tier: TierThumb, Strategy: StrategyBoundingBox, MaxWidth: s.ThumbBoxSize, MaxHeight: s.ThumbBoxSize, Quality: s.ThumbQuality},
	}}
}

// DefaultPolicy returns the standard storefront tier table.
func DefaultPolicy() Policy {
	return NewPolicy(PolicySettings{})
}

// Rules returns the tiers in build order (large, medium, thumb).
func (p Policy) Rules() []SizeRule {
	return p.rules
}

// Rule resolves a tier name to its rule. The lookup is total: names
// outside the table resolve to a pass-through rule so callers never see
// an "unknown tier" error.
func (p Policy) Rule(tier Tier) SizeRule {
	for _, r := range p.rules {
		if r.Tier == tier {
			return r
		}
	}
	return SizeRule{Tier: tier, Strategy: StrategyShortSide, Quality: defaultQuality}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
