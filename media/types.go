// media/types.go
package media

import "path"

// Tier names one derivative resolution of an image. The original is a tier
// too: it is persisted verbatim and never resized.
type Tier string

const (
	TierOriginal Tier = "original"
	TierLarge    Tier = "large"
	TierMedium   Tier = "medium"
	TierThumb    Tier = "thumb"
)

// DerivativeTiers lists the resized tiers in build order.
var DerivativeTiers = []Tier{TierLarge, TierMedium, TierThumb}

// AllTiers lists every storage subdirectory, original first.
var AllTiers = []Tier{TierOriginal, TierLarge, TierMedium, TierThumb}

// Derivative is one stored rendition of an image.
type Derivative struct {
	Path   string `json:"path"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

// DerivativeSet is the complete output of one build. Original is always
// present; a resized tier is nil when its rule declined the source
// (bounding-box on an image already inside the box).
type DerivativeSet struct {
	Original Derivative  `json:"original"`
	Large    *Derivative `json:"large,omitempty"`
	Medium   *Derivative `json:"medium,omitempty"`
	Thumb    *Derivative `json:"thumb,omitempty"`
}

// Get returns the entry for a resized tier, or nil when it was omitted.
func (s *DerivativeSet) Get(tier Tier) *Derivative {
	switch tier {
	case TierOriginal:
		return &s.Original
	case TierLarge:
		return s.Large
	case TierMedium:
		return s.Medium
	case TierThumb:
		return s.Thumb
	}
	return nil
}

func (s *DerivativeSet) set(tier Tier, d *Derivative) {
	switch tier {
	case TierLarge:
		s.Large = d
	case TierMedium:
		s.Medium = d
	case TierThumb:
		s.Thumb = d
	}
}

// StoragePath returns the canonical storage path for a tier of the given
// base filename. Derivatives live under a tier directory and carry a tier
// suffix in the name, so a full set is reconstructible from the base
// filename alone.
func StoragePath(filename string, tier Tier) string {
	if tier == TierOriginal {
		return path.Join(string(TierOriginal), filename)
	}
	ext := path.Ext(filename)
	stem := filename[:len(filename)-len(ext)]
	return path.Join(string(tier), stem+"-"+string(tier)+ext)
}
