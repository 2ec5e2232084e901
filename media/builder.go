package media

import (
	"context"
	"fmt"
	"log"
)

// Builder orchestrates the size policy, transcoder, and storage backend to
// turn one uploaded image into a full derivative set.
type Builder struct {
	store  Store
	policy Policy
}

func NewBuilder(store Store, policy Policy) *Builder {
	return &Builder{store: store, policy: policy}
}

// Build produces {original, large, medium, thumb} for one source image.
// The original is persisted verbatim first; a failure on any resized tier
// aborts the whole build and no partial set is returned. The original, once
// written, is left in storage — it is a valid standalone artifact, and the
// cleanup job catches orphans.
func (b *Builder) Build(ctx context.Context, data []byte, filename, mimeType string) (DerivativeSet, error) {
	var set DerivativeSet

	if !IsAllowedMime(mimeType) {
		return set, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}

	// decode once; every tier decision reuses these pixels
	src, err := Decode(data)
	if err != nil {
		return set, err
	}
	bounds := src.Bounds()

	origPath := StoragePath(filename, TierOriginal)
	origURL, err := b.store.Put(ctx, origPath, data, mimeType, true)
	if err != nil {
		return set, fmt.Errorf("failed to persist original for %s: %w", filename, err)
	}
	set.Original = Derivative{
		Path:   origPath,
		URL:    origURL,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Size:   int64(len(data)),
	}

	for _, rule := range b.policy.Rules() {
		rendition, err := Transcode(src, mimeType, rule)
		if err != nil {
			return DerivativeSet{}, fmt.Errorf("failed to build %s tier for %s: %w", rule.Tier, filename, err)
		}
		if rendition == nil {
			log.Printf("media.builder: %s tier skipped for %s (source %dx%d already fits)",
				rule.Tier, filename, bounds.Dx(), bounds.Dy())
			continue
		}

		tierPath := StoragePath(filename, rule.Tier)
		url, err := b.store.Put(ctx, tierPath, rendition.Data, mimeType, true)
		if err != nil {
			return DerivativeSet{}, fmt.Errorf("failed to store %s tier for %s: %w", rule.Tier, filename, err)
		}

		set.set(rule.Tier, &Derivative{
			Path:   tierPath,
			URL:    url,
			Width:  rendition.Width,
			Height: rendition.Height,
			Size:   int64(len(rendition.Data)),
		})
	}

	log.Printf("media.builder: Built derivative set for %s (%dx%d, %d bytes)",
		filename, bounds.Dx(), bounds.Dy(), len(data))
	return set, nil
}

// Store exposes the backend the builder writes through, for callers that
// need to delete or probe what a build produced.
func (b *Builder) Store() Store {
	return b.store
}
