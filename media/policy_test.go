package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetSizeBoundingBox(t *testing.T) {
	tests := []struct {
		name         string
		rule         SizeRule
		origW, origH int
		wantW, wantH int
		wantOK       bool
	}{
		{"landscape shrinks to box", SizeRule{Strategy: StrategyBoundingBox, MaxWidth: 1920, MaxHeight: 1920}, 2000, 1000, 1920, 960, true},
		{"thumb box", SizeRule{Strategy: StrategyBoundingBox, MaxWidth: 150, MaxHeight: 150}, 2000, 1000, 150, 75, true},
		{"portrait shrinks to box", SizeRule{Strategy: StrategyBoundingBox, MaxWidth: 150, MaxHeight: 150}, 1000, 2000, 75, 150, true},
		{"already inside box is declined", SizeRule{Strategy: StrategyBoundingBox, MaxWidth: 1920, MaxHeight: 1920}, 100, 100, 0, 0, false},
		{"exactly box-sized is declined", SizeRule{Strategy: StrategyBoundingBox, MaxWidth: 150, MaxHeight: 150}, 150, 150, 0, 0, false},
		{"one side over still resizes", SizeRule{Strategy: StrategyBoundingBox, MaxWidth: 150, MaxHeight: 150}, 300, 100, 150, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, ok := tt.rule.TargetSize(tt.origW, tt.origH)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantW, w)
				assert.Equal(t, tt.wantH, h)
				assert.LessOrEqual(t, w, tt.rule.MaxWidth)
				assert.LessOrEqual(t, h, tt.rule.MaxHeight)
			}
		})
	}
}

func TestTargetSizeShortSide(t *testing.T) {
	rule := SizeRule{Strategy: StrategyShortSide, TargetShort: 500}

	w, h, ok := rule.TargetSize(2000, 1000)
	assert.True(t, ok)
	assert.Equal(t, 1000, w)
	assert.Equal(t, 500, h)

	// never upscales: a small source keeps its dimensions but is still produced
	w, h, ok = rule.TargetSize(100, 100)
	assert.True(t, ok)
	assert.Equal(t, 100, w)
	assert.Equal(t, 100, h)

	// short side exactly at target keeps original dimensions
	w, h, ok = rule.TargetSize(800, 500)
	assert.True(t, ok)
	assert.Equal(t, 800, w)
	assert.Equal(t, 500, h)
}

func TestTargetSizeRejectsDegenerateSource(t *testing.T) {
	rule := SizeRule{Strategy: StrategyShortSide, TargetShort: 500}
	_, _, ok := rule.TargetSize(0, 100)
	assert.False(t, ok)
}

func TestPolicyRuleLookupIsTotal(t *testing.T) {
	policy := DefaultPolicy()

	assert.Equal(t, StrategyBoundingBox, policy.Rule(TierLarge).Strategy)
	assert.Equal(t, StrategyShortSide, policy.Rule(TierMedium).Strategy)
	assert.Equal(t, StrategyBoundingBox, policy.Rule(TierThumb).Strategy)

	// unknown tier names resolve to a pass-through rule, never an error
	unknown := policy.Rule(Tier("banner"))
	w, h, ok := unknown.TargetSize(640, 480)
	assert.True(t, ok)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestPolicyRuleOrder(t *testing.T) {
	rules := DefaultPolicy().Rules()
	assert.Len(t, rules, 3)
	assert.Equal(t, TierLarge, rules[0].Tier)
	assert.Equal(t, TierMedium, rules[1].Tier)
	assert.Equal(t, TierThumb, rules[2].Tier)
}

func TestStoragePath(t *testing.T) {
	assert.Equal(t, "original/abc.jpg", StoragePath("abc.jpg", TierOriginal))
	assert.Equal(t, "large/abc-large.jpg", StoragePath("abc.jpg", TierLarge))
	assert.Equal(t, "medium/abc-medium.png", StoragePath("abc.png", TierMedium))
	assert.Equal(t, "thumb/abc-thumb.webp", StoragePath("abc.webp", TierThumb))
}
