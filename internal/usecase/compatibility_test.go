package usecase

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/fashionassist/backend/internal/domain"
)

func TestCompatibilityScore(t *testing.T) {
	encoder := &fakeEncoder{images: map[string][]float32{
		"jacket.jpg": {1, 0, 0, 0},
		"jeans.jpg":  {0.6, 0.8, 0, 0},
	}}
	service := NewCompatibilityService(NewClassifier(encoder, ClassifierConfig{}))
	ctx := context.Background()

	t.Run("identical garments score 1.0", func(t *testing.T) {
		score := service.Score(ctx, "jacket.jpg", "jacket.jpg")
		if math.Abs(score-1.0) > 1e-9 {
			t.Errorf("Score = %v, want 1.0", score)
		}
	})

	t.Run("identical file contents at different paths score 1.0", func(t *testing.T) {
		// The encoder is deterministic over content, so byte-identical
		// copies embed to the same vector
		enc := &fakeEncoder{images: map[string][]float32{
			"copy1.jpg": {0.6, 0.8, 0, 0},
			"copy2.jpg": {0.6, 0.8, 0, 0},
		}}
		svc := NewCompatibilityService(NewClassifier(enc, ClassifierConfig{}))

		score := svc.Score(ctx, "copy1.jpg", "copy2.jpg")
		if score < 0.99 {
			t.Errorf("Score = %v, want >= 0.99", score)
		}
	})

	t.Run("different garments score their cosine similarity", func(t *testing.T) {
		score := service.Score(ctx, "jacket.jpg", "jeans.jpg")
		if math.Abs(score-0.6) > 1e-6 {
			t.Errorf("Score = %v, want 0.6", score)
		}
	})
}

func TestScoreAgainstWardrobe(t *testing.T) {
	encoder := &fakeEncoder{
		images: map[string][]float32{
			"candidate.jpg":          {1, 0, 0, 0},
			"wardrobe/close.jpg":     {0.9, 0.43589, 0, 0},
			"wardrobe/unrelated.jpg": {0, 0, 1, 0},
		},
		failImages: map[string]bool{"wardrobe/broken.jpg": true},
	}
	service := NewCompatibilityService(NewClassifier(encoder, ClassifierConfig{}))
	ctx := context.Background()

	items := []domain.WardrobeItem{
		{Filename: "unrelated.jpg", ImagePath: "wardrobe/unrelated.jpg"},
		{Filename: "broken.jpg", ImagePath: "wardrobe/broken.jpg"},
		{Filename: "close.jpg", ImagePath: "wardrobe/close.jpg"},
	}

	matches := service.ScoreAgainstWardrobe(ctx, "candidate.jpg", items)

	t.Run("every item appears", func(t *testing.T) {
		if len(matches) != len(items) {
			t.Fatalf("len(matches) = %d, want %d", len(matches), len(items))
		}
	})

	t.Run("sorted by score descending", func(t *testing.T) {
		if !sort.SliceIsSorted(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score }) {
			t.Errorf("matches not sorted: %+v", matches)
		}
		if matches[0].Item.Filename != "close.jpg" {
			t.Errorf("matches[0] = %q, want close.jpg", matches[0].Item.Filename)
		}
	})

	t.Run("unreadable item scores zero instead of erroring", func(t *testing.T) {
		for _, m := range matches {
			if m.Item.Filename == "broken.jpg" && m.Score != 0 {
				t.Errorf("broken item score = %v, want 0", m.Score)
			}
		}
	})

	t.Run("empty wardrobe yields empty matches", func(t *testing.T) {
		if got := service.ScoreAgainstWardrobe(ctx, "candidate.jpg", nil); len(got) != 0 {
			t.Errorf("len = %d, want 0", len(got))
		}
	})
}
