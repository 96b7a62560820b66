package usecase

import (
	"context"
	"sort"

	"github.com/fashionassist/backend/internal/domain"
)

// CompatibilityService scores how well two garments go together using
// embedding similarity. It inherits the classifier's failure posture:
// unreadable images score 0.0 instead of erroring.
type CompatibilityService struct {
	classifier *Classifier
}

// NewCompatibilityService creates a compatibility service
func NewCompatibilityService(classifier *Classifier) *CompatibilityService {
	return &CompatibilityService{classifier: classifier}
}

// Score returns the compatibility of two garment images in [0, 1].
func (s *CompatibilityService) Score(ctx context.Context, pathA, pathB string) float64 {
	return s.classifier.Similarity(ctx, pathA, pathB)
}

// ScoreAgainstWardrobe scores one candidate image against every wardrobe
// item, sorted by score descending. Items whose image cannot be read still
// appear, scored 0.0, so the caller sees the whole wardrobe.
func (s *CompatibilityService) ScoreAgainstWardrobe(ctx context.Context, imagePath string, items []domain.WardrobeItem) []domain.WardrobeMatch {
	matches := make([]domain.WardrobeMatch, len(items))
	for i, item := range items {
		matches[i] = domain.WardrobeMatch{
			Item:  item,
			Score: s.classifier.Similarity(ctx, imagePath, item.ImagePath),
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
