package wardrobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fashionassist/backend/internal/domain"
)

// Store persists garment catalogs as JSON files under a data directory.
// Read-modify-write with no locking: concurrent writers can clobber each
// other, an accepted limitation of this layer.
type Store struct {
	wardrobePath string
	shoppingPath string
}

// catalog is the on-disk shape shared by both files
type catalog struct {
	Items []domain.WardrobeItem `json:"items"`
}

// NewStore creates a store rooted at dataDir
func NewStore(dataDir string) *Store {
	return &Store{
		wardrobePath: filepath.Join(dataDir, "wardrobe_items.json"),
		shoppingPath: filepath.Join(dataDir, "shopping_items.json"),
	}
}

// List returns every catalogued wardrobe item
func (s *Store) List(ctx context.Context) ([]domain.WardrobeItem, error) {
	cat, err := readCatalog(s.wardrobePath)
	if err != nil {
		return nil, err
	}
	return cat.Items, nil
}

// Add appends a wardrobe item unless one with the same filename exists
func (s *Store) Add(ctx context.Context, item domain.WardrobeItem) error {
	return addTo(s.wardrobePath, item)
}

// AddShopping appends a shopping item unless one with the same filename exists
func (s *Store) AddShopping(ctx context.Context, item domain.WardrobeItem) error {
	return addTo(s.shoppingPath, item)
}

// ListShopping returns every catalogued shopping item
func (s *Store) ListShopping(ctx context.Context) ([]domain.WardrobeItem, error) {
	cat, err := readCatalog(s.shoppingPath)
	if err != nil {
		return nil, err
	}
	return cat.Items, nil
}

// Summary aggregates catalog statistics
func (s *Store) Summary(ctx context.Context) (*domain.WardrobeSummary, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	categories := make(map[string]bool)
	colors := make(map[string]bool)
	for _, item := range items {
		categories[item.Category] = true
		colors[item.Color] = true
	}

	return &domain.WardrobeSummary{
		TotalItems: len(items),
		Categories: sortedKeys(categories),
		Colors:     sortedKeys(colors),
	}, nil
}

func addTo(path string, item domain.WardrobeItem) error {
	cat, err := readCatalog(path)
	if err != nil {
		return err
	}

	for _, existing := range cat.Items {
		if existing.Filename == item.Filename {
			return nil
		}
	}

	cat.Items = append(cat.Items, item)
	return writeCatalog(path, cat)
}

func readCatalog(path string) (*catalog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &catalog{Items: []domain.WardrobeItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	var cat catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	if cat.Items == nil {
		cat.Items = []domain.WardrobeItem{}
	}
	return &cat, nil
}

func writeCatalog(path string, cat *catalog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating catalog dir: %w", err)
	}

	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing catalog %s: %w", path, err)
	}
	return nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
