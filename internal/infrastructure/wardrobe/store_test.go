package wardrobe

import (
	"context"
	"testing"
	"time"

	"github.com/fashionassist/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItem(filename string) domain.WardrobeItem {
	return domain.WardrobeItem{
		Filename:   filename,
		ImagePath:  "data/wardrobe/" + filename,
		Category:   "jacket",
		Color:      "blue",
		Style:      "casual",
		Confidence: 0.85,
		UploadedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestListEmptyStore(t *testing.T) {
	store := NewStore(t.TempDir())

	items, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items, "missing catalog file should read as empty, not error")
}

func TestAddAndList(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, testItem("jacket.jpg")))
	require.NoError(t, store.Add(ctx, testItem("shirt.jpg")))

	items, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestAddDeduplicatesByFilename(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, testItem("jacket.jpg")))
	require.NoError(t, store.Add(ctx, testItem("jacket.jpg")))

	items, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestShoppingCatalogIsSeparate(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, testItem("jacket.jpg")))
	require.NoError(t, store.AddShopping(ctx, testItem("candidate.jpg")))

	wardrobeItems, err := store.List(ctx)
	require.NoError(t, err)
	shoppingItems, err := store.ListShopping(ctx)
	require.NoError(t, err)

	assert.Len(t, wardrobeItems, 1)
	assert.Len(t, shoppingItems, 1)
	assert.Equal(t, "candidate.jpg", shoppingItems[0].Filename)
}

func TestSummary(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	a := testItem("a.jpg")
	b := testItem("b.jpg")
	b.Category = "shirt"
	b.Color = "white"
	c := testItem("c.jpg")

	require.NoError(t, store.Add(ctx, a))
	require.NoError(t, store.Add(ctx, b))
	require.NoError(t, store.Add(ctx, c))

	summary, err := store.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalItems)
	assert.Equal(t, []string{"jacket", "shirt"}, summary.Categories)
	assert.Equal(t, []string{"blue", "white"}, summary.Colors)
}

func TestRoundTripPreservesFields(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	want := testItem("jacket.jpg")
	require.NoError(t, store.Add(ctx, want))

	items, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, want, items[0])
}
