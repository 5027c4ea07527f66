package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

type fakeEmbedder struct{}

// Embed returns a tiny deterministic vector so document/query embeddings
// are stable across runs without calling a real embeddings API.
func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	return []float32{sum, sum / 2, 1}, nil
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(t.TempDir(), fakeEmbedder{})
	require.NoError(t, err)
	return store
}

func TestSaveAndListAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	uid, err := store.Save(ctx, Precedent{
		Objective: "translate the japanese text in an image",
		InputType: workflow.ImageFile,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, uid)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, uid, all[0].UID)
}

func TestDeleteRemovesFromIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	uid, err := store.Save(ctx, Precedent{Objective: "erase the watermark"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, []string{uid}))

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSearchReturnsSavedPrecedent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	uid, err := store.Save(ctx, Precedent{Objective: "ocr then translate"})
	require.NoError(t, err)

	matches, err := store.Search(ctx, "ocr then translate", 3)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, uid, matches[0].Precedent.UID)
}
