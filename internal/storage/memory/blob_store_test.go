package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	uri, err := store.PutObject(context.Background(), "pages/example.com/abc.html", "text/html", bytes.NewReader([]byte("content")))
	require.NoError(t, err)
	require.Equal(t, "memory://pages/example.com/abc.html", uri)

	stored, ok := store.Object("pages/example.com/abc.html")
	require.True(t, ok)
	stored[0] = 'C'
	again, _ := store.Object("pages/example.com/abc.html")
	require.Equal(t, "content", string(again))

	_, ok = store.Object("missing")
	require.False(t, ok)
}

func TestBlobStoreRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := NewBlobStore().PutObject(context.Background(), "", "text/html", bytes.NewReader(nil))
	require.Error(t, err)
}
