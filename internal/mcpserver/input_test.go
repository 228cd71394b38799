package mcpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erraggy/aptos/document"
	"github.com/erraggy/aptos/internal/config"
)

func TestSchemaInput_Check(t *testing.T) {
	tests := []struct {
		name    string
		input   schemaInput
		wantErr string
	}{
		{name: "file", input: schemaInput{File: "pet.json"}},
		{name: "content", input: schemaInput{Content: "{}"}},
		{name: "url", input: schemaInput{URL: "https://example.com/pet.json"}},
		{name: "none", input: schemaInput{}, wantErr: "exactly one of file, url, or content must be provided (got 0)"},
		{name: "two", input: schemaInput{File: "a", Content: "b"}, wantErr: "(got 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.check()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadContent(t *testing.T) {
	ts := newTestToolset(t)
	doc, err := ts.load(context.Background(), schemaInput{Content: petSchema})
	require.NoError(t, err)
	_, ok := doc.raw.(*document.Map)
	assert.True(t, ok)
	assert.Equal(t, ".", doc.baseDir)
	assert.Empty(t, doc.docName)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pet.json")
	require.NoError(t, os.WriteFile(path, []byte(petSchema), 0o600))

	ts := newTestToolset(t)
	doc, err := ts.load(context.Background(), schemaInput{File: path})
	require.NoError(t, err)
	assert.Equal(t, dir, doc.baseDir)
	assert.Equal(t, "pet.json", doc.docName)

	_, err = ts.load(context.Background(), schemaInput{File: filepath.Join(dir, "missing.json")})
	assert.Error(t, err)
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(petSchema))
	}))
	defer srv.Close()

	ts := newTestToolset(t)
	doc, err := ts.load(context.Background(), schemaInput{URL: srv.URL + "/pet.json"})
	require.NoError(t, err)
	_, ok := doc.raw.(*document.Map)
	assert.True(t, ok)

	blocked := newTestToolset(t, func(c *config.Config) { c.MCP.BlockPrivate = true })
	_, err = blocked.load(context.Background(), schemaInput{URL: srv.URL + "/other.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestDocCache_HitOnSameFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pet.json")
	require.NoError(t, os.WriteFile(path, []byte(petSchema), 0o600))

	ts := newTestToolset(t)
	doc1, err := ts.load(context.Background(), schemaInput{File: path})
	require.NoError(t, err)
	assert.Equal(t, 1, ts.cache.size())

	doc2, err := ts.load(context.Background(), schemaInput{File: path})
	require.NoError(t, err)
	assert.Same(t, doc1, doc2, "expected same pointer from cache hit")
}

func TestDocCache_MissOnModifiedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pet.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": "string"}`), 0o600))

	ts := newTestToolset(t)
	doc1, err := ts.load(context.Background(), schemaInput{File: path})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"type": "integer"}`), 0o600))
	// Ensure mtime differs from the first write on coarse-grained filesystems.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	doc2, err := ts.load(context.Background(), schemaInput{File: path})
	require.NoError(t, err)
	assert.NotSame(t, doc1, doc2)
	typ, _ := doc2.raw.(*document.Map).Get("type")
	assert.Equal(t, "integer", typ)
}

func TestDocCache_ContentHash(t *testing.T) {
	ts := newTestToolset(t)
	doc1, err := ts.load(context.Background(), schemaInput{Content: petSchema})
	require.NoError(t, err)
	doc2, err := ts.load(context.Background(), schemaInput{Content: petSchema})
	require.NoError(t, err)
	assert.Same(t, doc1, doc2)
}

func TestDocCache_Disabled(t *testing.T) {
	ts := newTestToolset(t, func(c *config.Config) { c.MCP.CacheEnabled = false })
	doc1, err := ts.load(context.Background(), schemaInput{Content: petSchema})
	require.NoError(t, err)
	doc2, err := ts.load(context.Background(), schemaInput{Content: petSchema})
	require.NoError(t, err)
	assert.NotSame(t, doc1, doc2)
}

func TestDocCache_LRUEviction(t *testing.T) {
	ts := newTestToolset(t, func(c *config.Config) { c.MCP.CacheMaxSize = 3 })

	var firstKey string
	for i := range 4 {
		input := schemaInput{Content: `{"title": "T` + strconv.Itoa(i) + `"}`}
		if i == 0 {
			firstKey = input.cacheKey()
		}
		_, err := ts.load(context.Background(), input)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, ts.cache.size())
	assert.Nil(t, ts.cache.get(firstKey), "expected oldest entry to be evicted")
}

func TestDocCache_Expiry(t *testing.T) {
	c := newDocCache(5, time.Millisecond)
	c.put("a", &loadedDoc{})
	c.put("b", &loadedDoc{})
	time.Sleep(5 * time.Millisecond)

	assert.Nil(t, c.get("a"))
	assert.Equal(t, 1, c.size())
	c.sweep()
	assert.Equal(t, 0, c.size())
}

func TestDocCache_Sweeper(t *testing.T) {
	c := newDocCache(5, time.Millisecond)
	c.put("a", &loadedDoc{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.startSweeper(ctx, 5*time.Millisecond)
	c.startSweeper(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return c.size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestCompilePointer(t *testing.T) {
	ts := newTestToolset(t)
	s, err := ts.compile(context.Background(), schemaInput{Content: petSchema}, "/definitions/Pet")
	require.NoError(t, err)
	assert.Equal(t, "Pet", s.Graph.Name(s.Root))

	_, err = ts.compile(context.Background(), schemaInput{Content: petSchema}, "/definitions/Missing")
	assert.Error(t, err)
}
