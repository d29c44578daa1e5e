package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"FractalDB/betree"
	"FractalDB/options"
	"FractalDB/pager"
)

func newTestApp(t *testing.T) (*betree.BufferTree, func(method, target, body string) (int, string)) {
	opts := options.Default()
	opts.Comparator = options.BytewiseComparator{}
	opts.MaxNodeChildNumber = 4
	opts.MaxNodeMsgCount = 4
	tree, err := betree.Open(pager.NewInMemoryPager(), &opts)
	require.NoError(t, err)
	t.Cleanup(func() { tree.Close() })

	app := New(tree, zaptest.NewLogger(t))
	do := func(method, target, body string) (int, string) {
		t.Helper()
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		resp, err := app.Test(httptest.NewRequest(method, target, r))
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(b)
	}
	return tree, do
}

func TestKeyValueRoutes(t *testing.T) {
	_, do := newTestApp(t)

	status, _ := do(http.MethodGet, "/kv/alpha", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(http.MethodPut, "/kv/alpha", "first")
	assert.Equal(t, http.StatusOK, status)
	status, body := do(http.MethodGet, "/kv/alpha", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "first", body)

	status, _ = do(http.MethodPut, "/kv/alpha", "second")
	assert.Equal(t, http.StatusOK, status)
	_, body = do(http.MethodGet, "/kv/alpha", "")
	assert.Equal(t, "second", body)

	status, _ = do(http.MethodDelete, "/kv/alpha", "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(http.MethodGet, "/kv/alpha", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEscapedKeys(t *testing.T) {
	_, do := newTestApp(t)

	status, _ := do(http.MethodPut, "/kv/user%2F42", "bob")
	require.Equal(t, http.StatusOK, status)
	_, body := do(http.MethodGet, "/kv/user%2F42", "")
	assert.Equal(t, "bob", body)
}

func TestStatsAndFlush(t *testing.T) {
	tree, do := newTestApp(t)
	for _, k := range []string{"a", "b", "c", "d", "e", "f"} {
		status, _ := do(http.MethodPut, "/kv/"+k, "v")
		require.Equal(t, http.StatusOK, status)
	}

	status, _ := do(http.MethodPost, "/flush", "")
	assert.Equal(t, http.StatusOK, status)

	status, body := do(http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, status)
	var got struct {
		ID    string       `json:"id"`
		Stats betree.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, tree.ID().String(), got.ID)
	assert.Equal(t, uint64(6), got.Stats.Puts)
	assert.Equal(t, uint64(1), got.Stats.RootSplits)
	assert.NotZero(t, got.Stats.WriteBacks)
}

func TestClosedTreeIsUnavailable(t *testing.T) {
	tree, do := newTestApp(t)
	require.NoError(t, tree.Close())

	status, _ := do(http.MethodGet, "/kv/alpha", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}
