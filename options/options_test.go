package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reverseComparator struct{}

func (reverseComparator) Compare(a, b []byte) int { return -BytewiseComparator{}.Compare(a, b) }
func (reverseComparator) Name() string            { return "test.reverse" }

func TestDefaultsRequireComparator(t *testing.T) {
	opts := Default()
	require.NoError(t, opts.Normalize())

	assert.Equal(t, 16, opts.MaxNodeChildNumber)
	assert.Equal(t, 64, opts.MaxNodeMsgCount)
	assert.NotNil(t, opts.Logger)
	assert.ErrorIs(t, opts.Validate(), ErrNoComparator)

	opts.Comparator = BytewiseComparator{}
	assert.NoError(t, opts.Validate())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(path, []byte(`{"comparator":"bytewise","max_node_child_number":4,"defer_push_down":true}`), 0644)
	require.NoError(t, err)

	opts, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, opts.MaxNodeChildNumber)
	assert.Equal(t, DefaultMaxNodeMsgCount, opts.MaxNodeMsgCount)
	assert.True(t, opts.DeferPushDown)
	assert.Equal(t, "bytewise", opts.Comparator.Name())
	assert.NoError(t, opts.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	opts, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxNodePageSize, int(opts.MaxNodePageSize))
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeFillsOnlyUnsetFields(t *testing.T) {
	opts := Options{Comparator: BytewiseComparator{}, MaxNodeMsgCount: 8}
	require.NoError(t, opts.Normalize())

	assert.Equal(t, DefaultMaxNodeChildNumber, opts.MaxNodeChildNumber)
	assert.Equal(t, 8, opts.MaxNodeMsgCount)
	assert.Equal(t, int64(DefaultMaxNodePageSize), opts.MaxNodePageSize)
	assert.NoError(t, opts.Validate())
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name  string
		tweak func(o *Options)
		field string
	}{
		{"child number", func(o *Options) { o.MaxNodeChildNumber = 1 }, "max_node_child_number"},
		{"msg count", func(o *Options) { o.MaxNodeMsgCount = -3 }, "max_node_msg_count"},
		{"page size", func(o *Options) { o.MaxNodePageSize = -1 }, "max_node_page_size"},
		{"block cache", func(o *Options) { o.BlockCacheSize = -1 }, "block_cache_size"},
		{"flush interval", func(o *Options) { o.FlushIntervalMS = -5 }, "flush_interval_ms"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := Default()
			opts.Comparator = BytewiseComparator{}
			tc.tweak(&opts)
			require.NoError(t, opts.Normalize())
			assert.ErrorContains(t, opts.Validate(), tc.field)
		})
	}
}

func TestComparatorRegistry(t *testing.T) {
	_, err := LookupComparator("test.reverse")
	assert.ErrorIs(t, err, ErrUnknownComparator)

	RegisterComparator(reverseComparator{})
	cmp, err := LookupComparator("test.reverse")
	require.NoError(t, err)
	assert.Equal(t, 1, cmp.Compare([]byte("a"), []byte("b")))

	opts := Options{ComparatorName: "test.reverse"}
	require.NoError(t, opts.Normalize())
	assert.Equal(t, "test.reverse", opts.Comparator.Name())
}
