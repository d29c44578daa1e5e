package options

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	DefaultMaxNodeChildNumber = 16
	DefaultMaxNodeMsgCount    = 64
	DefaultMaxNodePageSize    = 4 << 20
	DefaultCacheLimitedMemory = 128 << 20
	DefaultBlockCacheSize     = 32 << 20
)

var ErrNoComparator = errors.New("options: a comparator must be supplied")

// Options is the engine-wide configuration consumed by the node layer.
type Options struct {
	// Comparator orders keys. When nil, Normalize resolves ComparatorName.
	Comparator     Comparator `json:"-"`
	ComparatorName string     `json:"comparator"`

	MaxNodeChildNumber int    `json:"max_node_child_number"`
	MaxNodeMsgCount    int    `json:"max_node_msg_count"`
	MaxNodePageSize    int64  `json:"max_node_page_size"`
	CacheLimitedMemory uint64 `json:"cache_limited_memory"`

	// BlockCacheSize bounds the ristretto block cache in bytes; 0 disables it.
	BlockCacheSize int64 `json:"block_cache_size"`

	// DeferPushDown leaves overflowing internal buffers in place until a later
	// write traversal drains them.
	DeferPushDown bool `json:"defer_push_down"`

	// FlushIntervalMS drives the background flusher; 0 disables it.
	FlushIntervalMS int `json:"flush_interval_ms"`

	Logger *zap.Logger `json:"-"`
}

func Default() Options {
	return Options{
		MaxNodeChildNumber: DefaultMaxNodeChildNumber,
		MaxNodeMsgCount:    DefaultMaxNodeMsgCount,
		MaxNodePageSize:    DefaultMaxNodePageSize,
		CacheLimitedMemory: DefaultCacheLimitedMemory,
		BlockCacheSize:     DefaultBlockCacheSize,
	}
}

// Normalize fills unset (zero) fields with defaults and resolves the
// comparator by name when only the name is set. Out-of-range values are
// left for Validate to reject.
func (o *Options) Normalize() error {
	d := Default()

	if o.MaxNodeChildNumber == 0 {
		o.MaxNodeChildNumber = d.MaxNodeChildNumber
	}
	if o.MaxNodeMsgCount == 0 {
		o.MaxNodeMsgCount = d.MaxNodeMsgCount
	}
	if o.MaxNodePageSize == 0 {
		o.MaxNodePageSize = d.MaxNodePageSize
	}
	if o.CacheLimitedMemory == 0 {
		o.CacheLimitedMemory = d.CacheLimitedMemory
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	if o.Comparator == nil && o.ComparatorName != "" {
		cmp, err := LookupComparator(o.ComparatorName)
		if err != nil {
			return err
		}
		o.Comparator = cmp
	}
	if o.Comparator != nil {
		o.ComparatorName = o.Comparator.Name()
	}
	return nil
}

func (o *Options) Validate() error {
	if o.Comparator == nil {
		return ErrNoComparator
	}
	if o.MaxNodeChildNumber < 2 {
		return errors.Newf("options: max_node_child_number must be >= 2, got %d", o.MaxNodeChildNumber)
	}
	if o.MaxNodeMsgCount < 1 {
		return errors.Newf("options: max_node_msg_count must be >= 1, got %d", o.MaxNodeMsgCount)
	}
	if o.MaxNodePageSize <= 0 {
		return errors.Newf("options: max_node_page_size must be > 0, got %d", o.MaxNodePageSize)
	}
	if o.BlockCacheSize < 0 {
		return errors.Newf("options: block_cache_size must be >= 0, got %d", o.BlockCacheSize)
	}
	if o.FlushIntervalMS < 0 {
		return errors.Newf("options: flush_interval_ms must be >= 0, got %d", o.FlushIntervalMS)
	}
	return nil
}

func (o *Options) FlushInterval() time.Duration {
	return time.Duration(o.FlushIntervalMS) * time.Millisecond
}

// Load reads a JSON config on top of Default. A missing file yields the
// defaults; a malformed one is an error.
func Load(path string) (Options, error) {
	opts := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, opts.Normalize()
		}
		return opts, errors.Wrapf(err, "options: read %s", path)
	}

	if err := json.Unmarshal(b, &opts); err != nil {
		return Default(), errors.Wrapf(err, "options: parse %s", path)
	}

	return opts, opts.Normalize()
}
