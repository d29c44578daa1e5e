package betree

import "github.com/cockroachdb/errors"

var (
	ErrEmptyKey           = errors.New("betree: empty key")
	ErrKeyTooLarge        = errors.New("betree: key too large")
	ErrValueTooLarge      = errors.New("betree: value too large")
	ErrClosed             = errors.New("betree: tree is closed")
	ErrCorruptBlock       = errors.New("betree: corrupt node block")
	ErrBadMeta            = errors.New("betree: bad meta page")
	ErrComparatorMismatch = errors.New("betree: comparator does not match the one the tree was built with")
)

func checkKey(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	if len(key) > MaxKeyLen {
		return errors.Wrapf(ErrKeyTooLarge, "%d bytes (max: %d)", len(key), MaxKeyLen)
	}
	return nil
}

func checkValue(value []byte) error {
	if len(value) > MaxValLen {
		return errors.Wrapf(ErrValueTooLarge, "%d bytes (max: %d)", len(value), MaxValLen)
	}
	return nil
}
