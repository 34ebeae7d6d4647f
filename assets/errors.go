package assets

import "errors"

// Package errors.
var (
	// ErrEmptyName is returned when an asset has no name.
	ErrEmptyName = errors.New("assets: empty asset name")

	// ErrEmptySource is returned when an asset has no source data.
	ErrEmptySource = errors.New("assets: empty asset source")

	// ErrCompile wraps shader compilation failures.
	ErrCompile = errors.New("assets: shader compilation failed")

	// ErrDecode wraps image and font decoding failures.
	ErrDecode = errors.New("assets: decode failed")

	// ErrNotDecoded is returned by the mipmap task when decoding failed.
	ErrNotDecoded = errors.New("assets: source image not decoded")
)
