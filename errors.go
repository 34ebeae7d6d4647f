// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package frameflow

import "errors"

// ErrInvalidConfig is returned by LoadConfig for files with unknown keys or
// out-of-range values.
var ErrInvalidConfig = errors.New("frameflow: invalid config")
