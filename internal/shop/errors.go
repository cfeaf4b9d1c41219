// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package shop

import "errors"

// ErrNotFound is wrapped by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")
