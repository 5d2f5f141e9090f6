// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pointer builds the optional fields of partial updates, where nil
// means "leave unchanged".
package pointer

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}
