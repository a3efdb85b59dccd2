/* Copyright (c) 2026 Aashritha Bandaru <https://github.com/aashritha987>
 * SPDX-License-Identifier: BSD-3-Clause */

package state

// The two reconciliation strategies for server-authoritative objects.
//
// ReplaceOrDrop serves the domain collections: an update for an id not held
// locally is dropped, because the next full refresh will include it anyway.
// ReplaceOrAppend serves chat messages: a pushed message with no local entry
// is appended in arrival position, since message order must reflect live
// arrival even when the initial load has not caught up.
//
// Both are idempotent: applying the same object twice leaves the slice
// unchanged the second time.

func ReplaceOrDrop[T any](list []T, id func(T) string, v T) []T {
	for i := range list {
		if id(list[i]) == id(v) {
			list[i] = v
			break
		}
	}
	return list
}

func ReplaceOrAppend[T any](list []T, id func(T) string, v T) []T {
	for i := range list {
		if id(list[i]) == id(v) {
			list[i] = v
			return list
		}
	}
	return append(list, v)
}
