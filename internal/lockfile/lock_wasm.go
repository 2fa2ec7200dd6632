//go:build js && wasm

package lockfile

import "os"

// WASM doesn't support file locking; a WASM environment is typically
// single-process anyway, so these are no-ops.

func flockExclusiveBlocking(f *os.File) error { return nil }

func flockExclusiveNonBlocking(f *os.File) error { return nil }

func flockUnlock(f *os.File) error { return nil }
