//go:build linux

package archive

import (
	"os"
	"syscall"
	"time"
)

// accessTime extracts the access timestamp from a stat result. Falls back to
// the modification time if the platform data isn't in the expected shape.
func accessTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Atim.Sec, st.Atim.Nsec)
	}
	return info.ModTime()
}
