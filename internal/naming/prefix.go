// Package naming builds output filenames for staged entries: the date/name
// prefix, base/extension splitting, and collision resolution for archive
// member paths.
package naming

import (
	"fmt"
	"strings"

	"github.com/namerapp/namer/internal/domain"
)

// Prefix builds the filename prefix for one entry. Segments are appended in
// a fixed order, each followed by a '_' separator:
//
//  1. the trimmed receiver name, if non-empty
//  2. always year and zero-padded month
//  3. the zero-padded day, if enabled
//  4. the trimmed sender name, if enabled and non-empty
//
// A receiver or sender consisting only of whitespace is treated as absent.
// With everything optional disabled the result reduces to "YYYY_MM_".
func Prefix(cfg domain.PrefixConfig, receiver string) string {
	var b strings.Builder

	if r := strings.TrimSpace(receiver); r != "" {
		b.WriteString(r)
		b.WriteByte('_')
	}

	fmt.Fprintf(&b, "%04d_%02d_", cfg.Year, cfg.Month)

	if cfg.IncludeDay {
		fmt.Fprintf(&b, "%02d_", cfg.Day)
	}

	if cfg.IncludeSender {
		if s := strings.TrimSpace(cfg.SenderName); s != "" {
			b.WriteString(s)
			b.WriteByte('_')
		}
	}

	return b.String()
}

// SplitName splits a filename into base and extension. The extension runs
// from the last '.' to the end, dot included; a name without a dot has an
// empty extension.
func SplitName(filename string) (base, ext string) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return filename, ""
	}
	return filename[:idx], filename[idx:]
}

// FinalName computes the output filename for an entry under the given
// prefix configuration. It is a pure function of its inputs; callers
// recompute it per use rather than caching it.
func FinalName(cfg domain.PrefixConfig, e *domain.FileEntry) string {
	return Prefix(cfg, e.ReceiverName) + e.NewBaseName + e.Extension
}

// ArchiveName returns the download filename for a multi-file archive. The
// embedded prefix is built without a receiver name.
func ArchiveName(cfg domain.PrefixConfig) string {
	return "namer_" + Prefix(cfg, "") + "files.zip"
}
