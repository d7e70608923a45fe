// Package pathutil implements spec.md's path-cleaning primitive
// (Testable Property 7: clean is idempotent, drops "./" components,
// collapses "//", resolves ".." against the prior component, and
// preserves a "scheme://" prefix). It is grounded in Go's own
// path.Clean algorithm (segment split, stack-based "." / ".." removal)
// but follows original_source/foundation/path.c's own rules where they
// differ from path.Clean's POSIX-path assumptions — in particular,
// protocol-prefix preservation and relative (non-absolute) cleaning,
// neither of which path.Clean understands.
package pathutil

import "strings"

// Clean returns the canonical form of p: backslashes normalized to
// forward slashes, "." components dropped, repeated slashes collapsed,
// and ".." components resolved against the preceding segment where
// possible. A leading "scheme://" prefix (e.g. "file://", "asset://")
// is detected and preserved verbatim ahead of the cleaned remainder,
// matching path_clean's protocollen handling. Clean is idempotent:
// Clean(Clean(p)) == Clean(p).
func Clean(p string) string {
	prefix, rest := splitProtocol(p)
	rest = strings.ReplaceAll(rest, `\`, "/")

	absolute := strings.HasPrefix(rest, "/")

	segments := strings.Split(rest, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			// Drop empty components (collapses "//") and "." components.
		case "..":
			if n := len(out); n > 0 && out[n-1] != ".." {
				out = out[:n-1]
			} else if !absolute {
				// Relative paths may legitimately need a leading ".." to
				// escape above their starting point; path_clean keeps it.
				out = append(out, "..")
			}
			// Absolute paths silently drop a ".." with nothing above it
			// to resolve against — there is nothing above root.
		default:
			out = append(out, seg)
		}
	}

	cleaned := strings.Join(out, "/")
	switch {
	case absolute:
		cleaned = "/" + cleaned
	case cleaned == "":
		cleaned = "."
	}

	return prefix + cleaned
}

// splitProtocol splits p into a "scheme://" prefix (including the
// separator) and the remainder, matching path_clean's protocollen scan
// for the first "://".
func splitProtocol(p string) (prefix, rest string) {
	if i := strings.Index(p, "://"); i >= 0 {
		return p[:i+3], p[i+3:]
	}
	return "", p
}

// IsAbsolute reports whether p (after protocol-prefix stripping) starts
// with a path separator, matching path_is_absolute's check.
func IsAbsolute(p string) bool {
	_, rest := splitProtocol(p)
	return strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, `\`)
}

// Join concatenates path elements with "/" and cleans the result,
// matching path_merge's clean-after-concatenation contract.
func Join(elems ...string) string {
	return Clean(strings.Join(elems, "/"))
}
