package misc

import "unicode/utf8"

// StringLimit cuts s to at most n runes, marking the cut with "...".
func StringLimit(s string, n int) string {
	if n < 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	rs := []rune(s)
	if n <= 3 {
		return string(rs[:n])
	}
	return string(rs[:n-3]) + "..."
}

// BytesLimit cuts bs to at most n bytes without splitting a UTF-8 sequence. bs is not modified.
func BytesLimit(bs []byte, n int) []byte {
	if n < 0 {
		return nil
	}
	if len(bs) <= n {
		return bs
	}
	if n <= 3 {
		return bs[:runeBoundary(bs, n)]
	}
	cut := runeBoundary(bs, n-3)
	out := make([]byte, 0, cut+3)
	out = append(out, bs[:cut]...)
	return append(out, "..."...)
}

// runeBoundary moves n back to the start of the rune it falls in.
func runeBoundary(bs []byte, n int) int {
	for i := n; i >= 0 && i > n-utf8.UTFMax; i-- {
		if utf8.RuneStart(bs[i]) {
			return i
		}
	}
	return n
}
