// Package stream turns a raw byte stream into candidate decode units: text
// fragments cut on a delimiter set, or fixed-length binary frames addressed
// in bits. Both shapes buffer any trailing partial unit until more bytes
// arrive; an incomplete unit is never an error.
package stream

import "strings"

// Splitter cuts a text stream on a set of delimiter strings, stripping the
// delimiters. When several delimiters could match at the same position, the
// longest one wins so the stream is never split inside a longer delimiter.
// The trailing partial fragment stays buffered until a later Push completes
// it.
type Splitter struct {
	delims []string
	buf    string
}

// NewSplitter returns a splitter over the given delimiter set. Empty
// delimiters are ignored.
func NewSplitter(delims []string) *Splitter {
	s := &Splitter{}
	for _, d := range delims {
		if d != "" {
			s.delims = append(s.delims, d)
		}
	}
	return s
}

// Push appends chunk to the internal buffer and returns every complete
// fragment now available, in stream order.
func (s *Splitter) Push(chunk []byte) []string {
	s.buf += string(chunk)

	var fragments []string
	for {
		pos, delim := s.nextDelimiter()
		if pos < 0 {
			break
		}
		fragments = append(fragments, s.buf[:pos])
		s.buf = s.buf[pos+len(delim):]
	}
	return fragments
}

// Pending returns the buffered bytes that do not yet form a complete
// fragment.
func (s *Splitter) Pending() string {
	return s.buf
}

// Reset discards any buffered partial fragment. Called on disconnect or
// configuration reload.
func (s *Splitter) Reset() {
	s.buf = ""
}

// nextDelimiter finds the earliest delimiter occurrence in the buffer.
// Ties at the same position go to the longest delimiter. If a longer
// delimiter may still be completing at the end of the buffer at or before the
// chosen position, the split is deferred until more bytes arrive.
func (s *Splitter) nextDelimiter() (int, string) {
	pos, match := -1, ""
	for _, d := range s.delims {
		i := strings.Index(s.buf, d)
		if i < 0 {
			continue
		}
		if pos < 0 || i < pos || (i == pos && len(d) > len(match)) {
			pos, match = i, d
		}
	}
	if pos < 0 {
		return -1, ""
	}
	if s.truncatedLongerMatch(pos, match) {
		return -1, ""
	}
	return pos, match
}

// truncatedLongerMatch reports whether some delimiter longer than match could
// begin at or before pos but runs off the end of the buffer. Splitting now
// would cut inside that delimiter once it completes.
func (s *Splitter) truncatedLongerMatch(pos int, match string) bool {
	for _, d := range s.delims {
		if len(d) <= len(match) {
			continue
		}
		start := pos - len(d) + 1
		if start < 0 {
			start = 0
		}
		for q := start; q <= pos && q < len(s.buf); q++ {
			tail := s.buf[q:]
			if len(tail) < len(d) && strings.HasPrefix(d, tail) {
				return true
			}
		}
	}
	return false
}
