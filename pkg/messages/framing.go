package messages

import "bytes"

// MaxLineLength is the longest line accepted from the peer, excluding the
// terminator.
const MaxLineLength = 1024

// LineBuffer frames a byte stream into newline-terminated lines. A line
// longer than MaxLineLength is discarded up to and including its newline.
type LineBuffer struct {
	buf []byte
	// discarding is set while the rest of an overlong line is skipped
	discarding bool
}

// Feed appends chunk and returns every complete line in arrival order.
// The trailing partial line is kept until a later chunk completes it.
func (b *LineBuffer) Feed(chunk []byte) []string {
	var lines []string
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			b.appendFragment(chunk)
			break
		}
		b.appendFragment(chunk[:i])
		if !b.discarding {
			lines = append(lines, string(bytes.TrimSuffix(b.buf, []byte{'\r'})))
		}
		b.buf = b.buf[:0]
		b.discarding = false
		chunk = chunk[i+1:]
	}
	return lines
}

func (b *LineBuffer) appendFragment(p []byte) {
	if b.discarding {
		return
	}
	if len(b.buf)+len(p) > MaxLineLength+1 {
		// one extra byte leaves room for a '\r' before the newline
		b.buf = nil
		b.discarding = true
		return
	}
	b.buf = append(b.buf, p...)
}

// Pending returns the buffered partial line.
func (b *LineBuffer) Pending() string {
	return string(b.buf)
}
