package util

import (
	"strconv"
	"strings"
)

// Summary describes a possibly truncated block of text.
type Summary struct {
	Preview   string
	LineCount int
	ByteCount int
	Truncated bool
}

// TruncateLinesAndBytes limits lines and total byte count.
func TruncateLinesAndBytes(lines []string, maxLines int, maxBytes int) (out []string, truncated bool, byteCount int) {
	if maxLines <= 0 && maxBytes <= 0 {
		return lines, false, len(strings.Join(lines, "\n"))
	}
	for _, line := range lines {
		if maxLines > 0 && len(out) >= maxLines {
			truncated = true
			break
		}
		lineBytes := len(line)
		sep := 0
		if len(out) > 0 {
			sep = 1
		}
		if maxBytes > 0 && byteCount+sep+lineBytes > maxBytes {
			truncated = true
			break
		}
		if sep == 1 {
			byteCount++
		}
		byteCount += lineBytes
		out = append(out, line)
	}
	return out, truncated, byteCount
}

// Summarize counts the full text and keeps a preview within the limits.
func Summarize(text string, maxLines int, maxBytes int) Summary {
	if text == "" {
		return Summary{}
	}
	lines := strings.Split(text, "\n")
	kept, truncated, _ := TruncateLinesAndBytes(lines, maxLines, maxBytes)
	return Summary{
		Preview:   strings.Join(kept, "\n"),
		LineCount: len(lines),
		ByteCount: len(text),
		Truncated: truncated,
	}
}

// Preview returns a short preview of text by limiting lines and bytes.
func Preview(text string, maxLines int, maxBytes int) string {
	return Summarize(text, maxLines, maxBytes).Preview
}

func byteSize(n int) string {
	switch {
	case n >= 1<<20:
		return strconv.FormatFloat(float64(n)/(1<<20), 'f', 1, 64) + " MiB"
	case n >= 1<<10:
		return strconv.FormatFloat(float64(n)/(1<<10), 'f', 1, 64) + " KiB"
	default:
		return strconv.Itoa(n) + " B"
	}
}
