package provision

import (
	"bytes"
)

const hostnameKeyword = "hostname "

// ReplaceHostname rewrites every line that is exactly
// "hostname <placeholder>" into "hostname <hostname>", returning the new
// content and the number of rewritten lines.
//
// Only terminated lines match; the "\n" or "\r\n" terminator is kept as is.
// Lines with extra whitespace, different case or no terminator are left
// untouched.
func ReplaceHostname(data []byte, placeholder string, hostname string) ([]byte, int) {
	target := []byte(hostnameKeyword + placeholder)
	replacement := []byte(hostnameKeyword + hostname)

	out := make([]byte, 0, len(data))
	count := 0
	for len(data) > 0 {
		line := data
		rest := []byte(nil)
		if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
			line, rest = data[:idx+1], data[idx+1:]
		}
		data = rest

		body, eol, ok := splitTerminator(line)
		if ok && bytes.Equal(body, target) {
			out = append(out, replacement...)
			out = append(out, eol...)
			count++
			continue
		}
		out = append(out, line...)
	}
	return out, count
}

func splitTerminator(line []byte) ([]byte, []byte, bool) {
	switch {
	case bytes.HasSuffix(line, []byte("\r\n")):
		return line[:len(line)-2], line[len(line)-2:], true
	case bytes.HasSuffix(line, []byte("\n")):
		return line[:len(line)-1], line[len(line)-1:], true
	default:
		return line, nil, false
	}
}
