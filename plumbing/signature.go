package plumbing

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// Signature is the author/committer/tagger line of a Commit or Tag:
// "<name> <<email>> <unix-seconds> <tz-offset>".
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Decode parses b (without the leading "author "/"committer "/"tagger "
// keyword) into s.
func (s *Signature) Decode(b []byte) {
	open := bytes.LastIndexByte(b, '<')
	close := bytes.LastIndexByte(b, '>')
	if open < 0 || close < 0 || close < open {
		s.Name = string(bytes.TrimSpace(b))
		return
	}

	s.Name = string(bytes.TrimSpace(b[:open]))
	s.Email = string(b[open+1 : close])

	when := bytes.TrimSpace(b[close+1:])
	fields := bytes.Fields(when)
	if len(fields) == 0 {
		return
	}

	secs, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return
	}

	loc := time.FixedZone("", 0)
	if len(fields) > 1 {
		loc = parseTZ(string(fields[1]))
	}

	s.When = time.Unix(secs, 0).In(loc)
}

func parseTZ(s string) *time.Location {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return time.UTC
	}

	hh, err1 := strconv.Atoi(s[1:3])
	mm, err2 := strconv.Atoi(s[3:5])
	if err1 != nil || err2 != nil {
		return time.UTC
	}

	offset := hh*3600 + mm*60
	if s[0] == '-' {
		offset = -offset
	}

	return time.FixedZone("", offset)
}

// Encode writes the signature line (without the keyword prefix) to buf.
func (s Signature) Encode(buf *bytes.Buffer) {
	buf.WriteString(s.Name)
	buf.WriteString(" <")
	buf.WriteString(s.Email)
	buf.WriteString("> ")

	_, offset := s.When.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}

	fmt.Fprintf(buf, "%d %s%02d%02d", s.When.Unix(), sign, offset/3600, (offset%3600)/60)
}

func (s Signature) String() string {
	var buf bytes.Buffer
	s.Encode(&buf)
	return buf.String()
}
