package plumbing

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// SignatureKind classifies the cryptographic signature format found in a
// commit's "gpgsig" header, if any.
type SignatureKind int8

const (
	// NoSignature means the commit carries no gpgsig header.
	NoSignature SignatureKind = iota
	// OpenPGPSignature is a "-----BEGIN PGP SIGNATURE-----" block.
	OpenPGPSignature
	// X509Signature is a "-----BEGIN CERTIFICATE-----" (S/MIME) block.
	X509Signature
	// SSHSignature is a "-----BEGIN SSH SIGNATURE-----" block.
	SSHSignature
	// UnknownSignature is a gpgsig header present but not in a recognized format.
	UnknownSignature
)

var signaturePrefixes = []struct {
	kind   SignatureKind
	prefix string
}{
	{OpenPGPSignature, "-----BEGIN PGP SIGNATURE-----"},
	{OpenPGPSignature, "-----BEGIN PGP MESSAGE-----"},
	{X509Signature, "-----BEGIN CERTIFICATE-----"},
	{X509Signature, "-----BEGIN SIGNED MESSAGE-----"},
	{SSHSignature, "-----BEGIN SSH SIGNATURE-----"},
}

// detectSignatureKind classifies a raw signature block by its header line.
func detectSignatureKind(b string) SignatureKind {
	if b == "" {
		return NoSignature
	}
	for _, p := range signaturePrefixes {
		if strings.HasPrefix(b, p.prefix) {
			return p.kind
		}
	}
	return UnknownSignature
}

// Commit points at a single Tree, marking what the project looked like at
// a moment in time, together with its authorship and ancestry.
type Commit struct {
	TreeHash  Hash
	Parents   []Hash
	Author    Signature
	Committer Signature
	// PGPSignature holds the raw "gpgsig" header block, if present.
	PGPSignature string
	// MergeTags holds the raw "mergetag" header blocks, in header order.
	MergeTags []string
	Message   string
}

// Kind implements Object.
func (c *Commit) Kind() ObjectKind { return CommitKind }

// Hash implements Object.
func (c *Commit) Hash() Hash { return ComputeHash(c) }

// SignatureKind classifies c.PGPSignature.
func (c *Commit) SignatureKind() SignatureKind {
	return detectSignatureKind(c.PGPSignature)
}

func (c *Commit) encodeBody(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "tree %s\n", c.TreeHash)
	for _, p := range c.Parents {
		fmt.Fprintf(buf, "parent %s\n", p)
	}

	buf.WriteString("author ")
	c.Author.Encode(buf)
	buf.WriteByte('\n')

	buf.WriteString("committer ")
	c.Committer.Encode(buf)
	buf.WriteByte('\n')

	for _, mt := range c.MergeTags {
		buf.WriteString("mergetag ")
		encodeContinuationLines(buf, mt)
	}

	if c.PGPSignature != "" {
		buf.WriteString("gpgsig ")
		encodeContinuationLines(buf, c.PGPSignature)
	}

	buf.WriteByte('\n')
	buf.WriteString(c.Message)
}

// encodeContinuationLines writes a multi-line header value using Git's
// convention of a single leading space on every line after the first.
func encodeContinuationLines(buf *bytes.Buffer, value string) {
	lines := strings.Split(value, "\n")
	for i, l := range lines {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(l)
		if i != len(lines)-1 {
			buf.WriteByte('\n')
		}
	}
	buf.WriteByte('\n')
}

func decodeCommit(body []byte) (*Commit, error) {
	c := &Commit{}
	r := bufio.NewReader(bytes.NewReader(body))

	var pendingKey string
	var pending strings.Builder
	flush := func() error {
		if pendingKey == "" {
			return nil
		}
		val := pending.String()
		switch pendingKey {
		case "gpgsig":
			c.PGPSignature = val
		case "mergetag":
			c.MergeTags = append(c.MergeTags, val)
		}
		pendingKey = ""
		pending.Reset()
		return nil
	}

	inHeaders := true
	for inHeaders {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}

		trimmed := strings.TrimSuffix(line, "\n")
		if trimmed == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			inHeaders = false
			break
		}

		if strings.HasPrefix(trimmed, " ") {
			// Continuation of a multi-line header (gpgsig/mergetag).
			pending.WriteByte('\n')
			pending.WriteString(strings.TrimPrefix(trimmed, " "))
			if err == io.EOF {
				break
			}
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}

		parts := strings.SplitN(trimmed, " ", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: malformed commit header %q", ErrMalformedBody, trimmed)
		}

		switch parts[0] {
		case "tree":
			h, perr := FromHex(parts[1])
			if perr != nil {
				return nil, fmt.Errorf("%w: bad tree hash: %v", ErrMalformedBody, perr)
			}
			c.TreeHash = h
		case "parent":
			h, perr := FromHex(parts[1])
			if perr != nil {
				return nil, fmt.Errorf("%w: bad parent hash: %v", ErrMalformedBody, perr)
			}
			c.Parents = append(c.Parents, h)
		case "author":
			c.Author.Decode([]byte(parts[1]))
		case "committer":
			c.Committer.Decode([]byte(parts[1]))
		case "gpgsig", "mergetag":
			pendingKey = parts[0]
			pending.WriteString(parts[1])
		}

		if err == io.EOF {
			break
		}
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	c.Message = string(rest)

	return c, nil
}
