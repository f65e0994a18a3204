package plumbing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gitodb/gitodb/plumbing"
)

func TestCommitSignatureKind(t *testing.T) {
	cases := []struct {
		name string
		sig  string
		want plumbing.SignatureKind
	}{
		{"none", "", plumbing.NoSignature},
		{"pgp", "-----BEGIN PGP SIGNATURE-----\n\niQ...\n-----END PGP SIGNATURE-----\n", plumbing.OpenPGPSignature},
		{"pgp message", "-----BEGIN PGP MESSAGE-----\n\niQ...\n-----END PGP MESSAGE-----\n", plumbing.OpenPGPSignature},
		{"x509", "-----BEGIN CERTIFICATE-----\nMIIB...\n-----END CERTIFICATE-----\n", plumbing.X509Signature},
		{"ssh", "-----BEGIN SSH SIGNATURE-----\nU1NI...\n-----END SSH SIGNATURE-----\n", plumbing.SSHSignature},
		{"unknown", "-----BEGIN SOMETHING ELSE-----\n", plumbing.UnknownSignature},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			commit := &plumbing.Commit{PGPSignature: c.sig}
			assert.Equal(t, c.want, commit.SignatureKind())
		})
	}
}

func TestCommitRoundTripPreservesSignature(t *testing.T) {
	sig := plumbing.Signature{Name: "A U Thor", Email: "author@example.com"}
	c := &plumbing.Commit{
		TreeHash:     plumbing.NewHash("1111111111111111111111111111111111111111"),
		Author:       sig,
		Committer:    sig,
		Message:      "signed commit\n",
		PGPSignature: "-----BEGIN PGP SIGNATURE-----\n\niQ...\n-----END PGP SIGNATURE-----\n",
	}

	encoded := plumbing.SerializeInflated(c)

	decoded, err := plumbing.ParseInflated(encoded)
	assert.NoError(t, err)

	got, ok := decoded.(*plumbing.Commit)
	assert.True(t, ok)
	assert.Equal(t, c.PGPSignature, got.PGPSignature)
	assert.Equal(t, plumbing.OpenPGPSignature, got.SignatureKind())
}
