package domain

import (
	"crypto"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"strings"
)

// HashAlgorithmName identifies the hash algorithm of a certificate fingerprint.
// The zero value is SHA256.
type HashAlgorithmName int

const (
	SHA256 HashAlgorithmName = iota
	SHA384
	SHA512
)

var hashAlgorithmNames = map[HashAlgorithmName]string{
	SHA256: "SHA256",
	SHA384: "SHA384",
	SHA512: "SHA512",
}

// String returns the canonical upper-case name, e.g. "SHA256".
func (h HashAlgorithmName) String() string {
	if name, ok := hashAlgorithmNames[h]; ok {
		return name
	}
	return hashAlgorithmNames[SHA256]
}

// Hash returns the crypto.Hash matching the algorithm.
func (h HashAlgorithmName) Hash() crypto.Hash {
	switch h {
	case SHA384:
		return crypto.SHA384
	case SHA512:
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}

// ParseHashAlgorithmName parses name case-insensitively.
// The boolean is false when name is not a recognized algorithm.
func ParseHashAlgorithmName(name string) (HashAlgorithmName, bool) {
	name = strings.TrimSpace(name)
	for alg, canonical := range hashAlgorithmNames {
		if strings.EqualFold(name, canonical) {
			return alg, true
		}
	}
	return SHA256, false
}

// NormalizeHashAlgorithm parses name and falls back to SHA256 for anything unrecognized,
// so a stored entry never decodes to an algorithm the verifier cannot use.
func NormalizeHashAlgorithm(name string) HashAlgorithmName {
	alg, _ := ParseHashAlgorithmName(name)
	return alg
}

// CertificateFingerprint returns the upper-case hex digest of the DER encoded certificate.
func CertificateFingerprint(der []byte, alg HashAlgorithmName) string {
	h := alg.Hash().New()
	h.Write(der)
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}
