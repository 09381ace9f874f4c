package domain

import "strings"

const (
	// TrustedSourcesSection is the settings section holding one subsection per trusted source.
	TrustedSourcesSection = "trustedSources"

	// ServiceIndexKey is the reserved nested key carrying a source's trusted service index URL.
	// It is matched case-insensitively and is never a certificate fingerprint.
	ServiceIndexKey = "serviceIndex"

	// FingerprintAlgorithmKey is the additional-data attribute naming a fingerprint's hash algorithm.
	FingerprintAlgorithmKey = "fingerprintAlgorithm"
)

// TrustedSourceRepository defines the operations for managing the trust records of package sources.
// Every call re-reads the backing settings; nothing is cached between calls.
type TrustedSourceRepository interface {
	// LoadAll returns every trusted source. Names are unique under case-insensitive comparison.
	LoadAll() (Snapshot, error)

	// LoadOne returns the trusted source with the given name, or nil if it has no stored values.
	LoadOne(sourceName string) (*TrustedSource, error)

	// SaveAll replaces the whole trusted source section with the given sources.
	SaveAll(sources Snapshot) error

	// SaveOne replaces the source with the same name, keeping the priority of certificates
	// that were already stored.
	SaveOne(source *TrustedSource) error

	// DeleteOne removes the source with the given name. It is a no-op if none exists.
	DeleteOne(sourceName string) error
}

// TrustedSource represents a package source together with the certificates trusted to sign its content.
type TrustedSource struct {
	SourceName   string                   // Identifier of the package source, compared case-insensitively.
	ServiceIndex string                   // Optional trusted service index URL, empty when absent.
	Certificates []*CertificateTrustEntry // Trusted certificates in insertion order.
}

// CertificateTrustEntry represents one certificate trusted for a source.
type CertificateTrustEntry struct {
	Fingerprint string            // Hash fingerprint of the certificate, the entry's identity within a source.
	SubjectName string            // Human readable subject of the certificate.
	Algorithm   HashAlgorithmName // Hash algorithm used to compute Fingerprint.
	Priority    int               // Ordering value, sticky once stored.
}

// NewTrustedSource creates a TrustedSource with no certificates.
func NewTrustedSource(name string) *TrustedSource {
	return &TrustedSource{
		SourceName:   name,
		Certificates: make([]*CertificateTrustEntry, 0),
	}
}

// Certificate returns the entry with the given fingerprint, or nil.
func (s *TrustedSource) Certificate(fingerprint string) *CertificateTrustEntry {
	for _, cert := range s.Certificates {
		if strings.EqualFold(cert.Fingerprint, fingerprint) {
			return cert
		}
	}
	return nil
}

// NameEquals reports whether the source is named name, ignoring case.
func (s *TrustedSource) NameEquals(name string) bool {
	return strings.EqualFold(s.SourceName, name)
}

// IsServiceIndexKey reports whether key is the reserved service index key.
func IsServiceIndexKey(key string) bool {
	return strings.EqualFold(key, ServiceIndexKey)
}
