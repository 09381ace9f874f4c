// Package trustreg persists and reconciles, per package source, the certificates trusted to sign
// content from that source and the source's optional trusted service index URL.
//
// Trust records live in the "trustedSources" section of a hierarchical settings store:
//   - one subsection per source name
//   - one nested value per certificate (key = fingerprint, value = subject name)
//   - an optional "serviceIndex" nested value holding the service index URL
//
// Every save deletes the whole section and rewrites every source. The registry holds no
// cache and no locks: two writers racing on the same store can lose each other's updates,
// so callers that need multi-writer safety must serialize access to the store themselves.
package trustreg

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tfkr-ae/trustreg/domain"
)

var _ domain.TrustedSourceRepository = (*Registry)(nil)

var (
	// ErrNoSettings is returned by New when no settings repository was configured.
	ErrNoSettings = errors.New("no settings repository configured")
)

// Registry loads and saves trusted sources through a settings repository.
type Registry struct {
	Settings domain.SettingsRepository // Backing settings store
	Logger   *slog.Logger              // Debug logging of loads and rewrites
}

// New creates a Registry and applies the given options. WithSettings is required.
//
// Parameters:
//   - options: Variadic list of option functions to configure the registry
//
// Returns:
//   - *Registry: Configured registry
//   - error: Configuration error if any option fails or no settings repository was set
func New(options ...func(*Registry) error) (*Registry, error) {
	registry := &Registry{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	err := registry.WithOptions(options...)
	if err != nil {
		return nil, err
	}
	if registry.Settings == nil {
		return nil, ErrNoSettings
	}
	return registry, nil
}

// certificateValue is the typed view of a certificate's nested value.
// Algorithm is nil when the stored value carries no algorithm attribute.
type certificateValue struct {
	Fingerprint string
	SubjectName string
	Priority    int
	Algorithm   *string
}

func decodeCertificateValue(value *domain.NestedValue) certificateValue {
	cv := certificateValue{
		Fingerprint: value.Key,
		SubjectName: value.Value,
		Priority:    value.PriorityOrDefault(),
	}
	for k, v := range value.AdditionalData {
		if strings.EqualFold(k, domain.FingerprintAlgorithmKey) {
			alg := v
			cv.Algorithm = &alg
			break
		}
	}
	return cv
}

func (cv certificateValue) toEntry() *domain.CertificateTrustEntry {
	alg := domain.SHA256
	if cv.Algorithm != nil {
		alg = domain.NormalizeHashAlgorithm(*cv.Algorithm)
	}
	return &domain.CertificateTrustEntry{
		Fingerprint: cv.Fingerprint,
		SubjectName: cv.SubjectName,
		Algorithm:   alg,
		Priority:    cv.Priority,
	}
}

func (cv certificateValue) toNestedValue() *domain.NestedValue {
	priority := cv.Priority
	additional := make(map[string]string)
	if cv.Algorithm != nil {
		additional[domain.FingerprintAlgorithmKey] = *cv.Algorithm
	}
	return &domain.NestedValue{
		Key:            cv.Fingerprint,
		Value:          cv.SubjectName,
		Priority:       &priority,
		AdditionalData: additional,
	}
}

func encodeCertificate(cert *domain.CertificateTrustEntry) *domain.NestedValue {
	alg := cert.Algorithm.String()
	return certificateValue{
		Fingerprint: cert.Fingerprint,
		SubjectName: cert.SubjectName,
		Priority:    cert.Priority,
		Algorithm:   &alg,
	}.toNestedValue()
}

// encodeSource converts a trusted source to the nested values written for its subsection.
// Certificates keyed by the reserved service index key are dropped, and of fingerprints that
// differ only by case the first one is kept, so every store receives unique keys.
func (r *Registry) encodeSource(source *domain.TrustedSource) []*domain.NestedValue {
	values := make([]*domain.NestedValue, 0, len(source.Certificates)+1)
	written := make(map[string]struct{}, len(source.Certificates))
	for _, cert := range source.Certificates {
		if domain.IsServiceIndexKey(cert.Fingerprint) {
			r.Logger.Debug("skipping certificate with reserved fingerprint",
				"source", source.SourceName,
				"fingerprint", cert.Fingerprint)
			continue
		}
		folded := strings.ToLower(cert.Fingerprint)
		if _, ok := written[folded]; ok {
			r.Logger.Debug("skipping duplicate certificate fingerprint",
				"source", source.SourceName,
				"fingerprint", cert.Fingerprint)
			continue
		}
		written[folded] = struct{}{}
		values = append(values, encodeCertificate(cert))
	}
	if source.ServiceIndex != "" {
		values = append(values, &domain.NestedValue{
			Key:            domain.ServiceIndexKey,
			Value:          source.ServiceIndex,
			AdditionalData: make(map[string]string),
		})
	}
	return values
}

// LoadAll implements the domain.TrustedSourceRepository interface.
// Subsection names differing only by case are loaded once, using the first spelling returned by the store.
func (r *Registry) LoadAll() (domain.Snapshot, error) {
	names, err := r.Settings.GetSubsections(domain.TrustedSourcesSection)
	if err != nil {
		return nil, fmt.Errorf("listing trusted sources: %w", err)
	}

	seen := make(map[string]struct{}, len(names))
	sources := make(domain.Snapshot, 0, len(names))
	for _, name := range names {
		folded := strings.ToLower(name)
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}

		source, err := r.LoadOne(name)
		if err != nil {
			return nil, err
		}
		if source != nil {
			sources = append(sources, source)
		}
	}

	r.Logger.Debug("loaded trusted sources", "count", len(sources))
	return sources, nil
}

// LoadOne implements the domain.TrustedSourceRepository interface.
// It returns nil without an error when the source has no stored values.
func (r *Registry) LoadOne(sourceName string) (*domain.TrustedSource, error) {
	values, err := r.Settings.GetNestedValues(domain.TrustedSourcesSection, sourceName)
	if err != nil {
		return nil, fmt.Errorf("reading trusted source %s: %w", sourceName, err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	source := domain.NewTrustedSource(sourceName)
	for _, value := range values {
		if domain.IsServiceIndexKey(value.Key) {
			source.ServiceIndex = value.Value
			continue
		}
		source.Certificates = append(source.Certificates, decodeCertificateValue(value).toEntry())
	}
	return source, nil
}

// SaveAll implements the domain.TrustedSourceRepository interface.
// The section is deleted and every source rewritten in order. Sources are not deduplicated:
// when two share a name the later one replaces the earlier one's values.
func (r *Registry) SaveAll(sources domain.Snapshot) error {
	err := r.Settings.DeleteSection(domain.TrustedSourcesSection)
	if err != nil {
		return fmt.Errorf("clearing trusted sources: %w", err)
	}

	for _, source := range sources {
		err := r.Settings.SetNestedValues(domain.TrustedSourcesSection, source.SourceName, r.encodeSource(source))
		if err != nil {
			return fmt.Errorf("writing trusted source %s: %w", source.SourceName, err)
		}
	}

	r.Logger.Debug("rewrote trusted sources", "count", len(sources))
	return nil
}

// SaveOne implements the domain.TrustedSourceRepository interface.
// Certificates already stored for the source keep their stored priority; the incoming
// source object itself is left untouched.
func (r *Registry) SaveOne(source *domain.TrustedSource) error {
	current, err := r.LoadAll()
	if err != nil {
		return err
	}

	existing := current.Find(source.SourceName)
	merged := &domain.TrustedSource{
		SourceName:   source.SourceName,
		ServiceIndex: source.ServiceIndex,
		Certificates: make([]*domain.CertificateTrustEntry, len(source.Certificates)),
	}
	for i, cert := range source.Certificates {
		resolved := *cert
		if existing != nil {
			if stored := existing.Certificate(cert.Fingerprint); stored != nil {
				if stored.Priority != cert.Priority {
					r.Logger.Debug("keeping stored certificate priority",
						"source", source.SourceName,
						"fingerprint", cert.Fingerprint,
						"priority", stored.Priority)
				}
				resolved.Priority = stored.Priority
			}
		}
		merged.Certificates[i] = &resolved
	}

	return r.SaveAll(append(current.Without(source.SourceName), merged))
}

// DeleteOne implements the domain.TrustedSourceRepository interface.
// Nothing is written when no source matches sourceName.
func (r *Registry) DeleteOne(sourceName string) error {
	current, err := r.LoadAll()
	if err != nil {
		return err
	}

	if current.Find(sourceName) == nil {
		r.Logger.Debug("trusted source not found, nothing to delete", "source", sourceName)
		return nil
	}

	return r.SaveAll(current.Without(sourceName))
}
