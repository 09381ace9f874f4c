// Package docformat reads and writes trusted source documents used for export and import.
// YAML and JSON documents are handled here; XML documents use the NuGet.Config layout of the
// xmlstore package and are only detected and prettified.
package docformat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/gabriel-vasile/mimetype"
	"github.com/tfkr-ae/trustreg/domain"
	"gopkg.in/yaml.v3"
)

// Format names a document format.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
	XML  Format = "xml"
)

var (
	// ErrUnsupportedFormat is returned for formats or content that cannot be handled.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// ParseFormat parses a format name case-insensitively. "yml" is accepted for YAML.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yaml", "yml":
		return YAML, nil
	case "json":
		return JSON, nil
	case "xml":
		return XML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// Detect guesses the format of data from its content.
// JSON and XML are recognized by mimetype; other text is treated as YAML and binary content is rejected.
func Detect(data []byte) (Format, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("%w: empty document", ErrUnsupportedFormat)
	}

	mtype := mimetype.Detect(trimmed)
	for m := mtype; m != nil; m = m.Parent() {
		switch {
		case m.Is("application/json"):
			return JSON, nil
		case m.Is("text/xml"):
			return XML, nil
		}
	}

	// XML without a prolog is reported as plain text
	if bytes.HasPrefix(trimmed, []byte("<")) {
		return XML, nil
	}

	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return YAML, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
}

// Prettify re-indents a JSON or XML document. Other content is returned unchanged.
func Prettify(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []byte{}, nil
	}

	var jsonData any
	if err := json.Unmarshal(trimmed, &jsonData); err == nil {
		output, err := json.MarshalIndent(jsonData, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("remarshalling JSON: %w", err)
		}
		return append(output, '\n'), nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(trimmed); err == nil && doc.Root() != nil {
		doc.Indent(2)
		var output bytes.Buffer
		if _, err := doc.WriteTo(&output); err != nil {
			return nil, fmt.Errorf("writing indented XML : %w", err)
		}
		return output.Bytes(), nil
	}

	return data, nil
}

// sourceDocument is the exported form of a trusted source.
type sourceDocument struct {
	Name         string                `yaml:"name" json:"name"`
	ServiceIndex string                `yaml:"service_index,omitempty" json:"serviceIndex,omitempty"`
	Certificates []certificateDocument `yaml:"certificates" json:"certificates"`
}

type certificateDocument struct {
	Fingerprint string `yaml:"fingerprint" json:"fingerprint"`
	Subject     string `yaml:"subject" json:"subject"`
	Algorithm   string `yaml:"algorithm" json:"algorithm"`
	Priority    int    `yaml:"priority" json:"priority"`
}

type sourcesDocument struct {
	Sources []sourceDocument `yaml:"trusted_sources" json:"trustedSources"`
}

func fromSnapshot(sources domain.Snapshot) sourcesDocument {
	doc := sourcesDocument{Sources: make([]sourceDocument, len(sources))}
	for i, source := range sources {
		sd := sourceDocument{
			Name:         source.SourceName,
			ServiceIndex: source.ServiceIndex,
			Certificates: make([]certificateDocument, len(source.Certificates)),
		}
		for j, cert := range source.Certificates {
			sd.Certificates[j] = certificateDocument{
				Fingerprint: cert.Fingerprint,
				Subject:     cert.SubjectName,
				Algorithm:   cert.Algorithm.String(),
				Priority:    cert.Priority,
			}
		}
		doc.Sources[i] = sd
	}
	return doc
}

// toSnapshot converts a decoded document. Unknown algorithms fall back to SHA256.
func (doc sourcesDocument) toSnapshot() (domain.Snapshot, error) {
	sources := make(domain.Snapshot, 0, len(doc.Sources))
	for _, sd := range doc.Sources {
		if strings.TrimSpace(sd.Name) == "" {
			return nil, errors.New("trusted source without a name")
		}
		source := domain.NewTrustedSource(sd.Name)
		source.ServiceIndex = sd.ServiceIndex
		for _, cd := range sd.Certificates {
			source.Certificates = append(source.Certificates, &domain.CertificateTrustEntry{
				Fingerprint: cd.Fingerprint,
				SubjectName: cd.Subject,
				Algorithm:   domain.NormalizeHashAlgorithm(cd.Algorithm),
				Priority:    cd.Priority,
			})
		}
		sources = append(sources, source)
	}
	return sources, nil
}

// Encode writes sources as a YAML or JSON document.
func Encode(format Format, sources domain.Snapshot) ([]byte, error) {
	doc := fromSnapshot(sources)
	switch format {
	case YAML:
		out, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshalling yaml: %w", err)
		}
		return out, nil
	case JSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshalling json: %w", err)
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Decode reads a YAML or JSON document.
func Decode(format Format, data []byte) (domain.Snapshot, error) {
	var doc sourcesDocument
	switch format {
	case YAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("unmarshalling yaml: %w", err)
		}
	case JSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("unmarshalling json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return doc.toSnapshot()
}
