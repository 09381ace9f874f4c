// Package xmlstore implements the settings repository on top of a NuGet.Config style XML file.
//
// A section is a child element of <configuration>; each subsection is a <source name="..."> element
// holding <add key="..." value="..."/> entries. The optional priority is the "priority" attribute and
// every other attribute of <add> is part of the value's additional data:
//
//	<configuration>
//	  <trustedSources>
//	    <source name="nuget.org">
//	      <add key="AA11" value="CN=Test" priority="0" fingerprintAlgorithm="SHA256" />
//	      <add key="serviceIndex" value="https://api.nuget.org/v3/index.json" />
//	    </source>
//	  </trustedSources>
//	</configuration>
//
// When reading, an element named after the source itself (<nuget.org>...</nuget.org>, as
// NuGet.Config writes it) is accepted too. Writes always use the <source name="..."> form, which
// also holds names that are not valid element names.
//
// The file is read again on every call and every write replaces the whole file.
package xmlstore

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/tfkr-ae/trustreg/domain"
)

var _ domain.SettingsRepository = (*Store)(nil)

const (
	rootElement       = "configuration"
	subsectionElement = "source"
	valueElement      = "add"

	nameAttr     = "name"
	keyAttr      = "key"
	valueAttr    = "value"
	priorityAttr = "priority"
)

var (
	// ErrMachineWide is returned when writing to a store opened as machine-wide.
	ErrMachineWide = errors.New("machine-wide settings file is read-only")
)

// Store is a settings repository backed by one XML file.
type Store struct {
	Path        string // Path of the settings file
	MachineWide bool   // Machine-wide files are never written
}

// Open returns a Store for the file at path. The file does not need to exist yet.
func Open(path string, options ...func(*Store) error) (*Store, error) {
	store := &Store{Path: path}
	for _, option := range options {
		if err := option(store); err != nil {
			return nil, fmt.Errorf("applying option on xml store : %w", err)
		}
	}
	return store, nil
}

// WithMachineWide marks the store as a machine-wide settings file, making it read-only.
func WithMachineWide() func(*Store) error {
	return func(s *Store) error {
		s.MachineWide = true
		return nil
	}
}

// load reads the settings file. A missing file yields an empty document.
func (s *Store) load() (*etree.Document, error) {
	doc := etree.NewDocument()
	err := doc.ReadFromFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
			doc.CreateElement(rootElement)
			return doc, nil
		}
		return nil, fmt.Errorf("reading settings file %s: %w", s.Path, err)
	}

	if doc.Root() == nil || doc.Root().Tag != rootElement {
		return nil, fmt.Errorf("settings file %s has no <%s> root element", s.Path, rootElement)
	}
	return doc, nil
}

// save writes doc to a temporary file next to the settings file and renames it into place.
func (s *Store) save(doc *etree.Document) error {
	if s.MachineWide {
		return ErrMachineWide
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating settings dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	doc.Indent(2)
	if _, err := doc.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp settings file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replacing settings file %s: %w", s.Path, err)
	}
	return nil
}

// subsectionName returns the source name of a subsection element: the name attribute of a
// <source> element, or the tag of an element named after its source.
func subsectionName(el *etree.Element) string {
	if el.Tag == subsectionElement && el.Space == "" {
		return el.SelectAttrValue(nameAttr, "")
	}
	return el.FullTag()
}

// findSubsections returns every subsection element of section whose name matches subsection, ignoring case.
func findSubsections(section *etree.Element, subsection string) []*etree.Element {
	var found []*etree.Element
	for _, el := range section.ChildElements() {
		if strings.EqualFold(subsectionName(el), subsection) {
			found = append(found, el)
		}
	}
	return found
}

// GetSubsections implements the domain.SettingsRepository interface.
func (s *Store) GetSubsections(section string) ([]string, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0)
	sectionEl := doc.Root().SelectElement(section)
	if sectionEl == nil {
		return names, nil
	}

	for _, el := range sectionEl.ChildElements() {
		if name := subsectionName(el); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// GetNestedValues implements the domain.SettingsRepository interface.
// Values of every matching subsection element are returned in document order.
func (s *Store) GetNestedValues(section string, subsection string) ([]*domain.NestedValue, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	values := make([]*domain.NestedValue, 0)
	sectionEl := doc.Root().SelectElement(section)
	if sectionEl == nil {
		return values, nil
	}

	for _, sub := range findSubsections(sectionEl, subsection) {
		for _, add := range sub.SelectElements(valueElement) {
			value, err := toNestedValue(add)
			if err != nil {
				return nil, fmt.Errorf("reading %s/%s in %s: %w", section, subsection, s.Path, err)
			}
			values = append(values, value)
		}
	}
	return values, nil
}

// SetNestedValues implements the domain.SettingsRepository interface.
func (s *Store) SetNestedValues(section string, subsection string, values []*domain.NestedValue) error {
	if s.MachineWide {
		return ErrMachineWide
	}

	doc, err := s.load()
	if err != nil {
		return err
	}

	sectionEl := doc.Root().SelectElement(section)
	if sectionEl == nil {
		sectionEl = doc.Root().CreateElement(section)
	}
	for _, sub := range findSubsections(sectionEl, subsection) {
		sectionEl.RemoveChild(sub)
	}

	sub := sectionEl.CreateElement(subsectionElement)
	sub.CreateAttr(nameAttr, subsection)
	for _, value := range values {
		fromNestedValue(sub.CreateElement(valueElement), value)
	}

	return s.save(doc)
}

// DeleteSection implements the domain.SettingsRepository interface.
func (s *Store) DeleteSection(section string) error {
	if s.MachineWide {
		return ErrMachineWide
	}

	doc, err := s.load()
	if err != nil {
		return err
	}

	sectionEl := doc.Root().SelectElement(section)
	if sectionEl == nil {
		return nil
	}
	doc.Root().RemoveChild(sectionEl)

	return s.save(doc)
}

func toNestedValue(add *etree.Element) (*domain.NestedValue, error) {
	value := &domain.NestedValue{
		AdditionalData: make(map[string]string),
	}
	for _, attr := range add.Attr {
		switch attr.Key {
		case keyAttr:
			value.Key = attr.Value
		case valueAttr:
			value.Value = attr.Value
		case priorityAttr:
			priority, err := strconv.Atoi(strings.TrimSpace(attr.Value))
			if err != nil {
				return nil, fmt.Errorf("parsing priority %q: %w", attr.Value, err)
			}
			value.Priority = &priority
		default:
			value.AdditionalData[attr.Key] = attr.Value
		}
	}
	return value, nil
}

func fromNestedValue(add *etree.Element, value *domain.NestedValue) {
	add.CreateAttr(keyAttr, value.Key)
	add.CreateAttr(valueAttr, value.Value)
	if value.Priority != nil {
		add.CreateAttr(priorityAttr, strconv.Itoa(*value.Priority))
	}
	for _, k := range slices.Sorted(maps.Keys(value.AdditionalData)) {
		switch k {
		case keyAttr, valueAttr, priorityAttr:
			continue
		}
		add.CreateAttr(k, value.AdditionalData[k])
	}
}
