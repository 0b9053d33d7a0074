// Package manifest reads material definitions from YAML files.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Herculano1234/MuseuCom/internal/cli/client"
)

// Manifest describes one material. File paths are relative to the manifest.
type Manifest struct {
	Name                string `yaml:"nome"`
	Model               string `yaml:"modelo"`
	Manufacturer        string `yaml:"fabricante"`
	ManufactureYear     string `yaml:"ano_fabrico"`
	SerialNumber        string `yaml:"numero_serie"`
	ManufacturerProfile string `yaml:"perfil_fabricante"`
	AdditionalInfo      string `yaml:"informacoes_adicionais"`
	Image               string `yaml:"imagem"`
	PDF                 string `yaml:"pdf"`

	dir string
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// Parse decodes a manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the fields the API requires.
func (m *Manifest) Validate() error {
	var errs []error
	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, errors.New("nome is required"))
	}
	if m.PDF != "" && !strings.EqualFold(filepath.Ext(m.PDF), ".pdf") {
		errs = append(errs, fmt.Errorf("pdf %q is not a .pdf file", m.PDF))
	}
	return errors.Join(errs...)
}

// Input returns the form fields of the manifest.
func (m *Manifest) Input() client.MaterialInput {
	return client.MaterialInput{
		Name:                m.Name,
		Model:               m.Model,
		Manufacturer:        m.Manufacturer,
		ManufactureYear:     m.ManufactureYear,
		SerialNumber:        m.SerialNumber,
		ManufacturerProfile: m.ManufacturerProfile,
		AdditionalInfo:      m.AdditionalInfo,
	}
}

// Attachments reads the referenced image and PDF.
func (m *Manifest) Attachments() ([]client.Attachment, error) {
	var attachments []client.Attachment
	for _, f := range []struct{ field, path string }{
		{client.FieldImage, m.Image},
		{client.FieldPDF, m.PDF},
	} {
		if f.path == "" {
			continue
		}
		a, err := ReadAttachment(f.field, m.resolve(f.path))
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, nil
}

func (m *Manifest) resolve(path string) string {
	if filepath.IsAbs(path) || m.dir == "" {
		return path
	}
	return filepath.Join(m.dir, path)
}

// ReadAttachment loads a file for upload under the given form field.
func ReadAttachment(field, path string) (client.Attachment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return client.Attachment{}, fmt.Errorf("failed to read %s: %w", field, err)
	}
	return client.Attachment{
		Field:       field,
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Content:     content,
	}, nil
}
