package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 12
)

// Material is a catalog item as the API returns it.
type Material struct {
	ID                  ID     `json:"id"`
	Name                string `json:"nome"`
	SerialNumber        string `json:"numero_serie,omitempty"`
	Model               string `json:"modelo,omitempty"`
	Manufacturer        string `json:"fabricante,omitempty"`
	ManufactureDate     string `json:"data_fabrico,omitempty"`
	AdditionalInfo      string `json:"infor_ad,omitempty"`
	ManufacturerProfile string `json:"perfil_fabricante,omitempty"`
	Photo               string `json:"foto,omitempty"`
	PDF                 string `json:"pdf,omitempty"`
	CreatedAt           string `json:"created_at,omitempty"`
}

// UnmarshalJSON accepts the legacy nome_material field.
func (m *Material) UnmarshalJSON(data []byte) error {
	type plain Material
	var aux struct {
		plain
		LegacyName string `json:"nome_material"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*m = Material(aux.plain)
	if m.Name == "" {
		m.Name = aux.LegacyName
	}
	return nil
}

// ListOptions selects a page of the gallery.
type ListOptions struct {
	Page   int
	Limit  int
	Search string
}

func (o ListOptions) normalized() ListOptions {
	if o.Page < 1 {
		o.Page = DefaultPage
	}
	if o.Limit < 1 {
		o.Limit = DefaultLimit
	}
	return o
}

func (o ListOptions) query() url.Values {
	o = o.normalized()
	q := url.Values{}
	q.Set("page", strconv.Itoa(o.Page))
	q.Set("limit", strconv.Itoa(o.Limit))
	if o.Search != "" {
		q.Set("q", o.Search)
	}
	return q
}

// apply filters and pages a full listing locally.
func (o ListOptions) apply(materials []Material) []Material {
	o = o.normalized()

	if search := strings.ToLower(strings.TrimSpace(o.Search)); search != "" {
		matched := materials[:0:0]
		for _, m := range materials {
			for _, field := range []string{m.Name, m.SerialNumber, m.Manufacturer, m.Model} {
				if strings.Contains(strings.ToLower(field), search) {
					matched = append(matched, m)
					break
				}
			}
		}
		materials = matched
	}

	start := (o.Page - 1) * o.Limit
	if start >= len(materials) {
		return []Material{}
	}
	return materials[start:min(start+o.Limit, len(materials))]
}

// ListMaterials returns one page of materials. Servers that ignore the
// page, limit and q parameters return the whole catalog, which is then
// filtered and paged here.
func (c *Client) ListMaterials(ctx context.Context, opts ListOptions) ([]Material, error) {
	var materials []Material
	if err := c.doJSON(ctx, http.MethodGet, "/materiais?"+opts.query().Encode(), nil, &materials); err != nil {
		return nil, err
	}
	if len(materials) > opts.normalized().Limit {
		materials = opts.apply(materials)
	}
	return materials, nil
}

// GetMaterial returns a material by id.
func (c *Client) GetMaterial(ctx context.Context, id string) (*Material, error) {
	var material Material
	if err := c.doJSON(ctx, http.MethodGet, "/materiais/"+url.PathEscape(id), nil, &material); err != nil {
		return nil, err
	}
	return &material, nil
}

// GetMaterialBySerial returns a material by serial number.
func (c *Client) GetMaterialBySerial(ctx context.Context, serial string) (*Material, error) {
	var material Material
	if err := c.doJSON(ctx, http.MethodGet, "/materiais/serie/"+url.PathEscape(serial), nil, &material); err != nil {
		return nil, err
	}
	return &material, nil
}

// MaterialInput holds the form fields of a new material.
type MaterialInput struct {
	Name                string
	Model               string
	Manufacturer        string
	ManufactureYear     string
	SerialNumber        string
	ManufacturerProfile string
	AdditionalInfo      string
}

func (in MaterialInput) fields() [][2]string {
	return [][2]string{
		{"nome", in.Name},
		{"modelo", in.Model},
		{"fabricante", in.Manufacturer},
		{"ano_fabrico", in.ManufactureYear},
		{"numero_serie", in.SerialNumber},
		{"perfil_fabricante", in.ManufacturerProfile},
		{"informacoes_adicionais", in.AdditionalInfo},
	}
}

// Multipart field names for attachments.
const (
	FieldImage = "imagem"
	FieldPDF   = "pdf"
)

// Attachment is a file uploaded with a new material.
type Attachment struct {
	Field       string // FieldImage or FieldPDF
	Filename    string
	ContentType string
	Content     []byte
}

// CreateMaterial uploads a new material as multipart/form-data.
func (c *Client) CreateMaterial(ctx context.Context, in MaterialInput, attachments ...Attachment) (*Material, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("material name is required")
	}

	// Buffered so the gateway can replay it after a refresh.
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range in.fields() {
		if f[1] == "" {
			continue
		}
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", f[0], err)
		}
	}

	for _, a := range attachments {
		if err := writeAttachment(w, a); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	var material Material
	if err := c.do(ctx, http.MethodPost, "/materiais", bytes.NewReader(buf.Bytes()), w.FormDataContentType(), &material); err != nil {
		return nil, err
	}
	return &material, nil
}

func writeAttachment(w *multipart.Writer, a Attachment) error {
	if a.Field != FieldImage && a.Field != FieldPDF {
		return fmt.Errorf("unknown attachment field %q", a.Field)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, a.Field, filepath.Base(a.Filename)))
	contentType := a.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(a.Content)
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", a.Field, err)
	}
	if _, err := part.Write(a.Content); err != nil {
		return fmt.Errorf("failed to write %s part: %w", a.Field, err)
	}
	return nil
}

// MaterialUpdate carries the fields to change. Nil fields are left alone.
type MaterialUpdate struct {
	Name                *string `json:"nome,omitempty"`
	SerialNumber        *string `json:"numero_serie,omitempty"`
	Model               *string `json:"modelo,omitempty"`
	Manufacturer        *string `json:"fabricante,omitempty"`
	ManufactureDate     *string `json:"data_fabrico,omitempty"`
	AdditionalInfo      *string `json:"infor_ad,omitempty"`
	ManufacturerProfile *string `json:"perfil_fabricante,omitempty"`
	Photo               *string `json:"foto,omitempty"`
	PDF                 *string `json:"pdf,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u MaterialUpdate) Empty() bool {
	return u == MaterialUpdate{}
}

// UpdateMaterial applies a partial update.
func (c *Client) UpdateMaterial(ctx context.Context, id string, update MaterialUpdate) (*Material, error) {
	if update.Empty() {
		return nil, fmt.Errorf("nothing to update")
	}
	var material Material
	if err := c.doJSON(ctx, http.MethodPut, "/materiais/"+url.PathEscape(id), update, &material); err != nil {
		return nil, err
	}
	return &material, nil
}

// DeleteMaterial removes a material.
func (c *Client) DeleteMaterial(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/materiais/"+url.PathEscape(id), nil, nil)
}

// DataURL encodes content the way the API stores photos and PDFs.
func DataURL(contentType string, content []byte) string {
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(content)
}
