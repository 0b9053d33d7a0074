package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Herculano1234/MuseuCom/internal/models"
)

const (
	defaultPage    = 1
	defaultLimit   = 12
	maxLimit       = 100
	maxUploadSize  = 10 << 20
	fieldImage     = "imagem"
	fieldPDF       = "pdf"
	pdfContentType = "application/pdf"
	dataURLImage   = "data:image/"
	dataURLPDF     = "data:" + pdfContentType
)

var errDuplicateSerial = errors.New("a material with this serial number already exists")

// MaterialForm holds the multipart fields of a new material
type MaterialForm struct {
	Name                string `form:"nome" validate:"required,max=200"`
	Model               string `form:"modelo" validate:"max=120"`
	Manufacturer        string `form:"fabricante" validate:"max=120"`
	ManufactureYear     string `form:"ano_fabrico" validate:"max=32"`
	SerialNumber        string `form:"numero_serie" validate:"omitempty,max=64,serial"`
	ManufacturerProfile string `form:"perfil_fabricante"`
	AdditionalInfo      string `form:"informacoes_adicionais"`
}

// UpdateMaterialRequest carries the fields to change. Nil fields are left alone.
type UpdateMaterialRequest struct {
	Name                *string `json:"nome"`
	SerialNumber        *string `json:"numero_serie"`
	Model               *string `json:"modelo"`
	Manufacturer        *string `json:"fabricante"`
	ManufactureDate     *string `json:"data_fabrico"`
	AdditionalInfo      *string `json:"infor_ad"`
	ManufacturerProfile *string `json:"perfil_fabricante"`
	Photo               *string `json:"foto"`
	PDF                 *string `json:"pdf"`
}

func (r *UpdateMaterialRequest) apply(m *models.Material) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&m.Name, r.Name)
	set(&m.SerialNumber, r.SerialNumber)
	set(&m.Model, r.Model)
	set(&m.Manufacturer, r.Manufacturer)
	set(&m.ManufactureDate, r.ManufactureDate)
	set(&m.AdditionalInfo, r.AdditionalInfo)
	set(&m.ManufacturerProfile, r.ManufacturerProfile)
	set(&m.Photo, r.Photo)
	set(&m.PDF, r.PDF)
}

func formFromMaterial(m *models.Material) MaterialForm {
	return MaterialForm{
		Name:                m.Name,
		Model:               m.Model,
		Manufacturer:        m.Manufacturer,
		ManufactureYear:     m.ManufactureDate,
		SerialNumber:        m.SerialNumber,
		ManufacturerProfile: m.ManufacturerProfile,
		AdditionalInfo:      m.AdditionalInfo,
	}
}

func validateDataURLs(m *models.Material) error {
	if m.Photo != "" && !strings.HasPrefix(m.Photo, dataURLImage) {
		return fmt.Errorf("foto must be an image data URL")
	}
	if m.PDF != "" && !strings.HasPrefix(m.PDF, dataURLPDF) {
		return fmt.Errorf("pdf must be a PDF data URL")
	}
	return nil
}

// checkSerial rejects a serial number already used by another material
func (s *Server) checkSerial(serial, exceptID string) error {
	if serial == "" {
		return nil
	}
	query := s.db.Model(&models.Material{}).Where("numero_serie = ?", serial)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errDuplicateSerial
	}
	return nil
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	if n < 1 {
		return fallback, nil
	}
	return n, nil
}

// @Summary List materials
// @Tags materials
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 12, max 100)"
// @Param q query string false "Search in name, serial number and manufacturer"
// @Success 200 {array} models.Material
// @Router /materiais [get]
func (s *Server) listMaterials(c *gin.Context) {
	page, err := queryInt(c, "page", defaultPage)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := queryInt(c, "limit", defaultLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit = min(limit, maxLimit)

	query := s.db.Model(&models.Material{})
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + q + "%"
		query = query.Where("nome LIKE ? OR numero_serie LIKE ? OR fabricante LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count materials")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	materials := []models.Material{}
	if err := query.Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&materials).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list materials")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Header(totalCountHeader, strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, materials)
}

// @Router /materiais/:id [get]
// @Param id path string true "Material ID"
// @Success 200 {object} models.Material
func (s *Server) getMaterial(c *gin.Context) {
	var material models.Material
	if err := models.FindByID(s.db, c.Param("id"), &material); err != nil {
		s.respondMaterialLookup(c, err)
		return
	}
	c.JSON(http.StatusOK, material)
}

// @Router /materiais/serie/:serial [get]
// @Param serial path string true "Serial number"
// @Success 200 {object} models.Material
func (s *Server) getMaterialBySerial(c *gin.Context) {
	var material models.Material
	if err := s.db.Where("numero_serie = ?", c.Param("serial")).First(&material).Error; err != nil {
		s.respondMaterialLookup(c, err)
		return
	}
	c.JSON(http.StatusOK, material)
}

func (s *Server) respondMaterialLookup(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Material not found"})
		return
	}
	s.logger.Error().Err(err).Msg("Failed to find material")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// @Summary Create a material
// @Tags materials
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} models.Material
// @Router /materiais [post]
func (s *Server) createMaterial(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		s.logger.Error().Msg("Session data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var form MaterialForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	form.Name = strings.TrimSpace(form.Name)
	form.SerialNumber = strings.TrimSpace(form.SerialNumber)

	if err := s.validator.Struct(&form); err != nil {
		s.logger.Warn().Err(err).Msg("Request validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	photo, err := formFileDataURL(c, fieldImage, "image/")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pdf, err := formFileDataURL(c, fieldPDF, pdfContentType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.checkSerial(form.SerialNumber, ""); err != nil {
		s.respondSerialCheck(c, err)
		return
	}

	material := &models.Material{
		Name:                form.Name,
		SerialNumber:        form.SerialNumber,
		Model:               form.Model,
		Manufacturer:        form.Manufacturer,
		ManufactureDate:     form.ManufactureYear,
		AdditionalInfo:      form.AdditionalInfo,
		ManufacturerProfile: form.ManufacturerProfile,
		Photo:               photo,
		PDF:                 pdf,
		CreatedByID:         sessionData.UserID,
	}
	if err := s.db.Create(material).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create material")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create material"})
		return
	}

	s.logger.Info().Str("material_id", material.ID).Str("user_id", sessionData.UserID).Msg("Material created")

	c.JSON(http.StatusCreated, material)
}

// formFileDataURL reads an optional upload and encodes it as a data URL.
// The sniffed content type must start with want.
func formFileDataURL(c *gin.Context, field, want string) (string, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("invalid %s upload: %w", field, err)
	}
	if header.Size > maxUploadSize {
		return "", fmt.Errorf("%s exceeds %d bytes", field, maxUploadSize)
	}

	content, err := readUpload(header)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", field, err)
	}

	contentType := http.DetectContentType(content)
	if !strings.HasPrefix(contentType, want) {
		return "", fmt.Errorf("%s has unsupported type %s", field, contentType)
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(content), nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadSize))
}

func (s *Server) respondSerialCheck(c *gin.Context, err error) {
	if errors.Is(err, errDuplicateSerial) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error().Err(err).Msg("Failed to check serial number")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// @Summary Update a material
// @Tags materials
// @Accept json
// @Produce json
// @Param id path string true "Material ID"
// @Param body body UpdateMaterialRequest true "Fields to change"
// @Success 200 {object} models.Material
// @Router /materiais/:id [put]
func (s *Server) updateMaterial(c *gin.Context) {
	var req UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var material models.Material
	if err := models.FindByID(s.db, c.Param("id"), &material); err != nil {
		s.respondMaterialLookup(c, err)
		return
	}

	req.apply(&material)

	form := formFromMaterial(&material)
	if err := s.validator.Struct(&form); err != nil {
		s.logger.Warn().Err(err).Msg("Request validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}
	if err := validateDataURLs(&material); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.SerialNumber != nil {
		if err := s.checkSerial(material.SerialNumber, material.ID); err != nil {
			s.respondSerialCheck(c, err)
			return
		}
	}

	if err := s.db.Save(&material).Error; err != nil {
		s.logger.Error().Err(err).Str("material_id", material.ID).Msg("Failed to update material")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update material"})
		return
	}

	c.JSON(http.StatusOK, material)
}

// @Router /materiais/:id [delete]
// @Param id path string true "Material ID"
// @Success 204
func (s *Server) deleteMaterial(c *gin.Context) {
	result := s.db.Where("id = ?", c.Param("id")).Delete(&models.Material{})
	if result.Error != nil {
		s.logger.Error().Err(result.Error).Msg("Failed to delete material")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete material"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Material not found"})
		return
	}

	s.logger.Info().Str("material_id", c.Param("id")).Msg("Material deleted")
	c.Status(http.StatusNoContent)
}
