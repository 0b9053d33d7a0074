package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Roles
const (
	RoleAdmin = "administrador"
	RoleUser  = "user"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User represents an account of the catalog
type User struct {
	BaseModel
	Name         string    `json:"nome" gorm:"not null"`
	Email        string    `json:"email" gorm:"unique;not null"`
	Phone        string    `json:"telefone"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         string    `json:"role" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsAdmin reports whether the user holds the administrador role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Material represents a catalog item. Photo and PDF hold data URLs.
// Columns carry the API field names so raw queries can use them.
type Material struct {
	BaseModel
	Name                string    `json:"nome" gorm:"column:nome;not null"`
	SerialNumber        string    `json:"numero_serie" gorm:"column:numero_serie;index"`
	Model               string    `json:"modelo" gorm:"column:modelo"`
	Manufacturer        string    `json:"fabricante" gorm:"column:fabricante"`
	ManufactureDate     string    `json:"data_fabrico" gorm:"column:data_fabrico"`
	AdditionalInfo      string    `json:"infor_ad" gorm:"column:infor_ad;type:text"`
	ManufacturerProfile string    `json:"perfil_fabricante" gorm:"column:perfil_fabricante;type:text"`
	Photo               string    `json:"foto" gorm:"column:foto;type:text"`
	PDF                 string    `json:"pdf" gorm:"column:pdf;type:text"`
	CreatedByID         string    `json:"created_by_id"`
	UpdatedAt           time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// RefreshToken is an issued refresh credential. Only its hash is stored.
type RefreshToken struct {
	BaseModel
	UserID    string     `json:"user_id" gorm:"not null;index"`
	TokenHash string     `json:"-" gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	RevokedAt *time.Time `json:"revoked_at"`

	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Active reports whether the token can still be exchanged at now
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&User{}, &Material{}, &RefreshToken{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
