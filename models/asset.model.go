package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Asset hosting backends
const (
	HostedCloudinary = "cloudinary"
	HostedLocal      = "local"
)

// Asset is a file stored by the asset store. Only the returned reference is kept.
type Asset struct {
	gorm.Model
	OriginalName string         `gorm:"size:255" json:"original_name"`
	Path         string         `gorm:"size:255" json:"path"`
	HostedAt     string         `gorm:"size:50" json:"hosted_at"`
	Name         string         `gorm:"size:255" json:"name"`
	Description  string         `gorm:"size:255" json:"description"`
	URL          string         `gorm:"size:1024" json:"url"`
	FileID       string         `gorm:"size:255;index" json:"file_id"`
	Type         string         `gorm:"size:100" json:"type"`
	Size         int64          `json:"size"`
	Meta         datatypes.JSON `json:"meta,omitempty"`
}
