package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserType describes how a user participates in the marketplace.
type UserType string

const (
	UserTypePoster UserType = "poster"
	UserTypeHelper UserType = "helper"
	UserTypeBoth   UserType = "both"
)

// UserVerificationStatus is the advisory verification flag on a user profile.
type UserVerificationStatus string

const (
	UserVerificationPending  UserVerificationStatus = "pending"
	UserVerificationVerified UserVerificationStatus = "verified"
	UserVerificationRejected UserVerificationStatus = "rejected"
)

// DefaultTrustScore is the score every user starts with at registration.
// Recomputation from actual history always overwrites it, even down to 0.
const DefaultTrustScore = 50

// Location holds address fields plus optional point coordinates.
// Lat/Lng are pointers: a profile or task without coordinates is legal,
// it just never appears in geo discovery.
type Location struct {
	Address  string   `json:"address,omitempty" gorm:"size:255"`
	City     string   `json:"city,omitempty" gorm:"size:100"`
	District string   `json:"district,omitempty" gorm:"size:100"`
	State    string   `json:"state,omitempty" gorm:"size:100;default:'Kerala'"`
	Pincode  string   `json:"pincode,omitempty" gorm:"size:20"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
}

// HasCoordinates reports whether both coordinates are present.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lng != nil
}

// User represents a marketplace participant (poster, helper, or both).
type User struct {
	ID                 uuid.UUID              `json:"id" gorm:"type:char(36);primaryKey"`
	Name               string                 `json:"name" gorm:"size:255;not null"`
	Email              string                 `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash       string                 `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Phone              string                 `json:"phone" gorm:"size:20;not null"`
	UserType           UserType               `json:"user_type" gorm:"type:varchar(10);not null;default:'both'"`
	Location           Location               `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	Bio                string                 `json:"bio,omitempty" gorm:"size:500"`
	Skills             []string               `json:"skills,omitempty" gorm:"serializer:json"`
	ProfilePicture     string                 `json:"profile_picture,omitempty" gorm:"size:512"`
	TrustScore         int                    `json:"trust_score" gorm:"not null;default:50"`
	VerificationStatus UserVerificationStatus `json:"verification_status" gorm:"type:varchar(16);not null;default:'pending'"`
	VerificationNotes  string                 `json:"verification_notes,omitempty" gorm:"size:1000"`
	CompletedTasks     int                    `json:"completed_tasks" gorm:"not null;default:0"`
	Active             bool                   `json:"active" gorm:"not null;default:true;index"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
