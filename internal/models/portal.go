package models

import (
	"time"

	"github.com/google/uuid"
)

// AppRole mirrors the roles issued by the external auth provider.
type AppRole string

const (
	RoleAdmin  AppRole = "admin"
	RoleUser   AppRole = "user"
	RoleClient AppRole = "client"
)

// Profile is the portal-visible profile of an authenticated user. The account
// itself lives in the external auth provider; UserID is its subject id.
type Profile struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	Email     string    `json:"email" gorm:"type:varchar(255)"`
	FullName  string    `json:"full_name" gorm:"type:varchar(100)"`
	Phone     string    `json:"phone" gorm:"type:varchar(20)"`
	AvatarURL string    `json:"avatar_url" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// UserRole assigns an application role to a user.
type UserRole struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Role      AppRole   `json:"role" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserRole) TableName() string { return "user_roles" }

// Message is a dashboard message between a user and the agency. IsRead flips
// true when the owner views it.
type Message struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Subject     string    `json:"subject" gorm:"type:varchar(255);not null"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	IsFromAdmin bool      `json:"is_from_admin" gorm:"not null;default:false"`
	IsRead      bool      `json:"is_read" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// FAQ is a public frequently-asked question shown on the landing page.
type FAQ struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Question  string    `json:"question" gorm:"type:text;not null"`
	Answer    string    `json:"answer" gorm:"type:text;not null"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FAQ) TableName() string { return "faqs" }
