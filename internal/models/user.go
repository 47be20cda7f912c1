package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	DefaultImageURL       = "/static/images/default-pic.png"
	DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"
)

type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"uniqueIndex;not null"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	Password       string    `json:"-" gorm:"not null"` // bcrypt hash
	ImageURL       string    `json:"image_url"`
	HeaderImageURL string    `json:"header_image_url"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	FirebaseUID    *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserCompact is the author block embedded in messages and notifications.
type UserCompact struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"image_url"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Username: u.Username, ImageURL: u.ImageURL}
}

type SignupRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=1,max=30"`
	Email    string `json:"email" form:"email" validate:"required,email,max=50"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
	ImageURL string `json:"image_url" form:"image_url" validate:"omitempty,url"`
}

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// UpdateProfileRequest must carry the current password to be accepted.
type UpdateProfileRequest struct {
	Username       string `json:"username" form:"username" validate:"required,min=1,max=30"`
	Email          string `json:"email" form:"email" validate:"required,email,max=50"`
	ImageURL       string `json:"image_url" form:"image_url" validate:"omitempty,url"`
	HeaderImageURL string `json:"header_image_url" form:"header_image_url" validate:"omitempty,url"`
	Bio            string `json:"bio" form:"bio" validate:"max=200"`
	Location       string `json:"location" form:"location" validate:"max=30"`
	Password       string `json:"password" form:"password" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
