package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	UID          uuid.UUID `gorm:"type:uuid;primaryKey"          json:"uid"`
	Username     string    `gorm:"not null"                      json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                      json:"-"`
	IsVerified   bool      `gorm:"not null;default:false"        json:"is_verified"`
	Role         Role      `gorm:"type:varchar(16);not null"   json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Tasks        []Task    `gorm:"foreignKey:UserUID"            json:"tasks,omitempty"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.UID == uuid.Nil {
		u.UID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

type Task struct {
	UID         uuid.UUID  `gorm:"type:uuid;primaryKey"  json:"uid"`
	Title       string     `gorm:"not null"              json:"title"`
	Description string     `gorm:"not null"              json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      string     `gorm:"index;not null"        json:"status"`
	Priority    *string    `gorm:"index"                 json:"priority"`
	AssignedTo  *string    `json:"assigned_to"`
	Tags        Tags       `json:"tags"`
	UserUID     *uuid.UUID `gorm:"type:uuid;index"       json:"user_uid"`
	CreatedAt   time.Time  `gorm:"index"                 json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.UID == uuid.Nil {
		t.UID = uuid.New()
	}
	return nil
}

// OwnedBy reports whether the task belongs to the given user.
func (t *Task) OwnedBy(uid uuid.UUID) bool {
	return t.UserUID != nil && *t.UserUID == uid
}
