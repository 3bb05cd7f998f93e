package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// UserRole is the access level of an account
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// IsValid checks if the role is valid
func (r UserRole) IsValid() bool {
	return r == UserRoleAdmin || r == UserRoleUser
}

// User is a marketplace account
type User struct {
	UserID    string    `bson:"userId" json:"userId"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Avatar    string    `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role      UserRole  `bson:"role" json:"role"`
	IsActive  bool      `bson:"isActive" json:"isActive"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// NewUser creates an active account. Emails are stored lower-cased.
func NewUser(userID, name, email string, role UserRole, now time.Time) (*User, error) {
	u := &User{
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
	}
	if u.Name != "" {
		u.Avatar = fmt.Sprintf("https://ui-avatars.com/api/?name=%s", strings.ReplaceAll(u.Name, " ", "+"))
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks the user invariants
func (u *User) Validate() error {
	if strings.TrimSpace(u.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidUser)
	}
	if u.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidUser, u.Email)
	}
	if !u.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidUser, u.Role)
	}
	return nil
}

// Customer returns the identity used when this user places an order
func (u *User) Customer() *Customer {
	return &Customer{Name: u.Name, Email: u.Email}
}

// ToggleActive flips the active flag and returns the new value
func (u *User) ToggleActive() bool {
	u.IsActive = !u.IsActive
	return u.IsActive
}

// NormalizeEmail trims and lower-cases an email for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
