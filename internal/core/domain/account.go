package domain

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleParent     Role = "parent"
	RoleStaff      Role = "staff"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superAdmin"
)

// StaffRole is a sub-role for staff accounts. It has no bearing on
// authorization in this service.
type StaffRole string

const (
	StaffCaregiver StaffRole = "caregiver"
	StaffTeacher   StaffRole = "teacher"
	StaffCook      StaffRole = "cook"
)

// MinPasswordLength is the shortest password accepted at registration
// and on password change.
const MinPasswordLength = 6

type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

type Account struct {
	ID               string           `json:"id"`
	Email            string           `json:"email"`
	Name             string           `json:"name"`
	Role             Role             `json:"role"`
	StaffRole        StaffRole        `json:"staff_role,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	Experience       int              `json:"experience,omitempty"`
	JoiningDate      *time.Time       `json:"joining_date,omitempty"`
	EmergencyContact EmergencyContact `json:"emergency_contact,omitempty"`
	PasswordHash     []byte           `json:"-"`
	CreatedAt        time.Time        `json:"created_at"`
}

// NormalizeEmail canonicalizes an email for lookup and storage.
// All store operations key accounts by the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword replaces the account secret with a salted bcrypt hash.
// It is the only path that writes PasswordHash, so unrelated profile
// updates never re-hash.
func (a *Account) SetPassword(plaintext string) error {
	if len(plaintext) < MinPasswordLength {
		return ErrWeakSecret
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

// CheckPassword compares a candidate password against the stored hash.
// bcrypt performs the comparison in constant relative time.
func (a *Account) CheckPassword(plaintext string) error {
	if err := bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(plaintext)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Privileged reports whether the account already holds admin rights,
// which blocks a new escalation petition.
func (a *Account) Privileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}
