package user

import (
	"strings"

	"github.com/shuleapp/shule/core"
)

// Roles
const (
	RoleAdmin    = "Admin"
	RoleEmployee = "Employee"
	RoleStudent  = "Student"

	// EmployeeIDPrefix scopes the generated ID sequence for staff accounts.
	EmployeeIDPrefix = "EMP"
)

var AllRoles = []string{RoleAdmin, RoleEmployee, RoleStudent}

// NotificationSettings is the fixed set of per-user notification toggles.
type NotificationSettings struct {
	FeeReminders       bool `json:"feeReminders"`
	EventAnnouncements bool `json:"eventAnnouncements"`
	ExamResults        bool `json:"examResults"`
	GeneralCirculars   bool `json:"generalCirculars"`
}

// Profile is a user account. UserID is unique within the users collection,
// case-insensitively, and doubles as the photo blob key.
//
// Password is stored in plaintext: the reveal-by-password flow returns the
// stored value verbatim, which rules out hashing. Known weakness, kept for
// behavioral parity with the system this replaces.
type Profile struct {
	UserID        string               `json:"userId"`
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	Phone         string               `json:"phone"`
	Role          string               `json:"role"`
	Password      string               `json:"password"`
	HasPhoto      bool                 `json:"hasPhoto"`
	DOB           string               `json:"dob"`
	Address       string               `json:"address"`
	Notifications NotificationSettings `json:"notificationSettings"`
}

func (p Profile) Key() string { return p.UserID }

func (p Profile) CheckPassword(pwd string) bool { return p.Password == pwd }

func (p Profile) IsAdmin() bool    { return p.Role == RoleAdmin }
func (p Profile) IsEmployee() bool { return p.Role == RoleEmployee }
func (p Profile) IsStudent() bool  { return p.Role == RoleStudent }

// NewUser contains information needed to create a new Profile.
// An empty UserID means one is generated from the EMP sequence.
type NewUser struct {
	UserID          string               `json:"userId" validate:"omitempty,nospace"`
	Name            string               `json:"name" validate:"required"`
	Email           string               `json:"email" validate:"omitempty,email"`
	Phone           string               `json:"phone"`
	Role            string               `json:"role" validate:"required,userrole"`
	Password        string               `json:"password" validate:"required,min=6"`
	PasswordConfirm string               `json:"password_confirm" validate:"required,eqfield=Password"`
	DOB             string               `json:"dob"`
	Address         string               `json:"address"`
	Notifications   NotificationSettings `json:"notificationSettings"`
}

func (nu *NewUser) Validate() error {
	nu.UserID = core.CleanString(nu.UserID)
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)
	return core.TranslateError(core.Validate.Struct(nu))
}

// UpdateUser defines what information may be provided to modify an existing
// Profile. Empty fields retain the current values; UserID and Password moves
// go through the credential-change session instead.
type UpdateUser struct {
	Name          string                `json:"name"`
	Email         string                `json:"email" validate:"omitempty,email"`
	Phone         string                `json:"phone"`
	Role          string                `json:"role" validate:"omitempty,userrole"`
	DOB           string                `json:"dob"`
	Address       string                `json:"address"`
	Notifications *NotificationSettings `json:"notificationSettings"`
}

func (uu *UpdateUser) Validate(orig Profile) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = orig.Name
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = orig.Email
	}
	if uu.Phone = core.CleanString(uu.Phone); uu.Phone == "" {
		uu.Phone = orig.Phone
	}
	if uu.Role == "" {
		uu.Role = orig.Role
	}
	if uu.DOB == "" {
		uu.DOB = orig.DOB
	}
	if uu.Address == "" {
		uu.Address = orig.Address
	}
	return core.TranslateError(core.Validate.Struct(uu))
}

// QueryFilter applies AND on available fields. Search does a
// case-insensitive match on one of UserID, Name or Email.
type QueryFilter struct {
	Search string
	Role   string
}

func (qf *QueryFilter) IsEmpty() bool { return qf.Search == "" && qf.Role == "" }

func (qf *QueryFilter) Clean() { qf.Search = core.CleanString(qf.Search) }

func (qf *QueryFilter) matches(p Profile) bool {
	if qf.Role != "" && p.Role != qf.Role {
		return false
	}
	if qf.Search != "" {
		search := strings.ToLower(qf.Search)
		if !strings.Contains(strings.ToLower(p.UserID), search) &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Email), search) {
			return false
		}
	}
	return true
}
