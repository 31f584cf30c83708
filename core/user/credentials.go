package user

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
)

// A credential-change session walks Browsing -> Editing -> Committed or
// Rejected. Rejection keeps the entered values; Retry returns to Editing.
type SessionState int

const (
	Browsing SessionState = iota
	Editing
	Committed
	Rejected
)

func (s SessionState) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case Editing:
		return "editing"
	case Committed:
		return "committed"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

var (
	ErrNotAllowed = errors.New("not allowed to manage user credentials")
	ErrBadTarget  = errors.New("employees may only manage student credentials")

	ErrIDHasSpaces      = errors.New("user ID must not contain spaces")
	ErrUserIDTaken      = errors.New("this user ID is already taken")
	ErrPasswordTooShort = errors.New("new password must be at least 6 characters")
	ErrPasswordMismatch = errors.New("new password and confirmation do not match")

	// wrong authorization password; wording differs for self vs. delegated
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrWrongActorPassword = errors.New("your password is incorrect")

	// ErrNoChanges is informational: the submission changed nothing and the
	// record was left as is.
	ErrNoChanges = errors.New("nothing to update")

	errSessionState = errors.New("operation not valid in this session state")
)

const minPasswordLen = 6

// ChangeCredentials is the credential-change form. AuthPassword authorizes
// the change: the target's own password on self-edit, the acting user's
// password on delegated edit.
type ChangeCredentials struct {
	NewUserID       string `json:"userId"`
	AuthPassword    string `json:"authPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type CredentialSession struct {
	svc      *Service
	actor    Profile
	target   Profile
	selfEdit bool
	state    SessionState
}

// BeginCredentialSession opens a browsing session; only Admin and Employee
// actors may browse other users.
func (svc *Service) BeginCredentialSession(actor Profile) (*CredentialSession, error) {
	if !actor.IsAdmin() && !actor.IsEmployee() {
		return nil, ErrNotAllowed
	}
	return &CredentialSession{svc: svc, actor: actor, state: Browsing}, nil
}

// BeginSelfEdit opens a session directly in Editing with the actor as
// target; any role may edit their own credentials.
func (svc *Service) BeginSelfEdit(actor Profile) *CredentialSession {
	return &CredentialSession{svc: svc, actor: actor, target: actor, selfEdit: true, state: Editing}
}

func (s *CredentialSession) State() SessionState { return s.state }
func (s *CredentialSession) Actor() Profile      { return s.actor }
func (s *CredentialSession) Target() Profile     { return s.target }
func (s *CredentialSession) SelfEdit() bool      { return s.selfEdit }

// Select picks the edit target. Employees may only manage Student targets
// (or themselves); Admins may manage anyone.
func (s *CredentialSession) Select(targetID string) error {
	if s.state != Browsing {
		return errors.Wrap(errSessionState, "select")
	}
	target, err := s.svc.Get(targetID)
	if err != nil {
		return err
	}
	selfEdit := strings.EqualFold(s.actor.UserID, target.UserID)
	if s.actor.IsEmployee() && !selfEdit && !target.IsStudent() {
		return ErrBadTarget
	}
	s.target = target
	s.selfEdit = selfEdit
	s.state = Editing
	return nil
}

// Retry returns a rejected session to Editing, keeping the selected target.
func (s *CredentialSession) Retry() error {
	if s.state != Rejected {
		return errors.Wrap(errSessionState, "retry")
	}
	s.state = Editing
	return nil
}

// Submit runs the credential-change checks in order and commits on success.
// Any failed check moves the session to Rejected and returns the specific
// error; an unchanged submission is a no-op reported as ErrNoChanges with
// the session staying in Editing.
func (s *CredentialSession) Submit(cc ChangeCredentials) error {
	if s.state != Editing {
		return errors.Wrap(errSessionState, "submit")
	}
	reject := func(err error) error {
		s.state = Rejected
		return err
	}

	newID := core.CleanString(cc.NewUserID)
	if newID == "" {
		newID = s.target.UserID
	}

	// a. no whitespace in the new ID
	if strings.IndexFunc(newID, unicode.IsSpace) >= 0 {
		return reject(ErrIDHasSpaces)
	}

	// b. authorization: target's own password on self-edit, actor's otherwise
	if s.selfEdit {
		if !s.target.CheckPassword(cc.AuthPassword) {
			return reject(ErrWrongPassword)
		}
	} else if !s.actor.CheckPassword(cc.AuthPassword) {
		return reject(ErrWrongActorPassword)
	}

	// c. new password policy
	if cc.NewPassword != "" {
		if len(cc.NewPassword) < minPasswordLen {
			return reject(ErrPasswordTooShort)
		}
		if cc.NewPassword != cc.ConfirmPassword {
			return reject(ErrPasswordMismatch)
		}
	}

	idChanged := !strings.EqualFold(newID, s.target.UserID)
	pwdChanged := cc.NewPassword != "" && cc.NewPassword != s.target.Password
	// exact compare: a case-only ID change still commits and re-keys the blob
	keyChanged := newID != s.target.UserID

	// e. unchanged submission is a no-op, not an error
	if !keyChanged && !pwdChanged {
		s.svc.notifier.Info("No changes to save")
		return ErrNoChanges
	}

	oldID := s.target.UserID
	updated := s.target
	updated.UserID = newID
	if cc.NewPassword != "" {
		updated.Password = cc.NewPassword
	}

	err := s.svc.users.Mutate(func(items []Profile) ([]Profile, error) {
		idx := indexOf(items, oldID)
		if idx < 0 {
			return nil, core.ErrNotFound
		}
		// d. changed ID must not be in use by any other record
		if idChanged {
			if err := checkIDFree(items, newID, oldID); err != nil {
				return nil, ErrUserIDTaken
			}
		}
		items[idx] = updated
		return items, nil
	})
	if err != nil {
		return reject(err)
	}

	// Re-key the photo blob only after the record commit succeeded; a rejected
	// submission must never touch any blob. A failed move here leaves the blob
	// under the old key and the record committed, the accepted consistency
	// window between the two stores.
	if keyChanged && updated.HasPhoto {
		if err := s.svc.moveBlob(oldID, newID); err != nil {
			s.svc.logger.Warn("photo re-key failed", oldID, newID, err)
			s.svc.notifier.Error("Could not move the photo for " + updated.UserID)
		}
	}

	s.target = updated
	if s.selfEdit {
		// the actor's own session identity follows the commit
		s.actor = updated
	}
	s.state = Committed
	s.svc.notifier.Success("Credentials updated for " + updated.UserID)
	return nil
}

// Reveal returns the target's plaintext password iff candidate matches the
// acting user's own password. It is orthogonal to the edit form: it never
// changes session state or the record.
func (s *CredentialSession) Reveal(candidate string) (string, error) {
	if s.target.UserID == "" {
		return "", errors.Wrap(errSessionState, "reveal")
	}
	if !s.actor.CheckPassword(candidate) {
		return "", ErrWrongActorPassword
	}
	return s.target.Password, nil
}

// moveBlob copies the blob under oldKey to newKey, then drops the old entry.
func (svc *Service) moveBlob(oldKey, newKey string) error {
	blob, err := svc.blobs.Get(oldKey)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return nil
		}
		return err
	}
	if err := svc.blobs.Put(newKey, blob); err != nil {
		return err
	}
	return svc.blobs.Delete(oldKey)
}
