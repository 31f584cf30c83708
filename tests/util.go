// Package testutil carries helpers shared by service tests: an inert logger
// and constructors seeding the in-memory stores.
package testutil

import (
	"testing"

	"github.com/shuleapp/shule/core/user"
	notifysvc "github.com/shuleapp/shule/services/notifier"
	inmemblob "github.com/shuleapp/shule/storage/blob/inmem"
	inmemkv "github.com/shuleapp/shule/storage/kv/inmem"
)

// NopLogger satisfies core.Logger and drops everything.
type NopLogger struct{}

func (NopLogger) Enable(bool)                  {}
func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

// NewUserService wires a user service over fresh in-memory stores.
func NewUserService(t *testing.T) (*user.Service, *inmemkv.Store, *inmemblob.Store, *notifysvc.RecordingNotifier) {
	t.Helper()
	kv := inmemkv.New()
	blobs := inmemblob.New()
	notifier := notifysvc.NewRecordingNotifier()
	return user.NewService(kv, blobs, NopLogger{}, notifier), kv, blobs, notifier
}

// CreateUser creates a user with sane defaults, failing the test on error.
func CreateUser(t *testing.T, svc *user.Service, id, name, role, pwd string) user.Profile {
	t.Helper()
	usr, err := svc.Create(user.NewUser{
		UserID:          id,
		Name:            name,
		Role:            role,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
