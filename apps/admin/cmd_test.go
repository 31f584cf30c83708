package main

import (
	"errors"
	"testing"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/user"
	testutil "github.com/shuleapp/shule/tests"
)

func setup(t *testing.T) (*commandLine, *user.Service) {
	svc, _, _, _ := testutil.NewUserService(t)
	return &commandLine{usrSvc: svc}, svc
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string   // returned by the mocked password prompt
	wantErr error
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, svc := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "name required", args: []string{"adduser", "-role", "Admin"}, pwd: "hunter22", wantErr: errHelp},
		{name: "name but no password", args: []string{"adduser", "-name", "Asha Wane"}, wantErr: errHelp},
		{name: "default role", args: []string{"adduser", "-name", "Asha Wane"}, pwd: "hunter22"},
		{name: "explicit id and role", args: []string{"adduser", "-id", "admin", "-name", "Head Admin", "-role", "Admin"}, pwd: "adminpwd"},
	}
	runCLITests(t, cli, tests)

	all, err := svc.All()
	if err != nil {
		t.Fatalf("All() failed, %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d users, want 2", len(all))
	}

	usr, err := svc.Get("EMP001")
	if err != nil {
		t.Fatalf("Get() failed, %v", err)
	}
	if usr.Role != user.RoleEmployee {
		t.Errorf("got role %s, want %s", usr.Role, user.RoleEmployee)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, svc := setup(t)
	usr := testutil.CreateUser(t, svc, "EMP001", "Asha Wane", user.RoleEmployee, "hunter22")

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "id but no password", args: []string{"resetpassword", "-id", usr.UserID}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-id", "lol"}, pwd: "hunter23", wantErr: core.ErrNotFound},
		{name: "too short", args: []string{"resetpassword", "-id", usr.UserID}, pwd: "abc", wantErr: user.ErrPasswordTooShort},
		{name: "reset", args: []string{"resetpassword", "-id", usr.UserID}, pwd: "hunter23"},
	}
	runCLITests(t, cli, tests)

	refreshed, err := svc.Get(usr.UserID)
	if err != nil {
		t.Fatalf("Get() failed, %v", err)
	}
	if refreshed.Password != "hunter23" {
		t.Error("failed to update new password")
	}
}

func Test_commandLine_listUsers(t *testing.T) {
	cli, svc := setup(t)
	testutil.CreateUser(t, svc, "EMP001", "Asha Wane", user.RoleEmployee, "hunter22")

	tests := []cliTest{
		{name: "all", args: []string{"listusers"}},
		{name: "by role", args: []string{"listusers", "-role", "Employee"}},
		{name: "by search", args: []string{"listusers", "-search", "asha"}},
	}
	runCLITests(t, cli, tests)
}
