package main

import (
	"github.com/shuleapp/shule/core/user"
)

// addUser creates a user.Profile; an empty id draws from the EMP sequence.
func (cli *commandLine) addUser(id, name, email, role, pwd string) error {
	_, err := cli.usrSvc.Create(user.NewUser{
		UserID:          id,
		Name:            name,
		Email:           email,
		Role:            role,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	return err
}
