package main

import (
	"github.com/shuleapp/shule/core/user"
)

// resetPassword replaces a user's password through a self-edit session, so
// the same checks apply as in the app (a fresh admin session would need the
// old password, which is exactly what was lost).
func (cli *commandLine) resetPassword(id, pwd string) error {
	usr, err := cli.usrSvc.Get(id)
	if err != nil {
		return err
	}
	sess := cli.usrSvc.BeginSelfEdit(usr)
	return sess.Submit(user.ChangeCredentials{
		AuthPassword:    usr.Password,
		NewPassword:     pwd,
		ConfirmPassword: pwd,
	})
}
