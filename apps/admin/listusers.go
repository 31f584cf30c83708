package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shuleapp/shule/core/user"
)

func (cli *commandLine) listUsers(role, search string) error {
	users, err := cli.usrSvc.Filter(user.QueryFilter{Role: role, Search: search})
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tEMAIL\tPHOTO")
	for _, u := range users {
		photo := ""
		if u.HasPhoto {
			photo = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.UserID, u.Name, u.Role, u.Email, photo)
	}
	return w.Flush()
}
