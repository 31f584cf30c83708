package user

import (
	"github.com/go-playground/validator/v10"

	"github.com/shuleapp/shule/core"
)

var (
	userRoleTag  = "userrole"
	userRoleText = "invalid role"
)

func init() {
	_ = core.Validate.RegisterValidation(userRoleTag, userRoleValidation)
	core.RegisterCustomTranslation(userRoleTag, userRoleText)
}

// userRoleValidation checks that the provided role is one of AllRoles.
func userRoleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}
