// Package bulk runs one bulk action against the selected users and reports the outcome.
package bulk

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/GoADConsole/GoADConsole/internal/validation"
)

// Action names a bulk operation understood by the backend.
type Action string

const (
	ActionResetPassword  Action = "resetPassword"
	ActionDisable        Action = "disableAccounts"
	ActionEnable         Action = "enableAccounts"
	ActionUnlock         Action = "unlockAccounts"
	ActionMoveToOU       Action = "moveToOU"
	ActionAddDescription Action = "addDescription"
)

// Actions lists every action in menu order.
var Actions = []Action{
	ActionResetPassword,
	ActionDisable,
	ActionEnable,
	ActionUnlock,
	ActionMoveToOU,
	ActionAddDescription,
}

var labels = map[Action]string{
	ActionResetPassword:  "Reset password",
	ActionDisable:        "Disable accounts",
	ActionEnable:         "Enable accounts",
	ActionUnlock:         "Unlock accounts",
	ActionMoveToOU:       "Move to OU",
	ActionAddDescription: "Add description",
}

// Known reports whether a is one of Actions.
func (a Action) Known() bool {
	_, ok := labels[a]

	return ok
}

// Label is the human readable name of the action.
func (a Action) Label() string {
	if l, ok := labels[a]; ok {
		return l
	}

	return string(a)
}

const minPasswordLength = 8

// Payload is the request body of a bulk action.
type Payload struct {
	Action              Action   `json:"action" form:"action" validate:"required,oneof=resetPassword disableAccounts enableAccounts unlockAccounts moveToOU addDescription"`
	Users               []string `json:"users" form:"users" validate:"required,min=1,dive,required"`
	NewPassword         string   `json:"newPassword,omitempty" form:"newPassword" validate:"omitempty,min=8,max=256"`
	GeneratePassword    bool     `json:"generatePassword,omitempty" form:"generatePassword"`
	ForcePasswordChange bool     `json:"forcePasswordChange,omitempty" form:"forcePasswordChange"`
	TargetOU            string   `json:"targetOU,omitempty" form:"targetOU" validate:"omitempty,dn"`
	Description         string   `json:"description,omitempty" form:"description" validate:"omitempty,max=1024"`
}

// Result is the outcome for one user.
type Result struct {
	UserDistinguishedName string `json:"userDistinguishedName"`
	Success               bool   `json:"success"`
	Message               string `json:"message"`
	ErrorDetails          string `json:"errorDetails,omitempty"`
}

// Response is the aggregate outcome of a bulk action.
type Response struct {
	Action       Action   `json:"action"`
	TotalCount   int      `json:"totalCount"`
	SuccessCount int      `json:"successCount"`
	FailureCount int      `json:"failureCount"`
	Results      []Result `json:"results"`
}

// Failed returns the results that did not succeed.
func (r *Response) Failed() []Result {
	var out []Result

	for _, res := range r.Results {
		if !res.Success {
			out = append(out, res)
		}
	}

	return out
}

var (
	// ErrNoUsers is returned when a bulk action is requested without any selected user.
	ErrNoUsers = errors.New("no users selected")

	// ErrInvalidPayload wraps every validation failure.
	ErrInvalidPayload = errors.New("invalid bulk action")
)

// Validate checks the payload including the fields each action requires.
func (p *Payload) Validate(v *validator.Validate) error {
	if len(p.Users) == 0 {
		return ErrNoUsers
	}

	if err := v.Struct(p); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(validation.Messages(err), ", "))
	}

	switch p.Action {
	case ActionResetPassword:
		if !p.GeneratePassword && len(p.NewPassword) < minPasswordLength {
			return fmt.Errorf("%w: a new password of at least %d characters is required", ErrInvalidPayload, minPasswordLength)
		}
	case ActionMoveToOU:
		if p.TargetOU == "" {
			return fmt.Errorf("%w: target OU is required", ErrInvalidPayload)
		}
	case ActionAddDescription:
		if strings.TrimSpace(p.Description) == "" {
			return fmt.Errorf("%w: description is required", ErrInvalidPayload)
		}
	}

	return nil
}

// normalize drops fields the action does not use so they never reach the backend.
func (p Payload) normalize() Payload {
	out := Payload{Action: p.Action, Users: p.Users}

	switch p.Action {
	case ActionResetPassword:
		out.GeneratePassword = p.GeneratePassword
		out.ForcePasswordChange = p.ForcePasswordChange
		if !p.GeneratePassword {
			out.NewPassword = p.NewPassword
		}
	case ActionMoveToOU:
		out.TargetOU = p.TargetOU
	case ActionAddDescription:
		out.Description = strings.TrimSpace(p.Description)
	}

	return out
}
