package authorization

import (
	"context"
	"errors"
)

type Service interface {
	// Authorize binds actor to role and checks the role's policy for object/action.
	Authorize(ctx context.Context, actor string, role string, object string, action string) error
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)
