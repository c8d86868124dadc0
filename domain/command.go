package domain

import (
	"campus-chat/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Command interface {
	Validate() error
}

type StartConversationCommand struct {
	InitiatorID string `validate:"required"`
	PeerID      string `validate:"required"`
}

func (c StartConversationCommand) Validate() error {
	return validateStruct(c)
}

// SendMessageCommand carries a message to append.
// Content emptiness is a Message Log rule, not a shape rule, so it is not tagged here.
type SendMessageCommand struct {
	ThreadID   ThreadID `validate:"required"`
	SenderID   string   `validate:"required"`
	SenderName string
	Content    string
}

func (c SendMessageCommand) Validate() error {
	return validateStruct(c)
}

func ValidateUser(u User) error {
	if err := validateStruct(u); err != nil {
		return err
	}
	if _, err := DashboardFor(u.Role); err != nil {
		return fmt.Errorf("%w: user %s: %w", errors.ErrInvalidCommand, u.ID, err)
	}
	return nil
}

func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidCommand, err)
	}
	return nil
}
