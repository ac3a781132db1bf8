package service

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"

	"chat-relay/internal/common/constants"
	commonerrors "chat-relay/internal/common/errors"
)

var (
	ErrValidationUsernameLength = commonerrors.NewDomainError(
		"VALIDATION_USERNAME_LENGTH",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		fmt.Sprintf("username must be %d-%d characters",
			constants.UsernameMinLength, constants.UsernameMaxLength),
	)

	ErrValidationUsernameChars = commonerrors.NewDomainError(
		"VALIDATION_USERNAME_CHARS",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"username may contain only latin letters, digits, '_' and '-'",
	)

	ErrValidationPasswordLength = commonerrors.NewDomainError(
		"VALIDATION_PASSWORD_LENGTH",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		fmt.Sprintf("password must be %d-%d characters",
			constants.PasswordMinLength, constants.PasswordMaxLength),
	)
)

var (
	validate = validator.New()

	usernameLengthTag = fmt.Sprintf("required,min=%d,max=%d",
		constants.UsernameMinLength, constants.UsernameMaxLength)
	passwordLengthTag = fmt.Sprintf("required,min=%d,max=%d",
		constants.PasswordMinLength, constants.PasswordMaxLength)

	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

func validateCredentials(username, password string) error {
	if err := validate.Var(username, usernameLengthTag); err != nil {
		return ErrValidationUsernameLength
	}

	if !usernameRegex.MatchString(username) {
		return ErrValidationUsernameChars
	}

	if err := validate.Var(password, passwordLengthTag); err != nil {
		return ErrValidationPasswordLength
	}

	return nil
}
