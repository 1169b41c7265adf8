package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterUserMessage is the registration payload. Role selects the
// credential partition; it defaults to the applicant role.
type RegisterUserMessage struct {
	DisplayName string `json:"display_name" form:"display_name"`
	Email       string `json:"email" form:"email"`
	Role        string `json:"role" form:"role"`
	Password    string `json:"password" form:"password"`
	UseHashid   bool   `json:"-" form:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will validate the payload
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.DisplayName, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 512)),
		validation.Field(&e.Role, validation.In("", string(RoleUser), string(RoleAdmin))),
	)
}

// RegisterUser creates a credential in the partition the role selects. The
// record ID is derived deterministically from the email when UseHashid is
// set, which makes retries idempotent at the ID level.
func RegisterUser(ctx context.Context, repo RepositoryManager, msg RegisterUserMessage) (*Credential, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
	}

	if err := msg.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithCode(goerrors.CodeBadRequest)
	}

	record := &Credential{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(msg.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		record.PasswordHash = hash
		record.Email = NormalizeEmail(msg.Email)
		record.DisplayName = msg.DisplayName
		record.Role = Role(msg.Role)
		if msg.UseHashid {
			if id, err := hashid.NewUUID(record.Email); err == nil {
				record.ID = id
			}
		}

		if record, err = repo.Credentials().RegisterTx(ctx, tx, record); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create credential").
				WithCode(goerrors.CodeConflict)
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "registration transaction failed")
	}

	return record, nil
}
