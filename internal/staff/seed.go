package staff

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	id "pintcert/pkg/domain"
	"pintcert/pkg/platform/sentinel"
)

// SeedSuperadmin creates the bootstrap superadmin account when it does
// not exist yet. An account already holding the email is left untouched.
func SeedSuperadmin(ctx context.Context, store Store, email, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	account, err := NewStaff(id.StaffID(uuid.New()), "Superadmin", email, hash, true, nil, time.Now())
	if err != nil {
		return err
	}
	if err := store.Create(ctx, account); err != nil && !errors.Is(err, sentinel.ErrAlreadyUsed) {
		return err
	}
	return nil
}
