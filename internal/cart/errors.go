package cart

import (
	"errors"
	"fmt"

	apperrors "github.com/utafrali/ecocart/pkg/errors"
)

// ErrEmptyCart is returned by Settle when there is nothing to check out.
var ErrEmptyCart = apperrors.Unprocessable("EMPTY_CART", "cart is empty")

// ErrRepaired marks a stored cart that decoded but broke the one-line-per-id,
// positive-quantity rules and had to be repaired.
var ErrRepaired = errors.New("stored cart repaired")

// StorageWriteError reports that the cart blob could not be persisted. It
// matches apperrors.ErrServiceUnavail.
type StorageWriteError struct {
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

func (e *StorageWriteError) Is(target error) bool {
	return target == apperrors.ErrServiceUnavail
}

// StorageReadError reports that the stored cart could not be read at all, as
// opposed to read and found malformed. Mutations refuse to run on it so the
// stored cart is never overwritten blind. It matches apperrors.ErrServiceUnavail.
type StorageReadError struct {
	Key string
	Err error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Key, e.Err)
}

func (e *StorageReadError) Unwrap() error {
	return e.Err
}

func (e *StorageReadError) Is(target error) bool {
	return target == apperrors.ErrServiceUnavail
}

// CartNotClearedError is returned by Settle when the order was recorded but
// the cart could not be emptied afterwards. The details returned alongside it
// are valid; callers must not record the order again.
type CartNotClearedError struct {
	Err error
}

func (e *CartNotClearedError) Error() string {
	return fmt.Sprintf("order recorded but cart not cleared: %v", e.Err)
}

func (e *CartNotClearedError) Unwrap() error {
	return e.Err
}
