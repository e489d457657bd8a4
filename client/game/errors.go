package game

import (
	"errors"
	"fmt"

	"github.com/cbodonnell/cabinet/pkg/game/types"
)

// ErrNotAcceptingNames is returned when a name is submitted while no
// finished run is waiting for one.
type ErrNotAcceptingNames struct {
	State types.State
}

func (e *ErrNotAcceptingNames) Error() string {
	return fmt.Sprintf("not accepting names in state %s", e.State)
}

func IsNotAcceptingNames(err error) bool {
	var target *ErrNotAcceptingNames
	return errors.As(err, &target)
}

// ErrEmptyName is returned when a submitted name has no usable characters.
type ErrEmptyName struct{}

func (e *ErrEmptyName) Error() string {
	return "name is empty"
}

func IsEmptyName(err error) bool {
	var target *ErrEmptyName
	return errors.As(err, &target)
}
