package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	repeatDelay    = 30
	repeatInterval = 4
)

// IsSubmitJustPressed returns a boolean value indicating whether the name entry should be submitted.
// This is used to handle both keyboard and gamepad inputs.
func IsSubmitJustPressed() bool {
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter) {
		return true
	}
	gamepadIDs := ebiten.AppendGamepadIDs(nil)
	for _, g := range gamepadIDs {
		if ebiten.IsStandardGamepadLayoutAvailable(g) {
			if inpututil.IsStandardGamepadButtonJustPressed(g, ebiten.StandardGamepadButtonCenterRight) {
				return true
			}
		} else {
			// The button 9 is usually Start.
			if inpututil.IsGamepadButtonJustPressed(g, ebiten.GamepadButton9) {
				return true
			}
		}
	}
	return false
}

// IsEraseJustPressed reports a Backspace press, repeating while it is held.
func IsEraseJustPressed() bool {
	return isRepeating(ebiten.KeyBackspace)
}

// AppendTypedChars appends the characters typed this frame.
func AppendTypedChars(runes []rune) []rune {
	return ebiten.AppendInputChars(runes)
}

// IsDeviceRequestJustPressed reports the key that asks for the serial device.
func IsDeviceRequestJustPressed() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyF2)
}

func IsFullscreenToggleJustPressed() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyF11)
}

func IsQuitJustPressed() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyEscape) && ebiten.IsKeyPressed(ebiten.KeyShift)
}

func isRepeating(key ebiten.Key) bool {
	d := inpututil.KeyPressDuration(key)
	if d == 1 {
		return true
	}
	return d >= repeatDelay && (d-repeatDelay)%repeatInterval == 0
}
