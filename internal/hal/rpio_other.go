//go:build !linux

package hal

import (
	"fmt"
	"log/slog"
)

func openRPIO(_ Config, _ *Hardware, _ *slog.Logger) error {
	return fmt.Errorf("rpio: %w", ErrUnsupportedBoard)
}
