package process

import "github.com/OpenCosmics/sapphire/pkg/logging"

var logger logging.Logger

// SetLogger installs the package logger. The zero logger discards all
// messages.
func SetLogger(l logging.Logger) {
	logger = l
}
