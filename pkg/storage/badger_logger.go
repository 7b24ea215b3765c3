package storage

import (
	"fmt"
	"strings"

	"therapy-notes/pkg/logger"
)

// badgerLogger routes badger's internal messages through the process logger.
// Badger's info chatter is demoted to debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logger.Error().Str("component", "badger").Msg(trimLine(format, args))
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logger.Warn().Str("component", "badger").Msg(trimLine(format, args))
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logger.Debug().Str("component", "badger").Msg(trimLine(format, args))
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logger.Debug().Str("component", "badger").Msg(trimLine(format, args))
}

func trimLine(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
