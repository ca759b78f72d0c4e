package mqtt

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/autopeer-io/teleop/pkg/log"
)

// pahoLogger forwards the paho client's trace output to the logr bridge of
// the global logger, at debug verbosity.
type pahoLogger struct {
	logger logr.Logger
}

func newPahoLogger(component string) pahoLogger {
	return pahoLogger{logger: log.Logr().WithName(component).V(1)}
}

func (l pahoLogger) Println(v ...any) {
	l.logger.Info(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func (l pahoLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSuffix(fmt.Sprintf(format, v...), "\n"))
}
