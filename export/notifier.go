package export

import (
	"go.uber.org/zap"
)

// Notifier shows transient outcome of an export to the user.
type Notifier interface {
	Success(msg string)
	Failure(err error)
}

// LogNotifier reports outcome through console logger.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Success(msg string) {
	n.log.Info(msg)
}

func (n *LogNotifier) Failure(err error) {
	n.log.Warn("Unable to copy document as rich text", zap.Error(err))
}
