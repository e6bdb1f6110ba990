package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/lockaside"
)

var _ lockaside.Logger = Logger{}

// Logger adapts a *logrus.Entry.
type Logger struct{ E *logrus.Entry }

func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "lockaside")}
}

func (l Logger) Debug(msg string, f lockaside.Fields) { l.E.WithFields(logrus.Fields(f)).Debug(msg) }
func (l Logger) Info(msg string, f lockaside.Fields)  { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l Logger) Warn(msg string, f lockaside.Fields)  { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l Logger) Error(msg string, f lockaside.Fields) { l.E.WithFields(logrus.Fields(f)).Error(msg) }
