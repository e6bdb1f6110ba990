// Package ctxd adapts a github.com/bool64/ctxd logger.
package ctxd

import (
	"context"

	"github.com/bool64/ctxd"

	"github.com/unkn0wn-root/lockaside"
)

var _ lockaside.Logger = Logger{}

// Logger forwards to L with Ctx (context.Background() if nil), so loggers that
// pull fields from the context still see them.
type Logger struct {
	L   ctxd.Logger
	Ctx context.Context
}

func (l Logger) Debug(msg string, f lockaside.Fields) { l.L.Debug(l.ctx(), msg, kv(f)...) }
func (l Logger) Info(msg string, f lockaside.Fields)  { l.L.Info(l.ctx(), msg, kv(f)...) }
func (l Logger) Warn(msg string, f lockaside.Fields)  { l.L.Warn(l.ctx(), msg, kv(f)...) }
func (l Logger) Error(msg string, f lockaside.Fields) { l.L.Error(l.ctx(), msg, kv(f)...) }

func (l Logger) ctx() context.Context {
	if l.Ctx == nil {
		return context.Background()
	}
	return l.Ctx
}

func kv(f lockaside.Fields) []interface{} {
	if len(f) == 0 {
		return nil
	}
	out := make([]interface{}, 0, 2*len(f))
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
