package logger

import (
	"fmt"
	"strings"
)

// Printf adapts a Logger to printf-style clients such as resty, so their
// messages end up in the same structured stream.
type Printf struct {
	log Logger
}

func NewPrintf(l Logger) *Printf {
	return &Printf{log: l.With(String("component", "http"))}
}

func (p *Printf) Errorf(format string, v ...any) { p.log.Error(sprintf(format, v...)) }
func (p *Printf) Warnf(format string, v ...any)  { p.log.Warn(sprintf(format, v...)) }
func (p *Printf) Debugf(format string, v ...any) { p.log.Debug(sprintf(format, v...)) }

func sprintf(format string, v ...any) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
