// Package isolog provides the logging indirection used by the rest of the
// module: a small enable-gated provider interface, so that a caller that
// never wants log output pays nothing for it, and one that does can wire
// in a structured backend.
package isolog

import (
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Provider is the log sink a Log forwards to when enabled.
type Provider interface {
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}

// Log is the logging handle embedded by the rest of the module. Output is
// disabled by default; call LogMode(true) to enable it.
type Log struct {
	provider Provider
	has      uint32
}

// New creates a Log backed by a charmbracelet/log text logger writing to
// stderr with prefix as its reported source.
func New(prefix string) Log {
	return Log{provider: defaultProvider{log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportTimestamp: true,
	})}}
}

// LogMode enables or disables output. Disabled by construction so that a
// caller who never calls this pays no formatting cost.
func (l *Log) LogMode(enable bool) {
	if enable {
		atomic.StoreUint32(&l.has, 1)
	} else {
		atomic.StoreUint32(&l.has, 0)
	}
}

// SetProvider swaps the backing Provider, e.g. to route through the host
// application's own logger.
func (l *Log) SetProvider(p Provider) {
	if p != nil {
		l.provider = p
	}
}

func (l Log) enabled() bool { return atomic.LoadUint32(&l.has) == 1 }

func (l Log) Errorf(format string, v ...interface{}) {
	if l.enabled() {
		l.provider.Errorf(format, v...)
	}
}

func (l Log) Warnf(format string, v ...interface{}) {
	if l.enabled() {
		l.provider.Warnf(format, v...)
	}
}

func (l Log) Infof(format string, v ...interface{}) {
	if l.enabled() {
		l.provider.Infof(format, v...)
	}
}

func (l Log) Debugf(format string, v ...interface{}) {
	if l.enabled() {
		l.provider.Debugf(format, v...)
	}
}

type defaultProvider struct {
	*log.Logger
}

var _ Provider = defaultProvider{}

func (p defaultProvider) Errorf(format string, v ...interface{}) { p.Logger.Errorf(format, v...) }
func (p defaultProvider) Warnf(format string, v ...interface{})  { p.Logger.Warnf(format, v...) }
func (p defaultProvider) Infof(format string, v ...interface{})  { p.Logger.Infof(format, v...) }
func (p defaultProvider) Debugf(format string, v ...interface{}) { p.Logger.Debugf(format, v...) }
