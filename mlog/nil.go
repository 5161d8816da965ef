package mlog

// NoneLogger discards everything. Useful as a safe zero-value default and
// in tests that don't care about log output.
type NoneLogger struct{}

// Info implements Logger.
func (l *NoneLogger) Info(args ...any) {}

// Infof implements Logger.
func (l *NoneLogger) Infof(format string, args ...any) {}

// Infoln implements Logger.
func (l *NoneLogger) Infoln(args ...any) {}

// Error implements Logger.
func (l *NoneLogger) Error(args ...any) {}

// Errorf implements Logger.
func (l *NoneLogger) Errorf(format string, args ...any) {}

// Errorln implements Logger.
func (l *NoneLogger) Errorln(args ...any) {}

// Warn implements Logger.
func (l *NoneLogger) Warn(args ...any) {}

// Warnf implements Logger.
func (l *NoneLogger) Warnf(format string, args ...any) {}

// Warnln implements Logger.
func (l *NoneLogger) Warnln(args ...any) {}

// Debug implements Logger.
func (l *NoneLogger) Debug(args ...any) {}

// Debugf implements Logger.
func (l *NoneLogger) Debugf(format string, args ...any) {}

// Debugln implements Logger.
func (l *NoneLogger) Debugln(args ...any) {}

// Fatal implements Logger.
func (l *NoneLogger) Fatal(args ...any) {}

// Fatalf implements Logger.
func (l *NoneLogger) Fatalf(format string, args ...any) {}

// Fatalln implements Logger.
func (l *NoneLogger) Fatalln(args ...any) {}

// WithFields implements Logger.
//
//nolint:ireturn
func (l *NoneLogger) WithFields(fields ...any) Logger { return l }

// Sync implements Logger.
func (l *NoneLogger) Sync() error { return nil }
