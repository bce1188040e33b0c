// Package logx is a thin structured-logging façade over zerolog.
//
// Components receive a Logger value (cheap to copy, safe zero value) and
// attach fixed fields with With(). The Service owns the sinks (console,
// optional file) and can re-apply configuration at runtime without breaking
// loggers already handed out.
package logx
