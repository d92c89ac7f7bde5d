// Package gologger resolves module loggers and bridges them to the go-job
// logging contracts used by the refresh queue worker.
package gologger

import (
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// RootLoggerName names loggers resolved without an explicit component.
const RootLoggerName = "integrations"

// Resolve picks a logger with deterministic precedence provider > logger >
// nop. An empty name falls back to the module root name.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	if name == "" {
		name = RootLoggerName
	}
	return glog.Resolve(name, provider, logger)
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger maps a glog logger to the go-job logger contract.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForWorker resolves the refresh worker logger and returns both the
// glog handles and their go-job bridges so the queue worker and the module
// log through the same sink.
func ResolveForWorker(provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(RootLoggerName+".refresh-worker", provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}
