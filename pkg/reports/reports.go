// Package reports re-exports the report builder service for applications that
// should not import components/ directly.
package reports

import (
	core "github.com/goliatone/go-reports/components/reports"
)

// Service exposes the underlying components/reports.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Template re-export for convenience.
type Template = core.Template

// Element re-export for convenience.
type Element = core.Element

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// NewInMemoryService builds a service over the in-memory template store.
func NewInMemoryService() *Service {
	return core.NewService(core.Options{Store: core.NewInMemoryTemplateStore()})
}
