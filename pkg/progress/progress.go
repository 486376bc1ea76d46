// Package progress reports completion of long iterations. Reporting is
// purely observational and never affects pipeline behavior.
package progress

import "github.com/schollz/progressbar/v3"

// Reporter receives completion updates during a long iteration.
type Reporter interface {
	Step(n int)
	Finish()
}

// Factory builds a reporter for an iteration of the given total length.
// A total of zero or less means the length is unknown and the factory
// must return a no-op reporter.
type Factory func(total int, description string) Reporter

// New returns a terminal progress bar, or a no-op reporter when the
// total is unknown.
func New(total int, description string) Reporter {
	if total <= 0 {
		return noop{}
	}
	return &bar{bar: progressbar.Default(int64(total), description)}
}

// Discard returns a silent reporter regardless of total.
func Discard(total int, description string) Reporter {
	return noop{}
}

type noop struct{}

func (noop) Step(n int) {}
func (noop) Finish()    {}

type bar struct {
	bar *progressbar.ProgressBar
}

func (b *bar) Step(n int) {
	_ = b.bar.Add(n)
}

func (b *bar) Finish() {
	_ = b.bar.Finish()
}
