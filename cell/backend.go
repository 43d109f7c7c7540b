package cell

import (
	"github.com/framegrace/canopy/geom"
	"github.com/framegrace/canopy/style"
)

// Backend is the engine's sole collaborator for producing terminal
// output (spec.md §6). Concrete implementations (a real terminal driver,
// or the harness's recording backend) live outside this package.
type Backend interface {
	Reset() error
	Style(s style.Style) error
	Text(p geom.Point, s string) error
	SupportsCharShift() bool
	ShiftChars(p geom.Point, count int) error
	SupportsLineShift() bool
	ShiftLines(top, bottom uint32, count int) error
	Flush() error
	Start() error
	Stop() error
	Exit(code int) error
}
