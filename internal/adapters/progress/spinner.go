package progress

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// stepSpinner shows a spinner while a step waits for its transaction.
// A disabled spinner turns every call into a no-op so output stays clean
// when it is not a terminal.
type stepSpinner struct {
	spinner *spinner.Spinner
	enabled bool
}

func newStepSpinner(w io.Writer, enabled bool) *stepSpinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.HideCursor = false
	return &stepSpinner{spinner: s, enabled: enabled}
}

func (s *stepSpinner) start(suffix string) {
	if !s.enabled {
		return
	}
	s.spinner.Suffix = " " + suffix
	if !s.spinner.Active() {
		s.spinner.Start()
	}
}

func (s *stepSpinner) stop() {
	if s.enabled && s.spinner.Active() {
		s.spinner.Stop()
	}
}

// pause stops the spinner and returns a func that restarts it
func (s *stepSpinner) pause() func() {
	if !s.enabled || !s.spinner.Active() {
		return func() {}
	}
	s.spinner.Stop()
	return s.spinner.Start
}
