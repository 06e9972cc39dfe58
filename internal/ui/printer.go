// Package ui renders processing statuses for the console.
// It is a caller-side surface: the core packages never import it.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/filesweep/internal/mover"
)

// Printer writes one line per processing status.
type Printer struct {
	w      io.Writer
	styles Styles
	plain  bool
}

// NewPrinter creates a printer for the given writer.
// Styling is disabled automatically when the writer is not a terminal.
func NewPrinter(w io.Writer) *Printer {
	plain := true
	if f, ok := w.(*os.File); ok {
		plain = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{
		w:      w,
		styles: DefaultStyles(),
		plain:  plain,
	}
}

// NewPlainPrinter creates a printer that never emits styling.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{
		w:      w,
		styles: DefaultStyles(),
		plain:  true,
	}
}

// Print renders and writes one status line.
func (p *Printer) Print(s mover.Status) {
	fmt.Fprintln(p.w, p.Render(s))
}

// Render formats a status as a single line.
func (p *Printer) Render(s mover.Status) string {
	label := s.Stage.String()
	if !p.plain {
		label = p.styleFor(s.Stage).Render(label)
	}

	switch s.Stage {
	case mover.StageDetected:
		return fmt.Sprintf("%s  %s", label, s.Source)
	case mover.StageMoving:
		return fmt.Sprintf("%s   %s -> %s", label, s.Source, s.Target)
	case mover.StageMoved:
		return fmt.Sprintf("%s    %s -> %s", label, s.Name, s.Target)
	case mover.StageBusy:
		return fmt.Sprintf("%s     %s: %s", label, s.Name, s.Message)
	case mover.StageRetrying:
		return fmt.Sprintf("%s %s: attempt %d, next try in %s", label, s.Name, s.Attempt, s.Delay)
	case mover.StageFailed:
		line := fmt.Sprintf("%s   %s: %s", label, s.Name, s.Message)
		if s.Name == "" {
			line = fmt.Sprintf("%s   %s", label, s.Message)
		}
		return line
	case mover.StageScanned:
		return fmt.Sprintf("%s  %s", label, s.Message)
	default:
		return fmt.Sprintf("%s %s", label, s.Message)
	}
}

// styleFor maps a stage to its display style.
func (p *Printer) styleFor(stage mover.Stage) interface{ Render(...string) string } {
	switch stage {
	case mover.StageMoved:
		return p.styles.Success
	case mover.StageFailed:
		return p.styles.Error
	case mover.StageRetrying, mover.StageBusy:
		return p.styles.Warning
	case mover.StageDetected, mover.StageMoving:
		return p.styles.Label
	default:
		return p.styles.Dim
	}
}
