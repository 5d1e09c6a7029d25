package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
)

// consoleProgress draws a 25 column bar on w and redraws it only when the percentage changes.
// It stops the scan once ctx is cancelled.
type consoleProgress struct {
	ctx   context.Context
	w     io.Writer
	label string
	bar   progress.Model
	last  int
}

func newConsoleProgress(ctx context.Context, w io.Writer, label string) *consoleProgress {
	return &consoleProgress{
		ctx:   ctx,
		w:     w,
		label: label,
		bar:   progress.New(progress.WithWidth(25), progress.WithoutPercentage(), progress.WithSolidFill("#00FFFF")),
		last:  -1,
	}
}

func (p *consoleProgress) Start(int64) {
	p.last = -1
	p.draw(0)
}

func (p *consoleProgress) Step(percent int) bool {
	if p.ctx.Err() != nil {
		return false
	}
	percent = min(max(percent, 0), 100)
	if percent != p.last {
		p.draw(percent)
	}
	return true
}

func (p *consoleProgress) Done() {
	if p.last >= 0 {
		fmt.Fprintln(p.w)
	}
}

func (p *consoleProgress) draw(percent int) {
	p.last = percent
	fmt.Fprintf(p.w, "\r%s %s %3d%%", p.label, p.bar.ViewAs(float64(percent)/100), percent)
}
