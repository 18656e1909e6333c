package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/smazurov/lightpilot/internal/hal"
)

var (
	dimColor   = color.New(color.FgHiBlack)
	pressColor = color.New(color.FgCyan, color.Bold)
	stateColor = color.New(color.FgGreen, color.Bold)
	warnColor  = color.New(color.FgYellow)
)

// printer writes timestamped lines; frames are only printed when they
// differ from the previous one.
type printer struct {
	mu    sync.Mutex
	w     io.Writer
	start time.Time
	last  string
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, start: time.Now()}
}

func (p *printer) line(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	elapsed := time.Since(p.start).Truncate(time.Millisecond)
	fmt.Fprintf(p.w, "%s %s\n", dimColor.Sprintf("%8s", elapsed), fmt.Sprintf(format, args...))
}

func (p *printer) frame(f hal.Frame) {
	rendered := renderFrame(f)
	p.mu.Lock()
	if rendered == p.last {
		p.mu.Unlock()
		return
	}
	p.last = rendered
	p.mu.Unlock()
	p.line("%s", rendered)
}

// renderFrame draws one dot per channel in the channel's colour.
func renderFrame(f hal.Frame) string {
	var b strings.Builder
	for _, c := range f {
		if c == hal.Black {
			b.WriteString(dimColor.Sprint("○"))
			continue
		}
		b.WriteString(color.RGB(int(c.R), int(c.G), int(c.B)).Sprint("●"))
	}
	return b.String()
}
