package terminal

import (
	"fmt"
	"io"
	"sync"

	"github.com/phrazzld/handset/internal/importer"
)

// StatusLine prints import results as one line.
type StatusLine struct {
	mu       sync.Mutex
	out      io.Writer
	renderer *importer.Renderer
}

var _ importer.StatusNotifier = (*StatusLine)(nil)

// NewStatusLine creates a StatusLine writing to out.
func NewStatusLine(out io.Writer, r *importer.Renderer) *StatusLine {
	return &StatusLine{out: out, renderer: r}
}

func (s *StatusLine) ShowStatus(primary importer.Message, secondary *importer.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.renderer.Render(primary)
	if secondary != nil {
		line += " (" + s.renderer.Render(*secondary) + ")"
	}
	_, _ = fmt.Fprintln(s.out, line)
}
