package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/phrazzld/handset/internal/importer"
)

// Prompt asks on the terminal whether a failed import should be retried.
type Prompt struct {
	in       *bufio.Reader
	out      io.Writer
	renderer *importer.Renderer
	// Force answers retry without asking, up to Force times.
	Force int
}

var _ importer.Dialog = (*Prompt)(nil)

// NewPrompt creates a Prompt reading answers from in.
func NewPrompt(in io.Reader, out io.Writer, r *importer.Renderer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out, renderer: r}
}

func (p *Prompt) Confirm(ctx context.Context, messageID string, attempt int) importer.Choice {
	if attempt <= p.Force {
		return importer.ChoiceRetry
	}
	_, _ = fmt.Fprintf(p.out, "%s Retry? (yes/no): ", p.renderer.Render(importer.Message{ID: messageID}))

	answers := make(chan string, 1)
	go func() {
		line, _ := p.in.ReadString('\n')
		answers <- line
	}()

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(p.out)
		return importer.ChoiceCancel
	case line := <-answers:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "yes", "y", "true", "1":
			return importer.ChoiceRetry
		default:
			_, _ = fmt.Fprintln(p.out, "Import cancelled.")
			return importer.ChoiceCancel
		}
	}
}
