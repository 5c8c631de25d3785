package terminal

import (
	"io"
	"sync"
	"time"

	"github.com/phrazzld/handset/internal/importer"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

const refreshRate = 30 * time.Millisecond

// Overlay renders importer overlay calls as mpb bars. Each Show replaces
// the current bar; Hide removes it and waits for the last frame.
type Overlay struct {
	out      io.Writer
	renderer *importer.Renderer

	mu        sync.Mutex
	progress  *mpb.Progress
	bar       *mpb.Bar
	messageID string
}

var _ importer.Overlay = (*Overlay)(nil)

// NewOverlay creates an Overlay writing to out.
func NewOverlay(out io.Writer, r *importer.Renderer) *Overlay {
	return &Overlay{out: out, renderer: r}
}

func (o *Overlay) ShowActivityBar(messageID string, _ bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replace(messageID, func(p *mpb.Progress, name string) *mpb.Bar {
		return p.New(0,
			mpb.SpinnerStyle(),
			mpb.PrependDecorators(decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight})),
		)
	})
}

func (o *Overlay) ShowProgressBar(messageID string, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replace(messageID, func(p *mpb.Progress, name string) *mpb.Bar {
		barStyle := mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟")
		return p.New(int64(total),
			barStyle,
			mpb.PrependDecorators(decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight})),
			mpb.AppendDecorators(decor.CountersNoUnit("%d / %d")),
		)
	})
}

func (o *Overlay) UpdateProgressBar() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.bar != nil {
		o.bar.Increment()
	}
}

func (o *Overlay) Hide() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropBar()
	if o.progress != nil {
		o.progress.Wait()
		o.progress = nil
	}
	o.messageID = ""
}

// MessageID returns the message currently shown, or "" when hidden.
func (o *Overlay) MessageID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.messageID
}

func (o *Overlay) replace(messageID string, build func(*mpb.Progress, string) *mpb.Bar) {
	o.dropBar()
	if o.progress == nil {
		o.progress = mpb.New(mpb.WithOutput(o.out), mpb.WithWidth(64), mpb.WithRefreshRate(refreshRate))
	}
	o.bar = build(o.progress, o.renderer.Render(importer.Message{ID: messageID}))
	o.messageID = messageID
}

func (o *Overlay) dropBar() {
	if o.bar != nil {
		o.bar.Abort(true)
		o.bar = nil
	}
}
