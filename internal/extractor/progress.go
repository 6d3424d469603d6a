package extractor

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Progress follows a batch of statement files
type Progress interface {
	// Done records a finished file. r is nil for files no importer claimed.
	Done(r *Result) error
	// Close removes whatever the tracker drew
	Close()
}

type noopProgress struct{}

func (noopProgress) Done(*Result) error { return nil }
func (noopProgress) Close()             {}

// BarProgress draws one bar step per statement file. The description names the last
// file extracted and the transactions counted so far.
type BarProgress struct {
	mu           sync.Mutex
	bar          *progressbar.ProgressBar
	transactions int
}

// NewBarProgress creates a bar over total files, drawn on w
func NewBarProgress(w io.Writer, total int) *BarProgress {
	return &BarProgress{
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Extracting statements"),
			progressbar.OptionSetWriter(w),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			})),
	}
}

func (p *BarProgress) Done(r *Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r != nil {
		p.transactions += len(r.Transactions)
		p.bar.Describe(fmt.Sprintf("%s (%d transactions)", r.Filename, p.transactions))
	}
	return p.bar.Add(1)
}

// Transactions returns how many transactions the finished files held
func (p *BarProgress) Transactions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transactions
}

func (p *BarProgress) Close() {
	_ = p.bar.Clear()
}

func newProgress(enabled bool, total int) Progress {
	if !enabled || total == 0 {
		return noopProgress{}
	}
	return NewBarProgress(os.Stderr, total)
}
