package service

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/sylva-dev/sylva/domain"
)

// ProgressReporterImpl renders a progress bar on stderr while files are
// being processed. Safe for concurrent UpdateProgress calls
type ProgressReporterImpl struct {
	writer io.Writer
	mu     sync.Mutex
	bar    *progressbar.ProgressBar
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(writer io.Writer) *ProgressReporterImpl {
	if writer == nil {
		writer = os.Stderr
	}
	return &ProgressReporterImpl{writer: writer}
}

// StartProgress starts progress reporting for the given number of files
func (p *ProgressReporterImpl) StartProgress(totalFiles int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionSetDescription("parsing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(65*time.Millisecond),
	)
}

// UpdateProgress advances the bar and shows the current file name
func (p *ProgressReporterImpl) UpdateProgress(currentFile string, processed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	p.bar.Describe(filepath.Base(currentFile))
	_ = p.bar.Add(1)
}

// FinishProgress finishes progress reporting
func (p *ProgressReporterImpl) FinishProgress() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}

// NoOpProgressReporter is a progress reporter that does nothing
type NoOpProgressReporter struct{}

// NewNoOpProgressReporter creates a no-op progress reporter
func NewNoOpProgressReporter() *NoOpProgressReporter {
	return &NoOpProgressReporter{}
}

func (n *NoOpProgressReporter) StartProgress(totalFiles int)                            {}
func (n *NoOpProgressReporter) UpdateProgress(currentFile string, processed, total int) {}
func (n *NoOpProgressReporter) FinishProgress()                                         {}

// CreateProgressReporter returns a real reporter only when stderr is a
// terminal and progress was not disabled, otherwise a no-op one
func CreateProgressReporter(disabled bool) domain.ProgressReporter {
	if disabled || !term.IsTerminal(int(os.Stderr.Fd())) {
		return NewNoOpProgressReporter()
	}
	return NewProgressReporter(os.Stderr)
}
