package cli

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mvp-joe/flowexport/internal/extractor"
	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter shows progress bars by default and switches to one log
// line per file in verbose mode.
type CLIProgressReporter struct {
	verbose  bool
	mu       sync.Mutex
	parseBar *progressbar.ProgressBar
	saveBar  *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(verbose bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		verbose: verbose,
	}
}

func (c *CLIProgressReporter) OnDiscoveryComplete(files int, skippedDirs []string) {
	if c.verbose {
		for _, dir := range skippedDirs {
			log.Println("[skip]", dir)
		}
	}
	log.Printf("Extracting %s source files\n", humanize.Comma(int64(files)))
}

func (c *CLIProgressReporter) OnParseStart(totalFiles int) {
	if c.verbose {
		return
	}
	c.parseBar = newBar(totalFiles, "Parsing sources")
}

func (c *CLIProgressReporter) OnFileParsed(path string) {
	if c.verbose {
		log.Println("[parse]", path)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.parseBar != nil {
		c.parseBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnParseComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.parseBar != nil {
		c.parseBar.Finish()
		c.parseBar = nil
	}
}

func (c *CLIProgressReporter) OnSaveStart(totalFiles int) {
	if c.verbose {
		return
	}
	c.saveBar = newBar(totalFiles, "Writing modules")
}

func (c *CLIProgressReporter) OnFileSaved(path string) {
	if c.verbose {
		log.Println("[save]", path)
		return
	}
	if c.saveBar != nil {
		c.saveBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(result *extractor.Result) {
	if c.saveBar != nil {
		c.saveBar.Finish()
		c.saveBar = nil
	}

	printSummary(result)
	fmt.Printf("  Aliases:  %s\n", humanize.Comma(int64(result.Aliases)))
	fmt.Printf("  Mirrored: %s statements\n", humanize.Comma(int64(result.Mirrored)))
	if result.Merged > 0 {
		fmt.Printf("  Merged:   %s files\n", humanize.Comma(int64(result.Merged)))
	}
	if len(result.Cycles) > 0 {
		fmt.Printf("  Import cycles: %d (see warnings above)\n", len(result.Cycles))
	}
}

func newBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}
