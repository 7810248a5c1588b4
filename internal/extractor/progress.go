package extractor

// ProgressReporter provides callbacks for reporting extraction progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(files int, skippedDirs []string)

	// OnParseStart is called before the parse pool starts.
	OnParseStart(totalFiles int)

	// OnFileParsed is called after each file is parsed, possibly concurrently.
	OnFileParsed(path string)

	// OnParseComplete is called once every parse task has finished.
	OnParseComplete()

	// OnSaveStart is called before generated files are written.
	OnSaveStart(totalFiles int)

	// OnFileSaved is called after each generated file is written.
	OnFileSaved(path string)

	// OnComplete is called when the extraction completes successfully.
	OnComplete(result *Result)
}

// NoOpProgressReporter is a progress reporter that does nothing.
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryComplete(files int, skippedDirs []string) {}
func (n *NoOpProgressReporter) OnParseStart(totalFiles int)                         {}
func (n *NoOpProgressReporter) OnFileParsed(path string)                            {}
func (n *NoOpProgressReporter) OnParseComplete()                                    {}
func (n *NoOpProgressReporter) OnSaveStart(totalFiles int)                          {}
func (n *NoOpProgressReporter) OnFileSaved(path string)                             {}
func (n *NoOpProgressReporter) OnComplete(result *Result)                           {}
