package pipeline

import "log/slog"

// Progress percentages reported at stage boundaries. Cleanup reports
// the -1 sentinel because it runs outside the success path.
const (
	ProgressStart        = 0
	ProgressSetupDone    = 5
	ProgressDownloading  = 10
	ProgressDownloaded   = 20
	ProgressRendering    = 25
	ProgressRendered     = 60
	ProgressUploaded     = 70
	ProgressManifestDone = 85
	ProgressDone         = 100
	ProgressCleanup      = -1
)

// Reporter receives progress events. Reporting is observational only;
// pipeline outcomes never depend on it.
type Reporter interface {
	Report(jobID, stage string, percent int)
}

// SlogReporter logs progress events.
type SlogReporter struct {
	logger *slog.Logger
}

// NewSlogReporter creates a reporter that writes progress to the log.
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	return &SlogReporter{logger: logger}
}

func (r *SlogReporter) Report(jobID, stage string, percent int) {
	r.logger.Info("Job progress",
		slog.String("job_id", jobID),
		slog.String("stage", stage),
		slog.Int("percent", percent),
	)
}
