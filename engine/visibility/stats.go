package visibility

import (
	"log/slog"
	"time"
)

// Stats is a snapshot of one frame of pipeline work.
type Stats struct {
	Frame uint64

	TotalObjects   int
	VisibleObjects int
	CulledObjects  int

	TotalChunks   int
	VisibleChunks int

	QueriesIssued    int
	QueriesDropped   int
	QueriesCollected int
	TestsSkipped     int

	CullTime   time.Duration
	HZBTime    time.Duration
	QueryTime  time.Duration
	UpdateTime time.Duration

	Quality        QualityLevel
	CPUFrustumOnly bool
}

// StatsLogger periodically emits a frame snapshot through slog. One line per
// interval keeps the output readable at 60 updates per second.
type StatsLogger struct {
	interval time.Duration
	lastLog  time.Time
	logger   *slog.Logger
}

// NewStatsLogger creates a stats logger that emits at most once per interval.
//
// Parameters:
//   - interval: minimum time between log lines
//   - logger: destination logger, slog.Default() when nil
//
// Returns:
//   - *StatsLogger: the new logger
func NewStatsLogger(interval time.Duration, logger *slog.Logger) *StatsLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsLogger{
		interval: interval,
		logger:   logger,
	}
}

// Tick logs the snapshot if the interval has elapsed since the last emission.
//
// Parameters:
//   - stats: the frame snapshot
//
// Returns:
//   - bool: true if a line was emitted
func (l *StatsLogger) Tick(stats Stats) bool {
	now := time.Now()
	if now.Sub(l.lastLog) < l.interval {
		return false
	}
	l.lastLog = now

	l.logger.Info("visibility frame",
		slog.Uint64("frame", stats.Frame),
		slog.Int("objects", stats.TotalObjects),
		slog.Int("visible", stats.VisibleObjects),
		slog.Int("culled", stats.CulledObjects),
		slog.Int("chunks", stats.TotalChunks),
		slog.Int("visible_chunks", stats.VisibleChunks),
		slog.Int("queries_issued", stats.QueriesIssued),
		slog.Int("queries_dropped", stats.QueriesDropped),
		slog.Int("tests_skipped", stats.TestsSkipped),
		slog.Duration("cull", stats.CullTime),
		slog.Duration("hzb", stats.HZBTime),
		slog.Duration("query", stats.QueryTime),
		slog.Duration("update", stats.UpdateTime),
		slog.String("quality", string(stats.Quality)),
		slog.Bool("cpu_frustum_only", stats.CPUFrustumOnly),
	)
	return true
}
