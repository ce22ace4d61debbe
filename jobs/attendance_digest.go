package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/akademos/akademos/internal/jobs"
)

// AttendanceDigestJob summarises check-in activity per school for one day.
type AttendanceDigestJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAttendanceDigestJob initialises the digest handler.
func NewAttendanceDigestJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *AttendanceDigestJob {
	return &AttendanceDigestJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type digestRow struct {
	SchoolID   int64
	CheckedIn  int
	CheckedOut int
}

// Handle executes the digest for the requested day.
func (j *AttendanceDigestJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("attendance digest: handler not configured")
	}
	var payload AttendanceDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	day := j.clock().AddDate(0, 0, -1)
	if payload.Day != "" {
		parsed, err := time.Parse("2006-01-02", payload.Day)
		if err != nil {
			return asynq.SkipRetry
		}
		day = parsed
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	tracker := j.metrics().Track(TaskAttendanceDigest)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("day", from.Format("2006-01-02")))
	logger.Info("starting attendance digest")

	rows, err := j.Pool.Query(ctx,
		`SELECT school_id,
		        COUNT(*),
		        COUNT(*) FILTER (WHERE end_at IS NOT NULL)
		 FROM attendances
		 WHERE deleted_at IS NULL AND start_at >= $1 AND start_at < $2
		 GROUP BY school_id
		 ORDER BY school_id`,
		from, to,
	)
	if err != nil {
		resultErr = err
		logger.Error("digest query failed", slog.Any("error", err))
		return resultErr
	}
	defer rows.Close()

	var summaries []digestRow
	for rows.Next() {
		var row digestRow
		if err := rows.Scan(&row.SchoolID, &row.CheckedIn, &row.CheckedOut); err != nil {
			resultErr = err
			return resultErr
		}
		summaries = append(summaries, row)
	}
	if err := rows.Err(); err != nil {
		resultErr = err
		return resultErr
	}

	for _, row := range summaries {
		j.metrics().AddAttendance(row.SchoolID, "checked_in", row.CheckedIn)
		j.metrics().AddAttendance(row.SchoolID, "checked_out", row.CheckedOut)
		logger.Info("attendance digest",
			slog.Int64("school_id", row.SchoolID),
			slog.Int("checked_in", row.CheckedIn),
			slog.Int("checked_out", row.CheckedOut),
			slog.Int("missing_checkout", row.CheckedIn-row.CheckedOut),
		)
	}
	if len(summaries) == 0 {
		logger.Info("no attendance recorded")
	}
	return nil
}

func (j *AttendanceDigestJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *AttendanceDigestJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
