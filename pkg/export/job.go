package export

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/xtremeops/shipstation-export/pkg/shipstation"
)

// State is the orchestration phase of a job.
type State string

const (
	StateFetching     State = "FETCHING"
	StateTransforming State = "TRANSFORMING"
	StateWriting      State = "WRITING"
	StateDelivering   State = "DELIVERING"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// Job is one export unit for one category tag.
type Job struct {
	// TagID is the upstream tag filter.
	TagID string

	// Label names the category in the job identifier; defaults to TagID.
	Label string
}

// Outcome is the terminal record of one job. Delivery failures land here
// instead of propagating; only fetch failures escape Run.
type Outcome struct {
	TagID     string
	JobID     string
	Artifact  string
	Rows      int
	Delivered bool
	Err       error
}

// OrderSource fetches all orders for one tag.
type OrderSource interface {
	FetchOrders(ctx context.Context, status, tagID string) ([]shipstation.Order, error)
}

// Deliverer transfers a local artifact to the remote directory.
type Deliverer interface {
	Upload(ctx context.Context, localPath, remoteDir string) error
}

// Runner drives the per-job pipeline: fetch, transform, write, deliver.
type Runner struct {
	Source    OrderSource
	Deliverer Deliverer

	// Stores is the run's read-only store lookup.
	Stores map[string]string

	// Services is the carrier/service label lookup data.
	Services ServiceLookup

	// Schema selects the output column set.
	Schema Schema

	// Status is the upstream order-status filter.
	Status string

	// Prefix heads every job identifier.
	Prefix string

	// OutputDir is where local artifacts are written.
	OutputDir string

	// RemoteDir is the delivery target directory.
	RemoteDir string

	// Now supplies the job timestamp; defaults to time.Now.
	Now func() time.Time

	Logger zerolog.Logger
}

// jobID builds the job identifier from the category label and a
// minute-granularity capture timestamp. Unique within a run; rapid reruns
// within the same minute reuse the identifier, which is accepted.
func (r *Runner) jobID(label string) string {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return fmt.Sprintf("%s_%s_%s", r.Prefix, label, now().Format("20060102_1504"))
}

// Run executes one job to its terminal Outcome. A fetch failure is fatal and
// returned as an error with no Outcome; every later failure is captured in
// the Outcome so sibling jobs keep running.
func (r *Runner) Run(ctx context.Context, job Job) (Outcome, error) {
	label := job.Label
	if label == "" {
		label = job.TagID
	}
	jobID := r.jobID(label)
	logger := r.Logger.With().Str("tag", job.TagID).Str("job_id", jobID).Logger()

	logger.Info().Str("state", string(StateFetching)).Msg("job started")
	orders, err := r.Source.FetchOrders(ctx, r.Status, job.TagID)
	if err != nil {
		logger.Error().Err(err).Str("state", string(StateFailed)).Msg("order fetch failed")
		return Outcome{}, fmt.Errorf("fetch orders for tag %s: %w", job.TagID, err)
	}

	logger.Info().Str("state", string(StateTransforming)).Int("orders", len(orders)).Msg("flattening orders")
	r.warnUntagged(logger, orders, job.TagID)

	fc := FlattenContext{
		JobID:    jobID,
		TagID:    job.TagID,
		Stores:   r.Stores,
		Services: r.Services,
	}

	var rows []Row
	for _, o := range orders {
		rows = append(rows, Flatten(o, fc)...)
	}

	if len(rows) == 0 {
		logger.Info().Str("state", string(StateDone)).Msg("no rows to export")
		return Outcome{TagID: job.TagID, JobID: jobID}, nil
	}

	artifact := filepath.Join(r.OutputDir, jobID+".csv")
	logger.Info().
		Str("state", string(StateWriting)).
		Str("artifact", artifact).
		Int("rows", len(rows)).
		Msg("writing artifact")

	if err := WriteCSV(rows, r.Schema, artifact); err != nil {
		logger.Error().Err(err).Str("state", string(StateFailed)).Msg("artifact write failed")
		return Outcome{
			TagID: job.TagID,
			JobID: jobID,
			Rows:  len(rows),
			Err:   fmt.Errorf("write artifact: %w", err),
		}, nil
	}

	logger.Info().Str("state", string(StateDelivering)).Str("remote_dir", r.RemoteDir).Msg("delivering artifact")
	if err := r.Deliverer.Upload(ctx, artifact, r.RemoteDir); err != nil {
		// The artifact stays on disk for manual inspection and retry.
		logger.Error().
			Err(err).
			Str("state", string(StateFailed)).
			Str("artifact", artifact).
			Msg("delivery failed, artifact retained")
		return Outcome{
			TagID:    job.TagID,
			JobID:    jobID,
			Artifact: artifact,
			Rows:     len(rows),
			Err:      fmt.Errorf("delivery failed: %w", err),
		}, nil
	}

	logger.Info().
		Str("state", string(StateDone)).
		Int("rows", len(rows)).
		Str("artifact", artifact).
		Msg("job complete")

	return Outcome{
		TagID:     job.TagID,
		JobID:     jobID,
		Artifact:  artifact,
		Rows:      len(rows),
		Delivered: true,
	}, nil
}

// warnUntagged logs orders the upstream returned without the requested tag.
// The filter is applied server-side and externally controlled, so mismatches
// are a warning condition, not grounds to drop rows.
func (r *Runner) warnUntagged(logger zerolog.Logger, orders []shipstation.Order, tagID string) {
	want, err := strconv.ParseInt(tagID, 10, 64)
	if err != nil {
		return
	}
	for _, o := range orders {
		if len(o.TagIDs) > 0 && !slices.Contains(o.TagIDs, want) {
			logger.Warn().
				Int64("order_id", o.OrderID).
				Str("order_number", o.OrderNumber).
				Msg("order returned without requested tag")
		}
	}
}
