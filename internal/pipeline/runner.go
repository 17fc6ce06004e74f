package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/cocomerge/internal/coco"
	"github.com/roach88/cocomerge/internal/imagedir"
	"github.com/roach88/cocomerge/internal/merge"
	"github.com/roach88/cocomerge/internal/schema"
	"github.com/roach88/cocomerge/internal/store"
)

// Paths locates the inputs and outputs of a run.
type Paths struct {
	BaseJSON      string `json:"base_json"`
	BaseImages    string `json:"base_image_path"`
	AddJSON       string `json:"add_json"`
	AddImages     string `json:"add_image_path"`
	UnifiedJSON   string `json:"unified_json_path"`
	UnifiedImages string `json:"unified_image_path"`
}

// Options configures a run.
type Options struct {
	Policy      merge.RemapPolicy
	SchemaCheck bool // validate both inputs against the COCO schema
	DryRun      bool // stop after the in-memory merge
}

// Ledger records finished runs.
type Ledger interface {
	RecordRun(ctx context.Context, run store.Run) error
}

// IDGenerator produces run ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run ids.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Report describes a run. Unified is only set once annotation_merge has
// completed.
type Report struct {
	RunID      string             `json:"run_id"`
	Status     store.RunStatus    `json:"status"`
	Stage      Stage              `json:"failed_stage,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Paths      Paths              `json:"paths"`
	Policy     merge.RemapPolicy  `json:"remap_policy"`
	Stats      merge.Stats        `json:"stats"`
	Files      imagedir.Stats     `json:"files"`
	Remap      []merge.RemapEntry `json:"remap"`
	Unified    *coco.Document     `json:"-"`
}

// Runner executes merge runs.
type Runner struct {
	logger *slog.Logger
	ledger Ledger
	now    func() time.Time
	ids    IDGenerator
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithLedger records every run in l.
func WithLedger(l Ledger) Option {
	return func(r *Runner) { r.ledger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithIDGenerator replaces the UUIDv7 run id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Runner) { r.ids = g }
}

// NewRunner creates a runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger: slog.Default(),
		now:    time.Now,
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one merge. The returned report is never nil; on failure its
// Status is failed, Stage names the failing stage and the error is a
// *StageError.
func (r *Runner) Run(ctx context.Context, paths Paths, opts Options) (*Report, error) {
	if opts.Policy == "" {
		opts.Policy = merge.RemapNew
	}
	rep := &Report{
		RunID:     r.ids.Generate(),
		StartedAt: r.now(),
		Paths:     paths,
		Policy:    opts.Policy,
	}
	log := r.logger.With("run_id", rep.RunID)
	log.Info("merge starting",
		"base", paths.BaseJSON,
		"add", paths.AddJSON,
		"remap", opts.Policy,
		"dry_run", opts.DryRun)

	err := r.run(ctx, log, rep, paths, opts)

	rep.FinishedAt = r.now()
	switch {
	case err != nil:
		rep.Status = store.StatusFailed
		rep.Stage, _ = StageOf(err)
		log.Error("merge failed", "stage", rep.Stage, "error", err)
	case opts.DryRun:
		rep.Status = store.StatusDryRun
		log.Info("dry run complete", "stats", rep.Stats)
	default:
		rep.Status = store.StatusOK
		log.Info("merge complete",
			"images_added", rep.Stats.ImagesAdded,
			"categories_added", rep.Stats.CategoriesAdded,
			"annotations_added", rep.Stats.AnnotationsAdded,
			"files_copied", rep.Files.Copied)
	}

	r.record(ctx, log, rep, err)
	return rep, err
}

func (r *Runner) run(ctx context.Context, log *slog.Logger, rep *Report, paths Paths, opts Options) error {
	// stage runs fn after checking for cancellation.
	stage := func(s Stage, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: s, Err: err}
		}
		log.Debug("stage starting", "stage", s)
		if err := fn(); err != nil {
			return &StageError{Stage: s, Err: err}
		}
		return nil
	}

	var base, add *coco.Document
	err := stage(StageLoad, func() error {
		var err error
		if base, err = coco.Load(paths.BaseJSON); err != nil {
			return err
		}
		add, err = coco.Load(paths.AddJSON)
		return err
	})
	if err != nil {
		return err
	}
	log.Debug("documents loaded",
		"base_images", len(base.Images),
		"add_images", len(add.Images),
		"add_annotations", len(add.Annotations))

	if opts.SchemaCheck {
		err := stage(StageSchema, func() error {
			v, err := schema.New()
			if err != nil {
				return err
			}
			if err := v.ValidateFile(paths.BaseJSON); err != nil {
				return err
			}
			return v.ValidateFile(paths.AddJSON)
		})
		if err != nil {
			return err
		}
	}

	err = stage(StageCheck, func() error {
		return merge.CheckImageDir(add, paths.AddImages)
	})
	if err != nil {
		return err
	}

	unified := base.Clone()

	err = stage(StageImageMerge, func() error {
		s, err := merge.MergeImages(unified, add)
		rep.Stats.ImagesAdded, rep.Stats.ImagesSkipped = s.Added, s.Skipped
		return err
	})
	if err != nil {
		return err
	}

	var remap merge.Remap
	err = stage(StageCategoryMerge, func() error {
		res, err := merge.MergeCategories(unified, base, add, opts.Policy)
		if err != nil {
			return err
		}
		remap = res.Remap
		rep.Remap = res.Entries
		rep.Stats.CategoriesAdded = res.Added
		for _, e := range res.Entries {
			log.Debug("category remapped", "add_id", e.AddID, "unified_id", e.UnifiedID, "name", e.Name, "new", e.New)
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = stage(StageAnnotationMerge, func() error {
		n, err := merge.MergeAnnotations(unified, add, remap)
		rep.Stats.AnnotationsAdded = n
		return err
	})
	if err != nil {
		return err
	}
	rep.Unified = unified

	if opts.DryRun {
		return nil
	}

	err = stage(StageSave, func() error {
		return coco.Save(paths.UnifiedJSON, unified)
	})
	if err != nil {
		return err
	}
	log.Info("unified annotations saved", "path", paths.UnifiedJSON)

	return stage(StageImageMove, func() error {
		files, err := imagedir.Consolidate(ctx, paths.UnifiedImages, paths.BaseImages, paths.AddImages)
		rep.Files = files
		if len(files.Collisions) > 0 {
			log.Warn("image files overwritten by add directory",
				"count", len(files.Collisions),
				"names", files.Collisions)
		}
		return err
	})
}

// record writes the run to the ledger. Ledger failures are logged, not
// returned: the merge outcome stands on its own.
func (r *Runner) record(ctx context.Context, log *slog.Logger, rep *Report, runErr error) {
	if r.ledger == nil {
		return
	}

	run := store.Run{
		ID:               rep.RunID,
		StartedAt:        rep.StartedAt,
		FinishedAt:       rep.FinishedAt,
		Status:           rep.Status,
		Stage:            string(rep.Stage),
		BaseJSON:         rep.Paths.BaseJSON,
		BaseImagePath:    rep.Paths.BaseImages,
		AddJSON:          rep.Paths.AddJSON,
		AddImagePath:     rep.Paths.AddImages,
		UnifiedJSON:      rep.Paths.UnifiedJSON,
		UnifiedImagePath: rep.Paths.UnifiedImages,
		RemapPolicy:      string(rep.Policy),
		ImagesAdded:      rep.Stats.ImagesAdded,
		ImagesSkipped:    rep.Stats.ImagesSkipped,
		CategoriesAdded:  rep.Stats.CategoriesAdded,
		AnnotationsAdded: rep.Stats.AnnotationsAdded,
		FilesCopied:      rep.Files.Copied,
		FilesOverwritten: rep.Files.Overwritten,
	}
	if runErr != nil {
		run.ErrorCode = ErrorCode(runErr)
		run.Error = runErr.Error()
	}
	for _, e := range rep.Remap {
		run.Remaps = append(run.Remaps, store.CategoryRemap{
			AddID:     e.AddID,
			UnifiedID: e.UnifiedID,
			Name:      e.Name,
			New:       e.New,
		})
	}

	if err := r.ledger.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("failed to record run", "error", fmt.Errorf("ledger: %w", err))
	}
}
