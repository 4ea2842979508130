package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/reportgen/internal/assembly"
	"github.com/dgallion1/reportgen/internal/config"
	"github.com/dgallion1/reportgen/internal/genai"
	"github.com/dgallion1/reportgen/internal/report"
	"github.com/dgallion1/reportgen/internal/research"
)

// Worker runs a single report generation job end to end. All workers share
// one gate so concurrent jobs stay under a single process-wide call cap.
type Worker struct {
	writer genai.ContentGenerator
	artist genai.ImageGenerator
	gate   *assembly.Gate
	cfg    config.Config
	log    *slog.Logger
}

func NewWorker(writer genai.ContentGenerator, artist genai.ImageGenerator, gate *assembly.Gate, cfg config.Config, log *slog.Logger) *Worker {
	return &Worker{
		writer: writer,
		artist: artist,
		gate:   gate,
		cfg:    cfg,
		log:    log,
	}
}

// Process loads the research corpus, assembles the document and moves the
// job to its terminal status.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "title", job.Title)

	corpus, ok := w.loadResearch(job, log)
	if !ok {
		return
	}

	job.SetStatus(StatusAssembling, "assembling")
	job.SetTotalSections(job.structure.CountSections())

	artist := w.artist
	if !job.includeImages {
		artist = nil
	}
	engine := assembly.NewEngine(w.writer, artist, assembly.EngineConfig{
		OutputDir:   w.cfg.OutputDir,
		MaxInFlight: w.cfg.MaxConcurrentCalls,
		Gate:        w.gate,
		Scheduler: assembly.SchedulerConfig{
			TopFanout:    w.cfg.TopFanout,
			NestedFanout: w.cfg.NestedFanout,
			Policy: assembly.RetryPolicy{
				MaxAttempts:    w.cfg.MaxAttempts,
				InitialBackoff: w.cfg.InitialBackoff,
				MaxBackoff:     30 * w.cfg.InitialBackoff,
				CallTimeout:    w.cfg.CallTimeout,
			},
			OnSection: job.SectionDone,
		},
	}, w.log)

	res, err := engine.Run(ctx, assembly.Job{
		Structure:     job.structure,
		Research:      corpus,
		IncludeImages: job.includeImages,
	})
	if err != nil {
		log.Error("assembly failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "assembling")
		return
	}

	job.SetArtifacts(res.OutputPath, res.StructurePath, res.Failed)
	if len(res.Failed) > 0 {
		log.Warn("report completed with failed sections", "failed", res.Failed)
		job.SetStatus(StatusPartial, "done")
		return
	}
	log.Info("report completed", "output", res.OutputPath, "sections", res.Sections)
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) loadResearch(job *Job, log *slog.Logger) ([]report.ResearchItem, bool) {
	if job.researchDir == "" {
		return nil, true
	}
	job.SetStatus(StatusLoadingResearch, "loading research")
	corpus, err := research.LoadDir(job.researchDir)
	if err != nil {
		log.Error("research load failed", "dir", job.researchDir, "error", err)
		job.AddError(fmt.Sprintf("research: %s", err))
		job.SetStatus(StatusFailed, "loading research")
		return nil, false
	}
	job.SetResearchItems(len(corpus))
	log.Info("research loaded", "dir", job.researchDir, "items", len(corpus))
	return corpus, true
}
