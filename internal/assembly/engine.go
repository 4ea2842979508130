package assembly

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/reportgen/internal/docsink"
	"github.com/dgallion1/reportgen/internal/genai"
	"github.com/dgallion1/reportgen/internal/report"
)

// Job is one report assembly request.
type Job struct {
	Structure     *report.Structure
	Research      []report.ResearchItem
	IncludeImages bool
}

// Result describes a finished assembly run. Failed holds the ordinal paths
// of sections that could not be generated; the run as a whole still
// succeeds when some sections failed.
type Result struct {
	OutputPath    string
	StructurePath string
	Sections      int
	Failed        []string
}

// Engine assembles a report document from a section structure, generating
// each section's content and writing the result as a .docx artifact plus a
// JSON side-file describing the structure.
type Engine struct {
	writer    genai.ContentGenerator
	artist    genai.ImageGenerator
	outputDir string
	cfg       SchedulerConfig
	gate      *Gate
	log       *slog.Logger
}

// EngineConfig tunes one engine. Gate, when set, is shared with the caller
// so several engines stay under one process-wide call cap; when nil the
// engine gets a private gate of MaxInFlight slots.
type EngineConfig struct {
	OutputDir   string
	MaxInFlight int
	Gate        *Gate
	Scheduler   SchedulerConfig
}

func NewEngine(writer genai.ContentGenerator, artist genai.ImageGenerator, cfg EngineConfig, log *slog.Logger) *Engine {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 10
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	gate := cfg.Gate
	if gate == nil {
		gate = NewGate(cfg.MaxInFlight)
	}
	return &Engine{
		writer:    writer,
		artist:    artist,
		outputDir: cfg.OutputDir,
		cfg:       cfg.Scheduler,
		gate:      gate,
		log:       log,
	}
}

// Run assembles the document for job. The structure side-file is written
// before generation begins so the outline survives even an aborted run.
func (e *Engine) Run(ctx context.Context, job Job) (*Result, error) {
	if job.Structure == nil || len(job.Structure.Sections) == 0 {
		return nil, fmt.Errorf("assembly: structure has no sections")
	}

	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("assembly: create output dir: %w", err)
	}

	outPath := docsink.ArtifactPath(e.outputDir, job.Structure.Title)
	sidePath := structurePath(outPath)
	if err := writeStructure(sidePath, job.Structure); err != nil {
		return nil, err
	}

	sink := docsink.New(outPath, job.Structure.Title, e.log)
	sched := NewScheduler(e.writer, e.artist, e.gate, e.cfg, e.log)

	e.log.Info("assembly started",
		"title", job.Structure.Title,
		"sections", job.Structure.CountSections(),
		"output", outPath)

	if err := sched.Run(ctx, sink, job); err != nil {
		return nil, fmt.Errorf("assembly: %w", err)
	}
	if err := sink.Finalize(); err != nil {
		return nil, fmt.Errorf("assembly: finalize: %w", err)
	}

	failed := sched.Failed()
	sortPaths(failed)
	res := &Result{
		OutputPath:    outPath,
		StructurePath: sidePath,
		Sections:      job.Structure.CountSections(),
		Failed:        failed,
	}
	e.log.Info("assembly finished",
		"output", outPath,
		"sections", res.Sections,
		"failed", len(res.Failed))
	return res, nil
}

func structurePath(outPath string) string {
	base := strings.TrimSuffix(outPath, filepath.Ext(outPath))
	return base + "_structure.json"
}

// writeStructure serializes the outline without generated content.
func writeStructure(path string, st *report.Structure) error {
	data, err := json.MarshalIndent(st.Outline(), "", "  ")
	if err != nil {
		return fmt.Errorf("assembly: encode structure: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("assembly: write structure: %w", err)
	}
	return nil
}

// sortPaths orders ordinal paths like "2.10" numerically segment by segment.
func sortPaths(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		a := strings.Split(paths[i], ".")
		b := strings.Split(paths[j], ".")
		for k := 0; k < len(a) && k < len(b); k++ {
			na, _ := strconv.Atoi(a[k])
			nb, _ := strconv.Atoi(b[k])
			if na != nb {
				return na < nb
			}
		}
		return len(a) < len(b)
	})
}
