package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgallion1/reportgen/internal/docsink"
	"github.com/dgallion1/reportgen/internal/genai"
	"github.com/dgallion1/reportgen/internal/markup"
	"github.com/dgallion1/reportgen/internal/report"
)

// Scheduler walks a section tree and drives content generation for every
// node concurrently. A parent's content is committed to the sink before any
// of its children start; siblings run in parallel under a per-depth cap.
type Scheduler struct {
	writer  genai.ContentGenerator
	artist  genai.ImageGenerator
	gate    *Gate
	policy  RetryPolicy
	topFan  int
	nestFan int
	onDone  func(id string, failed bool)
	log     *slog.Logger

	mu     sync.Mutex
	failed []string

	sinkErr   error
	sinkErrMu sync.Mutex
}

// SchedulerConfig bundles the tuning knobs for a scheduler. OnSection, when
// set, is called after each section commits; it must be safe for concurrent
// use.
type SchedulerConfig struct {
	TopFanout    int
	NestedFanout int
	Policy       RetryPolicy
	OnSection    func(id string, failed bool)
}

func NewScheduler(writer genai.ContentGenerator, artist genai.ImageGenerator, gate *Gate, cfg SchedulerConfig, log *slog.Logger) *Scheduler {
	if cfg.TopFanout <= 0 {
		cfg.TopFanout = 10
	}
	if cfg.NestedFanout <= 0 {
		cfg.NestedFanout = 3
	}
	if cfg.Policy.MaxAttempts <= 0 {
		cfg.Policy = DefaultRetryPolicy()
	}
	return &Scheduler{
		writer:  writer,
		artist:  artist,
		gate:    gate,
		policy:  cfg.Policy,
		topFan:  cfg.TopFanout,
		nestFan: cfg.NestedFanout,
		onDone:  cfg.OnSection,
		log:     log,
	}
}

// Failed returns the ordinal paths of sections whose generation gave up,
// in no particular order.
func (s *Scheduler) Failed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failed))
	copy(out, s.failed)
	return out
}

func (s *Scheduler) recordFailure(id string) {
	s.mu.Lock()
	s.failed = append(s.failed, id)
	s.mu.Unlock()
}

func (s *Scheduler) setSinkErr(err error) {
	s.sinkErrMu.Lock()
	if s.sinkErr == nil {
		s.sinkErr = err
	}
	s.sinkErrMu.Unlock()
}

func (s *Scheduler) sinkFailed() error {
	s.sinkErrMu.Lock()
	defer s.sinkErrMu.Unlock()
	return s.sinkErr
}

func (s *Scheduler) fanoutFor(depth int) int {
	if depth <= 1 {
		return s.topFan
	}
	return s.nestFan
}

// Run generates every section in the tree and commits the result to sink.
// Document writing failures abort the walk and are returned; individual
// generation failures are recorded and skipped instead.
func (s *Scheduler) Run(ctx context.Context, sink *docsink.DocumentSink, job Job) error {
	s.walk(ctx, sink, job.Structure.Sections, 1, "", job)
	if err := s.sinkFailed(); err != nil {
		return err
	}
	return ctx.Err()
}

// walk fans out over siblings at one depth, processing each section and then
// recursing into its children once the parent's content is in the sink.
func (s *Scheduler) walk(ctx context.Context, sink *docsink.DocumentSink, sections []*report.Section, depth int, idPrefix string, job Job) {
	if len(sections) == 0 {
		return
	}
	sem := make(chan struct{}, s.fanoutFor(depth))
	var wg sync.WaitGroup

	for i, sec := range sections {
		if ctx.Err() != nil || s.sinkFailed() != nil {
			break
		}
		id := fmt.Sprintf("%d", i+1)
		if idPrefix != "" {
			id = idPrefix + "." + id
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(sec *report.Section, id string) {
			defer wg.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil || s.sinkFailed() != nil {
				return
			}
			s.processSection(ctx, sink, sec, depth, id, job)
			s.walk(ctx, sink, sec.Subsections, depth+1, id, job)
		}(sec, id)
	}
	wg.Wait()
}

// processSection produces one section's content, renders it to elements and
// commits them. On generation failure only the heading is committed so the
// document keeps its shape, and the subtree is still descended into.
func (s *Scheduler) processSection(ctx context.Context, sink *docsink.DocumentSink, sec *report.Section, depth int, id string, job Job) {
	content, err := s.sectionContent(ctx, sec, job)
	failed := err != nil
	if failed {
		s.log.Error("section generation failed",
			"section", sec.Title,
			"path", id,
			"error", err)
		s.recordFailure(id)
		content = ""
	}

	elems := []docsink.Element{headingElement(sec.Title, depth)}
	for _, b := range markup.Parse(content) {
		elems = append(elems, s.resolveBlock(ctx, b, sec.Title))
	}
	elems = append(elems, explicitAssets(sec)...)

	sink.Append(id, elems)
	if err := sink.Checkpoint(); err != nil {
		s.log.Error("document checkpoint failed", "path", id, "error", err)
		s.setSinkErr(err)
		return
	}
	if s.onDone != nil {
		s.onDone(id, failed)
	}
}

// sectionContent returns the section body, generating it unless the outline
// already carried prose for this node. Generated text is stored back on the
// node, which is safe because each node is owned by exactly one task. When
// images were requested but the first response contains none, the model is
// re-prompted once.
func (s *Scheduler) sectionContent(ctx context.Context, sec *report.Section, job Job) (string, error) {
	if strings.TrimSpace(sec.Content) != "" {
		return sec.Content, nil
	}

	req := genai.GenerateRequest{
		SectionTitle:  sec.Title,
		MainTopic:     job.Structure.Title,
		Research:      genai.RelevantResearch(sec.Title, job.Research),
		IncludeImages: job.IncludeImages,
	}
	content, err := Call(ctx, s.gate, s.policy, func(ctx context.Context) (string, error) {
		return s.writer.GenerateSection(ctx, req)
	})
	if err != nil {
		return "", err
	}

	if job.IncludeImages && !strings.Contains(content, "![") {
		s.log.Info("re-prompting for missing images", "section", sec.Title)
		req.Reinforce = true
		redo, err := Call(ctx, s.gate, s.policy, func(ctx context.Context) (string, error) {
			return s.writer.GenerateSection(ctx, req)
		})
		if err == nil && strings.TrimSpace(redo) != "" {
			content = redo
		}
	}
	sec.Content = content
	return content, nil
}

// resolveBlock turns an image block into an element with a generated asset
// path. Generation failures leave the path empty so the renderer can place
// a failure marker instead of dropping the figure.
func (s *Scheduler) resolveBlock(ctx context.Context, b markup.Block, sectionTitle string) docsink.Element {
	elem := docsink.Element{Block: b}
	if b.Kind != markup.BlockImage || s.artist == nil {
		return elem
	}
	path, err := Call(ctx, s.gate, s.policy, func(ctx context.Context) (string, error) {
		return s.artist.GenerateImage(ctx, b.Description, b.Caption)
	})
	if err != nil {
		s.log.Warn("image generation failed",
			"section", sectionTitle,
			"caption", b.Caption,
			"error", err)
		return elem
	}
	elem.AssetPath = path
	return elem
}

func headingElement(title string, depth int) docsink.Element {
	level := depth
	if level > 6 {
		level = 6
	}
	return docsink.Element{Block: markup.Block{
		Kind:  markup.BlockHeading,
		Level: level,
		Text:  title,
	}}
}

// explicitAssets renders the images and tables attached directly to a
// section node, after its generated prose.
func explicitAssets(sec *report.Section) []docsink.Element {
	var elems []docsink.Element
	for _, img := range sec.Images {
		elems = append(elems, docsink.Element{
			Block: markup.Block{
				Kind:    markup.BlockImage,
				Caption: img.Caption,
			},
			AssetPath: img.Path,
		})
	}
	for _, tbl := range sec.Tables {
		elems = append(elems, docsink.Element{Block: markup.Block{
			Kind:    markup.BlockTable,
			Rows:    tbl.Rows,
			Caption: tbl.Caption,
		}})
	}
	return elems
}
