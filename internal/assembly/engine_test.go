package assembly

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/reportgen/internal/genai"
	"github.com/dgallion1/reportgen/internal/report"
)

func TestEngine_RunWritesArtifactAndStructure(t *testing.T) {
	dir := t.TempDir()
	eng := NewEngine(&stubWriter{}, nil, EngineConfig{
		OutputDir: dir,
		Scheduler: SchedulerConfig{Policy: fastPolicy()},
	}, discardLogger())

	res, err := eng.Run(context.Background(), Job{Structure: sectionTree()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Sections != 7 {
		t.Errorf("Sections = %d, want 7", res.Sections)
	}
	if len(res.Failed) != 0 {
		t.Errorf("Failed = %v, want none", res.Failed)
	}
	if _, err := os.Stat(res.OutputPath); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
	if filepath.Ext(res.OutputPath) != ".docx" {
		t.Errorf("artifact path = %q, want .docx", res.OutputPath)
	}

	data, err := os.ReadFile(res.StructurePath)
	if err != nil {
		t.Fatalf("structure side-file missing: %v", err)
	}
	var st report.Structure
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("structure side-file not valid JSON: %v", err)
	}
	if st.Title != "Quarterly Review" {
		t.Errorf("structure title = %q", st.Title)
	}
	var checkEmpty func(secs []*report.Section)
	checkEmpty = func(secs []*report.Section) {
		for _, s := range secs {
			if s.Content != "" {
				t.Errorf("section %q carries content in side-file", s.Title)
			}
			checkEmpty(s.Subsections)
		}
	}
	checkEmpty(st.Sections)
}

func TestEngine_ReportsFailedSectionsSorted(t *testing.T) {
	st := &report.Structure{
		Title: "R",
		Sections: []*report.Section{
			{Title: "Keep"},
			{Title: "Drop", Subsections: []*report.Section{{Title: "Keep"}, {Title: "Drop"}}},
		},
	}
	writer := &stubWriter{respond: func(req genai.GenerateRequest) (string, error) {
		if req.SectionTitle == "Drop" {
			return "", os.ErrPermission
		}
		return "Fine.", nil
	}}
	eng := NewEngine(writer, nil, EngineConfig{
		OutputDir: t.TempDir(),
		Scheduler: SchedulerConfig{Policy: fastPolicy()},
	}, discardLogger())

	res, err := eng.Run(context.Background(), Job{Structure: st})
	if err != nil {
		t.Fatalf("partial failure should not fail the run: %v", err)
	}
	if len(res.Failed) != 2 || res.Failed[0] != "2" || res.Failed[1] != "2.2" {
		t.Errorf("Failed = %v, want [2 2.2]", res.Failed)
	}
}

func TestEngine_RejectsEmptyStructure(t *testing.T) {
	eng := NewEngine(&stubWriter{}, nil, EngineConfig{OutputDir: t.TempDir()}, discardLogger())
	if _, err := eng.Run(context.Background(), Job{Structure: &report.Structure{Title: "R"}}); err == nil {
		t.Fatal("expected error for structure without sections")
	}
	if _, err := eng.Run(context.Background(), Job{}); err == nil {
		t.Fatal("expected error for nil structure")
	}
}

func TestEngine_TitleDrivesArtifactName(t *testing.T) {
	dir := t.TempDir()
	eng := NewEngine(&stubWriter{}, nil, EngineConfig{
		OutputDir: dir,
		Scheduler: SchedulerConfig{Policy: fastPolicy()},
	}, discardLogger())
	st := &report.Structure{
		Title:    "Q3 Report: Findings & Next Steps",
		Sections: []*report.Section{{Title: "Summary"}},
	}
	res, err := eng.Run(context.Background(), Job{Structure: st})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := filepath.Join(dir, "Q3_Report__Findings___Next_Steps.docx")
	if res.OutputPath != want {
		t.Errorf("OutputPath = %q, want %q", res.OutputPath, want)
	}
}
