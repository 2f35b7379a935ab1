package report

import (
	"io"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/roach88/brancheval/internal/record"
)

// ArtifactListing lists the artifacts of one run.
type ArtifactListing struct {
	RunID     string
	RunName   string
	Branch    string
	Artifacts []record.Artifact
}

// Artifacts builds the listing for run, sorted by artifact name.
func Artifacts(run record.RunRecord, list []record.Artifact) ArtifactListing {
	sorted := slices.Clone(list)
	slices.SortStableFunc(sorted, func(a, b record.Artifact) int {
		return strings.Compare(a.Name, b.Name)
	})
	if sorted == nil {
		sorted = []record.Artifact{}
	}
	return ArtifactListing{
		RunID:     run.ID,
		RunName:   run.DisplayName(),
		Branch:    run.BranchLabel("N/A"),
		Artifacts: sorted,
	}
}

// HumanSize renders a byte count in SI units. Unknown or empty sizes
// render as N/A.
func HumanSize(size int64) string {
	if size <= 0 {
		return "N/A"
	}
	return humanize.Bytes(uint64(size))
}

// Canonical implements record.Canonicaler.
func (l ArtifactListing) Canonical() any {
	arts := make([]any, len(l.Artifacts))
	for i, a := range l.Artifacts {
		var size any
		if a.Size >= 0 {
			size = a.Size
		}
		arts[i] = map[string]any{
			"name":    a.Name,
			"type":    a.Type,
			"size":    size,
			"aliases": stringList(a.Aliases),
		}
	}
	return map[string]any{
		"run_id":    l.RunID,
		"run_name":  l.RunName,
		"branch":    l.Branch,
		"artifacts": arts,
	}
}

// WriteText implements Document.
func (l ArtifactListing) WriteText(w io.Writer) error {
	t := newTextWriter(w)
	t.printf("Run: %s (ID: %s)\n", l.RunName, l.RunID)
	t.printf("Branch: %s\n", l.Branch)
	t.blank()
	if len(l.Artifacts) == 0 {
		t.line("No artifacts logged.")
		return t.flush()
	}
	t.line(col("Name", 40) + " " + col("Type", 15) + " " + col("Size", 15) + " Aliases")
	t.line(rule(90))
	for _, a := range l.Artifacts {
		row := col(a.Name, 40) + " " + col(a.Type, 15) + " " + col(HumanSize(a.Size), 15) + " " + strings.Join(a.Aliases, ", ")
		t.line(strings.TrimRight(row, " "))
	}
	return t.flush()
}
