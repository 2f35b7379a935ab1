package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/roach88/brancheval/internal/record"
)

//go:embed snapshot.schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/roach88/brancheval/schema/snapshot.json"

// historyStepKey carries the step number in exported history rows.
const historyStepKey = "_step"

// Format is the encoding of a snapshot document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension. Anything that is not
// .yaml or .yml is read as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add snapshot schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile snapshot schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// Load reads a snapshot file, choosing the format from its extension.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Parse(path, data, FormatFor(path))
}

// Parse validates and decodes a snapshot document. source names the
// document in error messages.
func Parse(source string, data []byte, format Format) (*Snapshot, error) {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: parse yaml: %w", source, err)
		}
		data = converted
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%s: parse json: %w", source, err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(payload); err != nil {
		return nil, fromSchemaError(source, err)
	}

	var doc rawSnapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: decode snapshot: %w", source, err)
	}
	return doc.build(source)
}

type rawSnapshot struct {
	Project string   `json:"project"`
	Entity  string   `json:"entity"`
	Runs    []rawRun `json:"runs"`
}

type rawRun struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Project   string          `json:"project"`
	Branch    *string         `json:"branch"`
	State     string          `json:"state"`
	CreatedAt string          `json:"created_at"`
	LastStep  *int64          `json:"last_step"`
	Summary   record.Values   `json:"summary"`
	Config    record.Values   `json:"config"`
	Tags      []string        `json:"tags"`
	Notes     string          `json:"notes"`
	History   []record.Values `json:"history"`
	Artifacts []rawArtifact   `json:"artifacts"`
	Log       *string         `json:"log"`
}

type rawArtifact struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Size    *int64   `json:"size"`
	Aliases []string `json:"aliases"`
}

func (doc rawSnapshot) build(source string) (*Snapshot, error) {
	s := New(doc.Project, doc.Entity)
	var problems []Problem
	seen := make(map[string]bool, len(doc.Runs))

	for i, raw := range doc.Runs {
		loc := fmt.Sprintf("/runs/%d", i)
		if seen[raw.ID] {
			problems = append(problems, Problem{Location: loc + "/id", Message: fmt.Sprintf("duplicate run id %q", raw.ID)})
			continue
		}
		seen[raw.ID] = true

		created, err := ParseTime(raw.CreatedAt)
		if err != nil {
			problems = append(problems, Problem{Location: loc + "/created_at", Message: err.Error()})
			continue
		}

		r := raw.record(created)
		if r.Project == "" {
			r.Project = doc.Project
		}
		s.Add(r, historyRows(raw.History), raw.artifacts(), raw.Log)
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Source: source, Problems: problems}
	}
	return s, nil
}

func (raw rawRun) record(created time.Time) record.RunRecord {
	r := record.RunRecord{
		ID:        raw.ID,
		Name:      raw.Name,
		Project:   raw.Project,
		State:     record.ParseState(raw.State),
		CreatedAt: created,
		LastStep:  -1,
		Summary:   raw.Summary,
		Config:    raw.Config,
		Tags:      raw.Tags,
		Notes:     raw.Notes,
	}
	if r.Summary == nil {
		r.Summary = record.Values{}
	}
	if r.Config == nil {
		r.Config = record.Values{}
	}
	if raw.LastStep != nil {
		r.LastStep = *raw.LastStep
	}
	r.Branch, r.HasBranch = branchOf(raw.Branch, r.Config)
	return r
}

// branchOf prefers the explicit branch field and falls back to the text
// value of config.branch. Empty names mean unassigned.
func branchOf(explicit *string, config record.Values) (string, bool) {
	if explicit != nil {
		return *explicit, *explicit != ""
	}
	if t, ok := config[record.ConfigKeyBranch].(record.Text); ok && t != "" {
		return string(t), true
	}
	return "", false
}

func historyRows(raw []record.Values) []record.HistoryRow {
	rows := make([]record.HistoryRow, 0, len(raw))
	for _, vals := range raw {
		row := record.HistoryRow{Values: make(record.Values, len(vals))}
		for k, v := range vals {
			if k == historyStepKey {
				if n, ok := v.(record.Number); ok && n.Integer {
					row.Step, row.HasStep = n.I, true
					continue
				}
			}
			row.Values[k] = v
		}
		rows = append(rows, row)
	}
	return rows
}

func (raw rawRun) artifacts() []record.Artifact {
	out := make([]record.Artifact, 0, len(raw.Artifacts))
	for _, a := range raw.Artifacts {
		art := record.Artifact{Name: a.Name, Type: a.Type, Size: -1, Aliases: a.Aliases}
		if a.Size != nil {
			art.Size = *a.Size
		}
		if art.Aliases == nil {
			art.Aliases = []string{}
		}
		out = append(out, art)
	}
	return out
}

// ParseTime accepts RFC 3339 timestamps and zone-less timestamps, which
// are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share one
// validation and decoding path.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	normalized, err := normalizeYAML(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

func normalizeYAML(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			n, err := normalizeYAML(elem)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			n, err := normalizeYAML(elem)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := normalizeYAML(elem)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano), nil
	default:
		return val, nil
	}
}
