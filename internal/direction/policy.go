package direction

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// PolicyError reports an invalid policy file, with the CUE position when
// one is available.
type PolicyError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *PolicyError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadPolicy reads a CUE policy file:
//
//	keywords: ["loss", "error", "latency"]
//	metrics: {
//		"custom_score":           "lower"
//		"error_budget_remaining": "higher"
//	}
//
// Both fields are optional. An absent keywords list keeps DefaultKeywords.
func LoadPolicy(path string) (Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Classifier{}, fmt.Errorf("read policy: %w", err)
	}
	return ParsePolicy(path, data)
}

// ParsePolicy compiles policy source. filename is used for positions only.
func ParsePolicy(filename string, src []byte) (Classifier, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Classifier{}, formatCUEError(err)
	}

	var c Classifier

	kwVal := v.LookupPath(cue.ParsePath("keywords"))
	if kwVal.Exists() {
		iter, err := kwVal.List()
		if err != nil {
			return Classifier{}, &PolicyError{Field: "keywords", Message: "must be a list of strings", Pos: kwVal.Pos()}
		}
		c.Keywords = []string{}
		for iter.Next() {
			kw, err := iter.Value().String()
			if err != nil {
				return Classifier{}, &PolicyError{Field: "keywords", Message: "must be a list of strings", Pos: iter.Value().Pos()}
			}
			c.Keywords = append(c.Keywords, kw)
		}
	}

	metricsVal := v.LookupPath(cue.ParsePath("metrics"))
	if metricsVal.Exists() {
		iter, err := metricsVal.Fields()
		if err != nil {
			return Classifier{}, &PolicyError{Field: "metrics", Message: "must be a struct of metric: direction", Pos: metricsVal.Pos()}
		}
		c.Overrides = make(map[string]Direction)
		for iter.Next() {
			name := iter.Label()
			raw, err := iter.Value().String()
			if err != nil {
				return Classifier{}, &PolicyError{Field: "metrics." + name, Message: "direction must be a string", Pos: iter.Value().Pos()}
			}
			d, ok := ParseDirection(raw)
			if !ok {
				return Classifier{}, &PolicyError{
					Field:   "metrics." + name,
					Message: fmt.Sprintf("unknown direction %q (want lower or higher)", raw),
					Pos:     iter.Value().Pos(),
				}
			}
			c.Overrides[name] = d
		}
	}

	return c, nil
}

// formatCUEError keeps the first CUE error with its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &PolicyError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return &PolicyError{Field: "cue", Message: first.Error()}
}
