package snapshot

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Problem is one violation at a JSON pointer into the document.
type Problem struct {
	Location string
	Message  string
}

// ValidationError reports why a snapshot document was rejected.
type ValidationError struct {
	Source   string
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("%s: invalid snapshot", e.Source)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: invalid snapshot", e.Source)
	for _, p := range e.Problems {
		loc := p.Location
		if loc == "" {
			loc = "/"
		}
		fmt.Fprintf(&b, "\n  %s: %s", loc, p.Message)
	}
	return b.String()
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// fromSchemaError flattens a schema error tree into its leaf problems,
// sorted by location.
func fromSchemaError(source string, err error) error {
	var se *jsonschema.ValidationError
	if !errors.As(err, &se) {
		return fmt.Errorf("%s: validate snapshot: %w", source, err)
	}
	var problems []Problem
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			problems = append(problems, Problem{Location: e.InstanceLocation, Message: e.Message})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(se)
	sort.SliceStable(problems, func(i, j int) bool {
		return problems[i].Location < problems[j].Location
	})
	return &ValidationError{Source: source, Problems: problems}
}
