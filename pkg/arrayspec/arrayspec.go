// Package arrayspec parses and validates human-entered job-array
// cancellation selectors before any irreversible scancel is issued.
//
// Grammar, tried in this order:
//
//	""            entire array (the bare base id)
//	L-H           inclusive index range
//	L-H:S         stepped range, step >= 1
//	i1,i2,...     explicit index list, duplicates rejected
//
// Every resolved index is checked against the array's declared bounds;
// an out-of-range index rejects the whole request with the offending
// index named, never silently clamped.
package arrayspec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind discriminates the selector forms.
type Kind int

const (
	EntireArray Kind = iota
	IndexRange
	SteppedRange
	ExplicitList
)

// DefaultConfirmThreshold is the resolved-task count above which a
// cancellation is flagged for extra confirmation.
const DefaultConfirmThreshold = 100

// Selector is one parsed cancellation selector. It is produced by
// Parse, consumed once by Resolve, and never reused across requests.
type Selector struct {
	Base string
	Kind Kind

	Low, High, Step int
	Indices         []int
}

// Bounds is the array's actual declared index range.
type Bounds struct {
	Low  int
	High int
}

// Resolution is a validated, ordered set of concrete task identifiers.
type Resolution struct {
	// IDs is the fully-qualified list ("base_index" per task, or the
	// bare base id for an entire-array cancellation).
	IDs []string

	// NeedsConfirmation advises the caller that the batch is large
	// enough to warrant an explicit second confirmation. It is
	// advisory, not a rejection.
	NeedsConfirmation bool
}

// ValidationError is a selector rejection with a human-readable reason.
type ValidationError struct {
	Reason string

	// Index is the offending index for bounds/duplicate failures.
	Index    int
	HasIndex bool
}

func (e *ValidationError) Error() string {
	return e.Reason
}

var (
	rangeRe   = regexp.MustCompile(`^(\d+)-(\d+)$`)
	steppedRe = regexp.MustCompile(`^(\d+)-(\d+):(\d+)$`)
	listRe    = regexp.MustCompile(`^\d+(?:\s*,\s*\d+)*$`)
)

// Parse interprets a raw selector string against a base job id.
// Bounds are not known at parse time; Resolve applies them.
func Parse(base, raw string) (*Selector, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, &ValidationError{Reason: "base job id is required"}
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &Selector{Base: base, Kind: EntireArray}, nil
	}

	if m := steppedRe.FindStringSubmatch(raw); m != nil {
		low, _ := strconv.Atoi(m[1])
		high, _ := strconv.Atoi(m[2])
		step, _ := strconv.Atoi(m[3])
		if low > high {
			return nil, &ValidationError{Reason: fmt.Sprintf("invalid range %d-%d: start exceeds end", low, high)}
		}
		if step < 1 {
			return nil, &ValidationError{Reason: fmt.Sprintf("invalid step %d: must be at least 1", step)}
		}
		return &Selector{Base: base, Kind: SteppedRange, Low: low, High: high, Step: step}, nil
	}

	if m := rangeRe.FindStringSubmatch(raw); m != nil {
		low, _ := strconv.Atoi(m[1])
		high, _ := strconv.Atoi(m[2])
		if low > high {
			return nil, &ValidationError{Reason: fmt.Sprintf("invalid range %d-%d: start exceeds end", low, high)}
		}
		return &Selector{Base: base, Kind: IndexRange, Low: low, High: high}, nil
	}

	if listRe.MatchString(raw) {
		parts := strings.Split(raw, ",")
		indices := make([]int, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, &ValidationError{Reason: fmt.Sprintf("invalid index %q", p)}
			}
			indices = append(indices, n)
		}
		return &Selector{Base: base, Kind: ExplicitList, Indices: indices}, nil
	}

	return nil, &ValidationError{Reason: fmt.Sprintf("unrecognized selector %q: expected L-H, L-H:S, or a comma-separated index list", raw)}
}

// Resolve validates the selector against the array's actual bounds and
// returns the ordered identifier list. confirmThreshold <= 0 uses
// DefaultConfirmThreshold.
func (s *Selector) Resolve(b Bounds, confirmThreshold int) (*Resolution, error) {
	if confirmThreshold <= 0 {
		confirmThreshold = DefaultConfirmThreshold
	}

	if s.Kind == EntireArray {
		// Cancelling the bare base id cancels the whole array.
		return &Resolution{IDs: []string{s.Base}}, nil
	}

	indices, err := s.resolveIndices()
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(indices))
	ids := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx < b.Low || idx > b.High {
			return nil, &ValidationError{
				Reason:   fmt.Sprintf("index %d is outside the array bounds %d-%d", idx, b.Low, b.High),
				Index:    idx,
				HasIndex: true,
			}
		}
		if _, dup := seen[idx]; dup {
			return nil, &ValidationError{
				Reason:   fmt.Sprintf("index %d appears more than once", idx),
				Index:    idx,
				HasIndex: true,
			}
		}
		seen[idx] = struct{}{}
		ids = append(ids, fmt.Sprintf("%s_%d", s.Base, idx))
	}

	return &Resolution{
		IDs:               ids,
		NeedsConfirmation: len(ids) > confirmThreshold,
	}, nil
}

func (s *Selector) resolveIndices() ([]int, error) {
	switch s.Kind {
	case IndexRange:
		indices := make([]int, 0, s.High-s.Low+1)
		for i := s.Low; i <= s.High; i++ {
			indices = append(indices, i)
		}
		return indices, nil
	case SteppedRange:
		var indices []int
		for i := s.Low; i <= s.High; i += s.Step {
			indices = append(indices, i)
		}
		return indices, nil
	case ExplicitList:
		return s.Indices, nil
	default:
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown selector kind %d", s.Kind)}
	}
}
