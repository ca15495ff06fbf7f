package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/the-files-must-flow/internal/common"
)

// ConditionKind identifies which predicate a Condition expresses.
type ConditionKind string

// Condition kind constants.
const (
	ConditionExtensionEquals ConditionKind = "extension_equals"
	ConditionNameContains    ConditionKind = "name_contains"
	ConditionNameStartsWith  ConditionKind = "name_starts_with"
	ConditionNameEndsWith    ConditionKind = "name_ends_with"
	ConditionKindEquals      ConditionKind = "kind_equals"
	ConditionOlderThan       ConditionKind = "older_than"
	ConditionLargerThan      ConditionKind = "larger_than"
	ConditionNot             ConditionKind = "not"
)

// DateField selects which timestamp an older_than condition reads.
type DateField string

// Date field constants.
const (
	DateCreated  DateField = "created"
	DateModified DateField = "modified"
	DateAccessed DateField = "accessed"
)

// Condition is a single testable predicate over one file's metadata,
// represented as a tagged variant: Kind selects the case, and only the
// fields belonging to that case are populated. Conditions are validated at
// construction time; the evaluator assumes well-formed input.
type Condition struct {
	Negated         *Condition    `json:"negated,omitempty"`
	Kind            ConditionKind `json:"kind"`
	Text            string        `json:"text,omitempty"`
	FileKind        FileKind      `json:"file_kind,omitempty"`
	DateField       DateField     `json:"date_field,omitempty"`
	ExtensionFilter string        `json:"extension_filter,omitempty"`
	Days            int           `json:"days,omitempty"`
	Bytes           int64         `json:"bytes,omitempty"`
}

// NewExtensionEquals matches files whose extension equals ext
// (case-insensitive, leading dot optional).
func NewExtensionEquals(ext string) (Condition, error) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return Condition{}, common.NewValidationError("extension", "extension cannot be empty")
	}
	return Condition{Kind: ConditionExtensionEquals, Text: ext}, nil
}

// NewNameContains matches files whose name contains text as a literal
// substring.
func NewNameContains(text string) (Condition, error) {
	if strings.TrimSpace(text) == "" {
		return Condition{}, common.NewValidationError("text", "name pattern cannot be empty")
	}
	return Condition{Kind: ConditionNameContains, Text: text}, nil
}

// NewNameStartsWith matches files whose name starts with text.
func NewNameStartsWith(text string) (Condition, error) {
	if strings.TrimSpace(text) == "" {
		return Condition{}, common.NewValidationError("text", "name pattern cannot be empty")
	}
	return Condition{Kind: ConditionNameStartsWith, Text: text}, nil
}

// NewNameEndsWith matches files whose name ends with text.
func NewNameEndsWith(text string) (Condition, error) {
	if strings.TrimSpace(text) == "" {
		return Condition{}, common.NewValidationError("text", "name pattern cannot be empty")
	}
	return Condition{Kind: ConditionNameEndsWith, Text: text}, nil
}

// NewKindEquals matches files whose extension belongs to the named semantic
// category (image, video, document, audio, archive, code).
func NewKindEquals(kind FileKind) (Condition, error) {
	if !kind.Valid() {
		return Condition{}, common.NewValidationError("file_kind", fmt.Sprintf("unknown file kind %q", kind))
	}
	return Condition{Kind: ConditionKindEquals, FileKind: kind}, nil
}

// NewOlderThan matches files whose selected timestamp is strictly more than
// days*86400 seconds in the past. extensionFilter, when non-empty, further
// restricts the match to files with that extension.
func NewOlderThan(days int, field DateField, extensionFilter string) (Condition, error) {
	if days <= 0 {
		return Condition{}, common.NewValidationError("days", fmt.Sprintf("day count must be positive, got %d", days))
	}
	switch field {
	case DateCreated, DateModified, DateAccessed:
	default:
		return Condition{}, common.NewValidationError("date_field", fmt.Sprintf("unknown date field %q", field))
	}
	return Condition{
		Kind:            ConditionOlderThan,
		Days:            days,
		DateField:       field,
		ExtensionFilter: strings.ToLower(strings.TrimPrefix(extensionFilter, ".")),
	}, nil
}

// NewLargerThan matches files strictly larger than the given byte count.
func NewLargerThan(bytes int64) (Condition, error) {
	if bytes <= 0 {
		return Condition{}, common.NewValidationError("bytes", fmt.Sprintf("size must be positive, got %d", bytes))
	}
	return Condition{Kind: ConditionLargerThan, Bytes: bytes}, nil
}

// Not inverts a condition. Double negation behaves as identity at
// evaluation time.
func Not(c Condition) Condition {
	inner := c
	return Condition{Kind: ConditionNot, Negated: &inner}
}

// Validate re-checks a condition's structural invariants. Conditions built
// through the constructors are always valid; this exists for conditions
// decoded from storage or produced by external rule authors.
func (c Condition) Validate() error {
	switch c.Kind {
	case ConditionExtensionEquals, ConditionNameContains, ConditionNameStartsWith, ConditionNameEndsWith:
		if strings.TrimSpace(c.Text) == "" {
			return common.NewValidationError("text", "text cannot be empty")
		}
	case ConditionKindEquals:
		if !c.FileKind.Valid() {
			return common.NewValidationError("file_kind", fmt.Sprintf("unknown file kind %q", c.FileKind))
		}
	case ConditionOlderThan:
		if c.Days <= 0 {
			return common.NewValidationError("days", fmt.Sprintf("day count must be positive, got %d", c.Days))
		}
		switch c.DateField {
		case DateCreated, DateModified, DateAccessed:
		default:
			return common.NewValidationError("date_field", fmt.Sprintf("unknown date field %q", c.DateField))
		}
	case ConditionLargerThan:
		if c.Bytes <= 0 {
			return common.NewValidationError("bytes", fmt.Sprintf("size must be positive, got %d", c.Bytes))
		}
	case ConditionNot:
		if c.Negated == nil {
			return common.NewValidationError("negated", "negated condition cannot be nil")
		}
		return c.Negated.Validate()
	default:
		return common.NewValidationError("kind", fmt.Sprintf("unknown condition kind %q", c.Kind))
	}
	return nil
}

// Equal reports whether two conditions are structurally identical.
func (c Condition) Equal(other Condition) bool {
	if c.Kind != other.Kind {
		return false
	}
	if c.Kind == ConditionNot {
		if c.Negated == nil || other.Negated == nil {
			return c.Negated == other.Negated
		}
		return c.Negated.Equal(*other.Negated)
	}
	return c.Text == other.Text &&
		c.FileKind == other.FileKind &&
		c.DateField == other.DateField &&
		c.ExtensionFilter == other.ExtensionFilter &&
		c.Days == other.Days &&
		c.Bytes == other.Bytes
}

// Describe returns a short human-readable description of the condition,
// used to build rule match reasons. The first letter is capitalized for
// display.
func (c Condition) Describe() string {
	switch c.Kind {
	case ConditionExtensionEquals:
		return fmt.Sprintf("Extension: .%s", c.Text)
	case ConditionNameContains:
		return fmt.Sprintf("Contains: '%s'", c.Text)
	case ConditionNameStartsWith:
		return fmt.Sprintf("Starts with: '%s'", c.Text)
	case ConditionNameEndsWith:
		return fmt.Sprintf("Ends with: '%s'", c.Text)
	case ConditionKindEquals:
		return fmt.Sprintf("Kind: %s", c.FileKind.Display())
	case ConditionOlderThan:
		desc := fmt.Sprintf("Older than: %d days (%s)", c.Days, c.DateField)
		if c.ExtensionFilter != "" {
			desc += fmt.Sprintf(" for .%s", c.ExtensionFilter)
		}
		return desc
	case ConditionLargerThan:
		return fmt.Sprintf("Larger than: %s", FormatSize(c.Bytes))
	case ConditionNot:
		if c.Negated == nil {
			return "Not: (invalid)"
		}
		return fmt.Sprintf("Not: %s", c.Negated.Describe())
	}
	return string(c.Kind)
}

// sizeUnits maps size suffixes to powers of 1024, longest suffix first so
// that "MB" is not consumed as "B".
var sizeUnits = []struct {
	suffix string
	power  int
}{
	{"TB", 4},
	{"GB", 3},
	{"MB", 2},
	{"KB", 1},
	{"B", 0},
}

// ParseSize parses a size literal such as "500KB" or "2.5MB" into bytes.
// Suffixes are interpreted as powers of 1024 and matched case-insensitively.
// Unitless values are malformed and rejected.
func ParseSize(literal string) (int64, error) {
	trimmed := strings.TrimSpace(literal)
	if trimmed == "" {
		return 0, common.NewValidationError("size", "size literal cannot be empty")
	}

	upper := strings.ToUpper(trimmed)
	for _, unit := range sizeUnits {
		if !strings.HasSuffix(upper, unit.suffix) {
			continue
		}
		numeric := strings.TrimSpace(strings.TrimSuffix(upper, unit.suffix))
		value, err := strconv.ParseFloat(numeric, 64)
		if err != nil {
			return 0, common.NewValidationError("size", fmt.Sprintf("invalid size literal %q", literal))
		}
		if value <= 0 {
			return 0, common.NewValidationError("size", fmt.Sprintf("size must be positive, got %q", literal))
		}
		multiplier := float64(1)
		for range unit.power {
			multiplier *= 1024
		}
		return int64(value * multiplier), nil
	}

	return 0, common.NewValidationError("size", fmt.Sprintf("size literal %q has no unit (expected B, KB, MB, GB, or TB)", literal))
}

// FormatSize renders a byte count using the largest fitting unit.
func FormatSize(bytes int64) string {
	value := float64(bytes)
	units := []string{"B", "KB", "MB", "GB", "TB"}
	idx := 0
	for value >= 1024 && idx < len(units)-1 {
		value /= 1024
		idx++
	}
	if idx == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", value, units[idx])
}
