package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-files-must-flow/internal/common"
)

func TestConditionConstructorValidation(t *testing.T) {
	tests := []struct {
		name      string
		construct func() (Condition, error)
		wantErr   bool
	}{
		{
			name:      "valid extension",
			construct: func() (Condition, error) { return NewExtensionEquals("PDF") },
		},
		{
			name:      "extension with leading dot normalized",
			construct: func() (Condition, error) { return NewExtensionEquals(".pdf") },
		},
		{
			name:      "empty extension rejected",
			construct: func() (Condition, error) { return NewExtensionEquals("  ") },
			wantErr:   true,
		},
		{
			name:      "empty name pattern rejected",
			construct: func() (Condition, error) { return NewNameContains("") },
			wantErr:   true,
		},
		{
			name:      "zero day count rejected",
			construct: func() (Condition, error) { return NewOlderThan(0, DateModified, "") },
			wantErr:   true,
		},
		{
			name:      "negative day count rejected",
			construct: func() (Condition, error) { return NewOlderThan(-5, DateModified, "") },
			wantErr:   true,
		},
		{
			name:      "unknown date field rejected",
			construct: func() (Condition, error) { return NewOlderThan(30, DateField("uploaded"), "") },
			wantErr:   true,
		},
		{
			name:      "valid older than",
			construct: func() (Condition, error) { return NewOlderThan(30, DateCreated, "pdf") },
		},
		{
			name:      "zero size rejected",
			construct: func() (Condition, error) { return NewLargerThan(0) },
			wantErr:   true,
		},
		{
			name:      "unknown kind rejected",
			construct: func() (Condition, error) { return NewKindEquals(FileKind("spreadsheet")) },
			wantErr:   true,
		},
		{
			name:      "valid kind",
			construct: func() (Condition, error) { return NewKindEquals(KindImage) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := tt.construct()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, common.IsValidation(err), "expected a validation error, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, cond.Validate())
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		literal string
		want    int64
		wantErr bool
	}{
		{name: "bytes", literal: "512B", want: 512},
		{name: "kilobytes", literal: "500KB", want: 500 * 1024},
		{name: "megabytes decimal", literal: "2.5MB", want: int64(2.5 * 1024 * 1024)},
		{name: "gigabytes", literal: "1GB", want: 1024 * 1024 * 1024},
		{name: "terabytes", literal: "1TB", want: 1024 * 1024 * 1024 * 1024},
		{name: "lowercase unit", literal: "10mb", want: 10 * 1024 * 1024},
		{name: "whitespace tolerated", literal: " 4 KB ", want: 4 * 1024},
		{name: "unitless rejected", literal: "1024", wantErr: true},
		{name: "empty rejected", literal: "", wantErr: true},
		{name: "garbage rejected", literal: "lotsMB", wantErr: true},
		{name: "negative rejected", literal: "-5MB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.literal)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, common.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConditionEqual(t *testing.T) {
	a, err := NewExtensionEquals("pdf")
	require.NoError(t, err)
	b, err := NewExtensionEquals("pdf")
	require.NoError(t, err)
	c, err := NewExtensionEquals("png")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	// Structural equality recurses through negation.
	assert.True(t, Not(a).Equal(Not(b)))
	assert.False(t, Not(a).Equal(Not(c)))
	assert.False(t, Not(a).Equal(a))
}

func TestConditionDescribe(t *testing.T) {
	ext, err := NewExtensionEquals("pdf")
	require.NoError(t, err)
	assert.Equal(t, "Extension: .pdf", ext.Describe())

	contains, err := NewNameContains("invoice")
	require.NoError(t, err)
	assert.Equal(t, "Contains: 'invoice'", contains.Describe())

	older, err := NewOlderThan(30, DateModified, "")
	require.NoError(t, err)
	assert.Equal(t, "Older than: 30 days (modified)", older.Describe())

	kind, err := NewKindEquals(KindImage)
	require.NoError(t, err)
	assert.Equal(t, "Kind: Image", kind.Describe())

	assert.Equal(t, "Not: Extension: .pdf", Not(ext).Describe())
}

func TestConditionTreeValidate(t *testing.T) {
	cond, err := NewExtensionEquals("pdf")
	require.NoError(t, err)
	other, err := NewNameContains("report")
	require.NoError(t, err)

	tests := []struct {
		name    string
		tree    ConditionTree
		wantErr bool
	}{
		{
			name: "single with one condition",
			tree: ConditionTree{Operator: OperatorSingle, Conditions: []Condition{cond}},
		},
		{
			name:    "single with two conditions rejected",
			tree:    ConditionTree{Operator: OperatorSingle, Conditions: []Condition{cond, other}},
			wantErr: true,
		},
		{
			name:    "and with no conditions rejected",
			tree:    ConditionTree{Operator: OperatorAnd},
			wantErr: true,
		},
		{
			name: "or with two conditions",
			tree: ConditionTree{Operator: OperatorOr, Conditions: []Condition{cond, other}},
		},
		{
			name:    "unknown operator rejected",
			tree:    ConditionTree{Operator: TreeOperator("xor"), Conditions: []Condition{cond}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tree.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRuleValidate(t *testing.T) {
	cond, err := NewExtensionEquals("pdf")
	require.NoError(t, err)
	tree := ConditionTree{Operator: OperatorSingle, Conditions: []Condition{cond}}

	valid := Rule{Name: "PDFs", Action: ActionMove, Destination: "Documents", Conditions: tree, Enabled: true}
	assert.NoError(t, valid.Validate())

	missingDest := Rule{Name: "PDFs", Action: ActionMove, Conditions: tree}
	assert.Error(t, missingDest.Validate())

	deleteRule := Rule{Name: "Old junk", Action: ActionDelete, Conditions: tree}
	assert.NoError(t, deleteRule.Validate())
	assert.Equal(t, TrashDestination, deleteRule.ResolvedDestination())

	unnamed := Rule{Action: ActionMove, Destination: "Documents", Conditions: tree}
	assert.Error(t, unnamed.Validate())
}
