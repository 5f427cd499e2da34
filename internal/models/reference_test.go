package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePassageReference(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    PassageReference
		wantErr bool
	}{
		{name: "number", ref: "#42", want: PassageReference{Number: 42}},
		{name: "zero padded", ref: "#000123", want: PassageReference{Number: 123}},
		{name: "upper bound", ref: "#999999", want: PassageReference{Number: 999999}},
		{name: "lower bound", ref: "#1", want: PassageReference{Number: 1}},
		{name: "zero", ref: "#0", wantErr: true},
		{name: "seven digits", ref: "#1000000", wantErr: true},
		{name: "padded seven digits", ref: "#0000001", wantErr: true},
		{name: "bare hash", ref: "#", wantErr: true},
		{name: "letters", ref: "#intro", wantErr: true},
		{name: "sign", ref: "#+5", wantErr: true},
		{name: "inner space", ref: "#1 2", wantErr: true},
		{name: "empty", ref: "", wantErr: true},
		{name: "name", ref: "Intro", want: PassageReference{Name: "Intro"}},
		{name: "name with digits", ref: "42", want: PassageReference{Name: "42"}},
		{name: "name keeps whitespace", ref: " Intro ", want: PassageReference{Name: " Intro "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePassageReference(tt.ref)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidReference)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPassageReferenceFormatting(t *testing.T) {
	n := 42
	p := &Passage{PassageNumber: &n}
	assert.Equal(t, "#000042", p.Reference())
	assert.Equal(t, "", (&Passage{}).Reference())

	parsed, err := ParsePassageReference(p.Reference())
	require.NoError(t, err)
	assert.Equal(t, 42, parsed.Number)
}
