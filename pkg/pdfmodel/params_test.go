package pdfmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams_AreValid(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())
}

func TestValidate_RejectsOutOfRangeFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"seed size too small", func(p *Params) { p.SeedSize = 1 }},
		{"negative merge gap", func(p *Params) { p.MergeGap = -1 }},
		{"negative lookahead", func(p *Params) { p.ContextLookahead = -1 }},
		{"unknown mode", func(p *Params) { p.Mode = "approximate" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)

			err := p.Validate()
			require.Error(t, err)

			fe, ok := AsFatal(err)
			require.True(t, ok)
			assert.Equal(t, FatalInvalidParam, fe.Kind)
		})
	}
}
