//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

package textsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"  spaced   out  ", []string{"spaced", "out"}},
		{"", nil},
		{"...", nil},
		{"don't stop", []string{"don", "t", "stop"}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.in)
		if tt.want == nil {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, tt.want, got)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "the capital is paris", Normalize("The capital is Paris."))
	assert.Equal(t, Normalize("PARIS!"), Normalize("paris"))
}

func TestUnigramOverlap(t *testing.T) {
	ref := []string{"the", "cat", "sat"}
	cand := []string{"the", "cat", "sat"}
	s := UnigramOverlap(ref, cand)
	assert.InDelta(t, 1.0, s.Precision, 1e-9)
	assert.InDelta(t, 1.0, s.Recall, 1e-9)
	assert.InDelta(t, 1.0, s.FMeasure, 1e-9)

	s = UnigramOverlap([]string{"a", "b", "c", "d"}, []string{"a", "b"})
	assert.InDelta(t, 1.0, s.Precision, 1e-9)
	assert.InDelta(t, 0.5, s.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, s.FMeasure, 1e-9)

	// Duplicate candidate tokens only match as many times as they appear
	// in the reference.
	s = UnigramOverlap([]string{"a"}, []string{"a", "a", "a"})
	assert.InDelta(t, 1.0/3.0, s.Precision, 1e-9)
	assert.InDelta(t, 1.0, s.Recall, 1e-9)

	assert.Zero(t, UnigramOverlap(nil, cand))
	assert.Zero(t, UnigramOverlap(ref, nil))
}

func TestLCSLength(t *testing.T) {
	tests := []struct {
		a, b []string
		want int
	}{
		{[]string{"a", "b", "c"}, []string{"a", "b", "c"}, 3},
		{[]string{"a", "b", "c"}, []string{"a", "c"}, 2},
		{[]string{"a", "x", "b", "y", "c"}, []string{"a", "b", "c"}, 3},
		{[]string{"a"}, []string{"b"}, 0},
		{nil, []string{"a"}, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LCSLength(tt.a, tt.b))
		assert.Equal(t, tt.want, LCSLength(tt.b, tt.a))
	}
}

func TestRougeL(t *testing.T) {
	ref := Tokenize("the cat sat on the mat")
	s := RougeL(ref, ref)
	assert.InDelta(t, 1.0, s.FMeasure, 1e-9)

	s = RougeL(Tokenize("the cat sat"), Tokenize("the dog sat"))
	// LCS = ["the", "sat"], precision = recall = 2/3.
	assert.InDelta(t, 2.0/3.0, s.Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, s.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, s.FMeasure, 1e-9)

	assert.Zero(t, RougeL(nil, ref))
}

func TestSentTokenize(t *testing.T) {
	sents, err := SentTokenize("The cat sat. The dog barked. Nothing else happened.")
	assert.NoError(t, err)
	assert.Len(t, sents, 3)

	sents, err = SentTokenize("")
	assert.NoError(t, err)
	assert.Empty(t, sents)
}
