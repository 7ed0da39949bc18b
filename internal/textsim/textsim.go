//
// Tencent is pleased to support the open source community by making trpc-eval-runner available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-runner is licensed under the Apache License Version 2.0.
//
//

// Package textsim provides shared text-similarity primitives for evaluators.
package textsim

import (
	"regexp"
	"strings"
)

var (
	// nonAlphaNumRE matches one or more non-alphanumeric characters for normalization.
	nonAlphaNumRE = regexp.MustCompile(`[^a-z0-9]+`)
	// spacesRE matches one or more whitespace characters for token splitting.
	spacesRE = regexp.MustCompile(`\s+`)
)

// Tokenize lowercases, strips punctuation, and splits text on whitespace.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	text = nonAlphaNumRE.ReplaceAllString(text, " ")
	parts := spacesRE.Split(strings.TrimSpace(text), -1)
	tokens := make([]string, 0, len(parts))
	for _, token := range parts {
		if token == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// Normalize collapses text to a canonical lowercase alphanumeric form for
// whole-string comparison.
func Normalize(text string) string {
	return strings.Join(Tokenize(text), " ")
}

// Score holds a precision/recall/F-measure triple.
type Score struct {
	Precision float64
	Recall    float64
	FMeasure  float64
}

// fScore combines precision and recall into a balanced F-measure.
func fScore(precision, recall float64) Score {
	s := Score{Precision: precision, Recall: recall}
	if precision+recall > 0 {
		s.FMeasure = 2 * precision * recall / (precision + recall)
	}
	return s
}

// UnigramOverlap computes unigram precision/recall/F1 of candidate against reference.
func UnigramOverlap(reference, candidate []string) Score {
	if len(reference) == 0 || len(candidate) == 0 {
		return Score{}
	}
	refCounts := make(map[string]int, len(reference))
	for _, token := range reference {
		refCounts[token]++
	}
	overlap := 0
	for _, token := range candidate {
		if refCounts[token] > 0 {
			refCounts[token]--
			overlap++
		}
	}
	precision := float64(overlap) / float64(len(candidate))
	recall := float64(overlap) / float64(len(reference))
	return fScore(precision, recall)
}

// LCSLength returns the length of the longest common subsequence of a and b.
func LCSLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Single-row DP keeps memory linear in the shorter sequence.
	if len(b) > len(a) {
		a, b = b, a
	}
	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prevDiag := 0
		for j := 1; j <= len(b); j++ {
			tmp := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prevDiag + 1
			} else if row[j] < row[j-1] {
				row[j] = row[j-1]
			}
			prevDiag = tmp
		}
	}
	return row[len(b)]
}

// RougeL computes the sentence-level ROUGE-L score of candidate against reference.
func RougeL(reference, candidate []string) Score {
	if len(reference) == 0 || len(candidate) == 0 {
		return Score{}
	}
	lcs := LCSLength(reference, candidate)
	precision := float64(lcs) / float64(len(candidate))
	recall := float64(lcs) / float64(len(reference))
	return fScore(precision, recall)
}
