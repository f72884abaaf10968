// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

// Package content builds a TF-IDF term-vector matrix over free-text
// catalog entries and answers similar-title queries against the full
// pairwise cosine-similarity matrix.
package content

import (
	"math"
	"strings"
	"unicode"
)

// tokenize lowercases the text and splits it into alphanumeric tokens of
// at least two characters, excluding the fixed English stop-word set.
func tokenize(text string) []string {
	var tokens []string
	var b strings.Builder

	flush := func() {
		if b.Len() >= 2 {
			word := b.String()
			if _, stop := englishStopWords[word]; !stop {
				tokens = append(tokens, word)
			}
		}
		b.Reset()
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// termVector is a sparse TF-IDF row keyed by vocabulary index.
type termVector map[int]float64

// buildTermVectors converts one tokenized document per row into
// L2-normalized TF-IDF vectors over a shared vocabulary.
//
// IDF uses the smoothed form ln((1+n)/(1+df)) + 1, so terms appearing in
// every document still carry weight and unseen-document counts cannot
// divide by zero. Row normalization makes cosine similarity a plain dot
// product and puts identical documents at similarity 1.
func buildTermVectors(docs [][]string) ([]termVector, map[string]int) {
	vocab := make(map[string]int)
	df := make(map[int]int)

	counts := make([]map[int]float64, len(docs))
	for d, tokens := range docs {
		row := make(map[int]float64, len(tokens))
		for _, tok := range tokens {
			idx, ok := vocab[tok]
			if !ok {
				idx = len(vocab)
				vocab[tok] = idx
			}
			row[idx]++
		}
		for idx := range row {
			df[idx]++
		}
		counts[d] = row
	}

	n := float64(len(docs))
	idf := make(map[int]float64, len(vocab))
	for idx, docFreq := range df {
		idf[idx] = math.Log((1+n)/(1+float64(docFreq))) + 1
	}

	vectors := make([]termVector, len(docs))
	for d, row := range counts {
		vec := make(termVector, len(row))
		var norm float64
		for idx, tf := range row {
			w := tf * idf[idx]
			vec[idx] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for idx := range vec {
				vec[idx] /= norm
			}
		}
		vectors[d] = vec
	}
	return vectors, vocab
}

// dot computes the inner product of two sparse rows. With normalized rows
// this is the cosine similarity; a zero vector yields 0.
func dot(a, b termVector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for idx, v := range a {
		sum += v * b[idx]
	}
	return sum
}
