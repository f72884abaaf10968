// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

package content

import (
	"fmt"
	"sort"

	"github.com/tomtom215/basketry/internal/recommend"
)

// SimilarityIndex holds the dense pairwise cosine-similarity matrix for a
// document corpus together with the title lookup. Computed once and reused
// for all queries; the matrix needs O(n^2) float64 storage for n documents.
type SimilarityIndex struct {
	titles []string
	index  map[string]int
	sim    [][]float64
}

// BuildIndex computes TF-IDF vectors for the corpus (missing text is
// treated as the empty string by the loader) and the full pairwise cosine
// matrix. The title index collapses duplicate titles keeping the last
// occurrence.
//
// The matrix is symmetric with diagonal 1.0 for any document with at least
// one indexed term; a document whose text is empty after stop-word removal
// has a zero vector and similarity 0 to everything, itself included.
func BuildIndex(docs []recommend.Document) (*SimilarityIndex, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("content: empty corpus: %w", recommend.ErrEmptyInput)
	}

	tokenized := make([][]string, len(docs))
	titles := make([]string, len(docs))
	index := make(map[string]int, len(docs))
	for i, doc := range docs {
		tokenized[i] = tokenize(doc.Body)
		titles[i] = doc.Title
		index[doc.Title] = i // last occurrence wins
	}

	vectors, _ := buildTermVectors(tokenized)

	n := len(vectors)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		sim[i][i] = dot(vectors[i], vectors[i])
		for j := i + 1; j < n; j++ {
			s := dot(vectors[i], vectors[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}

	return &SimilarityIndex{titles: titles, index: index, sim: sim}, nil
}

// Len returns the number of documents in the index.
func (ix *SimilarityIndex) Len() int {
	return len(ix.titles)
}

// Similarity returns the cosine similarity between documents i and j.
func (ix *SimilarityIndex) Similarity(i, j int) float64 {
	return ix.sim[i][j]
}

// RecommendSimilar resolves the title through the deduplicated index and
// returns the count most similar other documents, scores descending.
//
// The query document itself is excluded by row index, not merely by
// skipping the top rank: self-similarity is an identity artifact, and a
// duplicate document scoring 1.0 must still be returned.
//
// Returns ErrUnknownIdentifier when the title is not in the corpus.
func (ix *SimilarityIndex) RecommendSimilar(title string, count int) ([]recommend.ScoredTitle, error) {
	row, ok := ix.index[title]
	if !ok {
		return nil, fmt.Errorf("content: title %q: %w", title, recommend.ErrUnknownIdentifier)
	}
	if count <= 0 {
		return nil, nil
	}

	order := make([]int, 0, len(ix.titles)-1)
	for i := range ix.titles {
		if i != row {
			order = append(order, i)
		}
	}
	scores := ix.sim[row]
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if count > len(order) {
		count = len(order)
	}
	results := make([]recommend.ScoredTitle, count)
	for i := 0; i < count; i++ {
		results[i] = recommend.ScoredTitle{
			Title: ix.titles[order[i]],
			Score: scores[order[i]],
		}
	}
	return results, nil
}
