// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

// Package recommend defines the shared row and result types consumed by the
// Basketry recommendation strategies, along with the sentinel errors the
// strategies surface.
//
// The package deliberately contains no computation. Each strategy lives in
// its own subpackage and depends only on the declarations here:
//
//   - basket: transaction cleaning and the invoice-item incidence matrix
//   - arl: Apriori itemset mining and association-rule recommendations
//   - content: TF-IDF similarity index over free-text overviews
//   - neighborhood: Pearson item and user rating neighborhoods
//   - factorization: biased SGD latent-factor rating prediction
//
// All inputs arrive as flat in-memory slices produced by an external loader
// (see internal/dataset); the strategies never perform file I/O.
package recommend
