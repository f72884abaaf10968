// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

package recommend

import "errors"

// Sentinel errors surfaced by the strategy packages. Callers match them
// with errors.Is; the packages wrap them with context via fmt.Errorf and %w.
var (
	// ErrEmptyInput indicates the input collaborator was empty, or was
	// filtered away entirely before a minimum threshold could be applied.
	ErrEmptyInput = errors.New("empty input")

	// ErrUnknownIdentifier indicates a requested item, title, or user has
	// no corresponding row or column. Lookups fail loudly rather than
	// returning an empty result.
	ErrUnknownIdentifier = errors.New("unknown identifier")

	// ErrThresholdTooStrict indicates a mining or selection parameter
	// eliminated every candidate at the first stage. Later-stage filters
	// producing an empty result are valid outcomes and do not return this.
	ErrThresholdTooStrict = errors.New("threshold eliminates all candidates")

	// ErrNotTrained indicates a query was issued before the corresponding
	// structure was built or model fitted.
	ErrNotTrained = errors.New("not trained")
)
