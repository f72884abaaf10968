// Basketry - Market Basket and Movie Recommendation Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/basketry

package factorization

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// snapshotVersion guards against loading snapshots written by an
// incompatible layout.
const snapshotVersion = 1

type snapshot struct {
	Version     int         `json:"version"`
	Config      Config      `json:"config"`
	GlobalMean  float64     `json:"global_mean"`
	Users       []int64     `json:"users"`
	Items       []int64     `json:"items"`
	UserBias    []float64   `json:"user_bias"`
	ItemBias    []float64   `json:"item_bias"`
	UserFactors [][]float64 `json:"user_factors"`
	ItemFactors [][]float64 `json:"item_factors"`
}

// Save writes the fitted model to path as JSON. The file is written with
// 0600 so rating-derived state stays private to the owning user.
func (m *Model) Save(path string) error {
	snap := snapshot{
		Version:     snapshotVersion,
		Config:      m.cfg,
		GlobalMean:  m.globalMean,
		Users:       m.indexToUser,
		Items:       m.indexToItem,
		UserBias:    m.userBias,
		ItemBias:    m.itemBias,
		UserFactors: m.userFactors,
		ItemFactors: m.itemFactors,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("factorization: marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("factorization: write snapshot: %w", err)
	}
	return nil
}

// Load reads a model previously written by Save.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("factorization: read snapshot: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("factorization: unmarshal snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("factorization: unsupported snapshot version %d", snap.Version)
	}
	if len(snap.Users) != len(snap.UserBias) || len(snap.Users) != len(snap.UserFactors) {
		return nil, fmt.Errorf("factorization: snapshot user arrays disagree on length")
	}
	if len(snap.Items) != len(snap.ItemBias) || len(snap.Items) != len(snap.ItemFactors) {
		return nil, fmt.Errorf("factorization: snapshot item arrays disagree on length")
	}
	// Every factor row must carry the configured rank or Predict's dot
	// product would index past a short row.
	for i, row := range snap.UserFactors {
		if len(row) != snap.Config.Factors {
			return nil, fmt.Errorf("factorization: snapshot user factor row %d has %d values, want %d", i, len(row), snap.Config.Factors)
		}
	}
	for i, row := range snap.ItemFactors {
		if len(row) != snap.Config.Factors {
			return nil, fmt.Errorf("factorization: snapshot item factor row %d has %d values, want %d", i, len(row), snap.Config.Factors)
		}
	}

	m := &Model{
		cfg:         snap.Config,
		globalMean:  snap.GlobalMean,
		userIndex:   make(map[int64]int, len(snap.Users)),
		itemIndex:   make(map[int64]int, len(snap.Items)),
		indexToUser: snap.Users,
		indexToItem: snap.Items,
		userBias:    snap.UserBias,
		itemBias:    snap.ItemBias,
		userFactors: snap.UserFactors,
		itemFactors: snap.ItemFactors,
	}
	for idx, id := range snap.Users {
		m.userIndex[id] = idx
	}
	for idx, id := range snap.Items {
		m.itemIndex[id] = idx
	}
	return m, nil
}
