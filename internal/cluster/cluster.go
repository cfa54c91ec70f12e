// Package cluster groups photo fingerprints into duplicate sets.
package cluster

import (
	"photosweep/internal/fingerprint"
	"photosweep/internal/models"
)

// Candidate is one fingerprint entering a clustering pass. Slice order is
// the stable iteration order the greedy pass depends on.
type Candidate struct {
	ID   string
	Hash uint64
}

// Clusterer groups candidates whose pairwise similarity meets a percentage
// threshold.
//
// The policy is greedy and seed-based: each unassigned candidate seeds a
// group and every later unassigned candidate is compared against the seed
// only, never against other members. On chains of near-threshold similarity
// this under-merges compared to transitive closure, but it is deterministic
// for a fixed candidate order, and downstream behavior depends on exactly
// this grouping.
type Clusterer struct {
	threshold float64
}

// NewClusterer creates a Clusterer for the given similarity threshold
// (percent, clamped to [1, 100]).
func NewClusterer(thresholdPercent float64) *Clusterer {
	if thresholdPercent < 1 {
		thresholdPercent = 1
	}
	if thresholdPercent > 100 {
		thresholdPercent = 100
	}
	return &Clusterer{threshold: thresholdPercent}
}

// Threshold returns the configured similarity threshold.
func (c *Clusterer) Threshold() float64 {
	return c.threshold
}

// Cluster runs one full pass over all candidates and returns the duplicate
// groups of size two or more, with sequential ids. The result is always a
// fresh structure; prior group assignments are never patched in place.
func (c *Clusterer) Cluster(candidates []Candidate) []*models.DuplicateGroup {
	n := len(candidates)
	if n < 2 {
		return nil
	}

	assigned := make([]bool, n)
	var groups []*models.DuplicateGroup
	groupID := 1

	for i := 0; i < n; i++ {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		seed := candidates[i]
		members := []string{seed.ID}

		for j := i + 1; j < n; j++ {
			if assigned[j] {
				continue
			}
			// Compare against the seed only, not the whole group.
			if fingerprint.Similarity(seed.Hash, candidates[j].Hash) >= c.threshold {
				members = append(members, candidates[j].ID)
				assigned[j] = true
			}
		}

		if len(members) > 1 {
			groups = append(groups, &models.DuplicateGroup{
				ID:        groupID,
				PhotoIDs:  members,
				Threshold: c.threshold,
			})
			groupID++
		}
	}

	return groups
}
