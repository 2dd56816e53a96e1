// Package ranking implements the dense-ordering engine behind showcase
// categories and featured products. It works on a snapshot of one rank scope
// (all showcase categories, or all featured products of one category) and
// computes the minimal set of rank mutations for an operation. Applying a
// mutation set is the repository's job and happens in a single transaction,
// so a partially applied operation can only come from concurrent admins, not
// from a failure mid-batch. Repair restores a dense permutation from any
// drifted state.
package ranking

import (
	"errors"
	"sort"
	"time"
)

var (
	// ErrLimitExceeded is returned when a scope already holds its maximum
	// number of ranked items.
	ErrLimitExceeded = errors.New("rank scope limit exceeded")

	// ErrInvalidRank is returned when a requested rank falls outside 1..count.
	ErrInvalidRank = errors.New("rank out of range")

	// ErrNotInScope is returned when the target item is not part of the scope.
	ErrNotInScope = errors.New("item not in rank scope")
)

// Item is one member of a rank scope.
type Item struct {
	ID        string
	Rank      *int      // nil when the item holds no rank (drifted state)
	CreatedAt time.Time // stable tiebreak for Repair
}

// Mutation assigns a new rank to an item. A nil Rank clears the rank, which
// also removes the item from the scope (the repository clears the scope flag
// alongside).
type Mutation struct {
	ID   string
	Rank *int
}

// Promote returns the rank for an item entering a scope that currently holds
// scopeSize ranked items. The new item always lands at the tail.
func Promote(scopeSize, limit int) (int, error) {
	if scopeSize >= limit {
		return 0, ErrLimitExceeded
	}
	return scopeSize + 1, nil
}

// Demote clears the target's rank and closes the gap it leaves: every item
// ranked below it moves up by one. The target mutation carries a nil rank.
func Demote(items []Item, id string) ([]Mutation, error) {
	target := find(items, id)
	if target == nil {
		return nil, ErrNotInScope
	}

	muts := []Mutation{{ID: id, Rank: nil}}
	if target.Rank == nil {
		// Drifted scope: nothing to compact, just clear the target.
		return muts, nil
	}
	old := *target.Rank
	for _, it := range items {
		if it.ID == id || it.Rank == nil {
			continue
		}
		if *it.Rank > old {
			muts = append(muts, Mutation{ID: it.ID, Rank: intPtr(*it.Rank - 1)})
		}
	}
	return muts, nil
}

// Reorder moves the target to newRank and shifts the closed interval of items
// between the old and new rank by one. Returns no mutations when the target
// already holds newRank. Items outside the scope are never touched.
func Reorder(items []Item, id string, newRank int) ([]Mutation, error) {
	if newRank < 1 || newRank > len(items) {
		return nil, ErrInvalidRank
	}
	target := find(items, id)
	if target == nil {
		return nil, ErrNotInScope
	}
	if target.Rank == nil {
		return nil, ErrInvalidRank
	}
	old := *target.Rank
	if old == newRank {
		return nil, nil
	}

	var muts []Mutation
	for _, it := range items {
		if it.ID == id || it.Rank == nil {
			continue
		}
		r := *it.Rank
		switch {
		case newRank < old && r >= newRank && r < old:
			muts = append(muts, Mutation{ID: it.ID, Rank: intPtr(r + 1)})
		case newRank > old && r > old && r <= newRank:
			muts = append(muts, Mutation{ID: it.ID, Rank: intPtr(r - 1)})
		}
	}
	muts = append(muts, Mutation{ID: id, Rank: intPtr(newRank)})
	return muts, nil
}

// Repair renumbers a scope to a dense 1..count permutation. Items are ordered
// by current rank, with missing ranks last; ties break on creation time, then
// id, so repeated repairs yield identical ranks. Only items whose rank
// actually changes produce a mutation.
func Repair(items []Item) []Mutation {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.Rank == nil && b.Rank == nil:
			// fall through to tiebreak
		case a.Rank == nil:
			return false
		case b.Rank == nil:
			return true
		case *a.Rank != *b.Rank:
			return *a.Rank < *b.Rank
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	var muts []Mutation
	for i, it := range sorted {
		want := i + 1
		if it.Rank == nil || *it.Rank != want {
			muts = append(muts, Mutation{ID: it.ID, Rank: intPtr(want)})
		}
	}
	return muts
}

func find(items []Item, id string) *Item {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}
