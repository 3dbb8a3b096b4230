// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"github.com/pdiddy/scholar-sync/internal/normalize"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

type entry struct {
	pub     types.Publication
	fromOld bool // read from the stored list
	touched bool // matched by at least one fresh record
}

// index is an insertion-ordered map from identity key to record, with a
// secondary DOI lookup. Putting an existing key replaces the record in place.
type index struct {
	order   []string
	entries map[string]*entry
	byDOI   map[string]string
}

func newIndex() *index {
	return &index{
		entries: make(map[string]*entry),
		byDOI:   make(map[string]string),
	}
}

func (x *index) has(key string) bool {
	_, ok := x.entries[key]
	return ok
}

func (x *index) put(key string, p types.Publication, fromOld bool) {
	if e, ok := x.entries[key]; ok {
		e.pub = p
		e.fromOld = e.fromOld || fromOld
	} else {
		x.entries[key] = &entry{pub: p, fromOld: fromOld}
		x.order = append(x.order, key)
	}
	x.registerDOI(key, p.DOI)
}

// registerDOI maps doi to key unless another key already claimed it.
func (x *index) registerDOI(key, doi string) {
	d := normalize.DOI(doi)
	if d == "" {
		return
	}
	if _, ok := x.byDOI[d]; !ok {
		x.byDOI[d] = key
	}
}

func (x *index) keyForDOI(doi string) (string, bool) {
	d := normalize.DOI(doi)
	if d == "" {
		return "", false
	}
	k, ok := x.byDOI[d]
	return k, ok
}

// rekey moves the entry at from to the key to, keeping its position. The
// caller guarantees to is not already present.
func (x *index) rekey(from, to string) {
	e := x.entries[from]
	delete(x.entries, from)
	x.entries[to] = e
	for i, k := range x.order {
		if k == from {
			x.order[i] = to
			break
		}
	}
	for d, k := range x.byDOI {
		if k == from {
			x.byDOI[d] = to
		}
	}
}
