package csp

import (
	"encoding/json"
	"maps"
	"slices"
)

// assignmentJSON is the interchange form of an Assignment: two entry lists,
// sorted by variable identity so the encoding is deterministic.
type assignmentJSON struct {
	Ints  []intEntry  `json:"ints"`
	Bools []boolEntry `json:"bools"`
}

type intEntry struct {
	Name  string   `json:"name"`
	Index []string `json:"index,omitempty"`
	Value int64    `json:"value"`
}

type boolEntry struct {
	Name  string   `json:"name"`
	Index []string `json:"index,omitempty"`
	Value bool     `json:"value"`
}

// MarshalJSON implements json.Marshaler. The format is human readable and
// stable: one entry per assigned variable, integers before booleans, each
// list sorted by variable identity.
func (a *Assignment) MarshalJSON() ([]byte, error) {
	out := assignmentJSON{
		Ints:  make([]intEntry, 0, len(a.ints)),
		Bools: make([]boolEntry, 0, len(a.bools)),
	}
	for _, k := range slices.Sorted(maps.Keys(a.ints)) {
		bound := a.ints[k]
		out.Ints = append(out.Ints, intEntry{Name: bound.v.Name, Index: bound.v.Index, Value: bound.value})
	}
	for _, k := range slices.Sorted(maps.Keys(a.bools)) {
		bound := a.bools[k]
		out.Bools = append(out.Bools, boolEntry{Name: bound.b.Name, Index: bound.b.Index, Value: bound.value})
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler, replacing the receiver's
// contents.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	var in assignmentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	a.ints = make(map[string]intBinding, len(in.Ints))
	a.bools = make(map[string]boolBinding, len(in.Bools))
	for _, e := range in.Ints {
		a.SetInt(Var{Name: e.Name, Index: e.Index}, e.Value)
	}
	for _, e := range in.Bools {
		a.SetBool(Bool{Name: e.Name, Index: e.Index}, e.Value)
	}
	return nil
}
