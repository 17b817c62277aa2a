package csp

import (
	"bytes"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/sequencer/copris"
	"github.com/stretchr/testify/require"
)

// richStore builds a store touching every domain, term and constraint
// variant, with a checkpoint in the middle so the delta state is non
// trivial.
func richStore(t *testing.T) *Store {
	t.Helper()
	assert := require.New(t)
	s := NewStore()

	x, err := s.IntRange("x", 0, 9)
	assert.NoError(err)
	set, err := NewSet(2, 3, 5, 7)
	assert.NoError(err)
	y, err := s.Int("y", set)
	assert.NoError(err)
	colors, err := NewEnum("red", "green", "blue")
	assert.NoError(err)
	c, err := s.Int("c", colors, "0")
	assert.NoError(err)
	p, err := s.BoolVar("p")
	assert.NoError(err)
	q, err := s.BoolVar("q", "1")
	assert.NoError(err)
	aux, err := s.AuxInt(Interval{Lo: 0, Hi: 1})
	assert.NoError(err)

	assert.NoError(s.Add(
		Eq(Add(x, Neg(y), Abs(Sub(x, y)), Mul(x, Num(2))), Num(0)),
		Le(Div(x, Num(3)), Mod(y, Num(4))),
		Lt(Min(x, y), Max(x, y, c)),
		Ge(If(Lt(x, y), x, y), aux),
		Gt(x, Num(-1)),
		Ne(c, Num(1)),
		Imp(p, Or(q, Xor(p, q))),
		Iff(p, Not(q)),
		And(True, Or(False, p)),
	))

	ws, err := NewWeightedSum([]WeightedTerm{{Coeff: 2, Term: x}, {Coeff: -3, Term: y}}, CmpLe, Num(10))
	assert.NoError(err)
	cnt, err := NewCount(Num(2), []Term{x, y, c}, CmpGe, Num(1))
	assert.NoError(err)
	assert.NoError(s.Add(
		AllDifferent{Terms: []Term{x, y, c}},
		ws,
		Cumulative{
			Tasks: []Task{
				{Origin: x, Duration: Num(2), End: nil, Height: Num(1)},
				{Origin: nil, Duration: Num(3), End: y, Height: Num(2)},
			},
			Limit: Num(3),
		},
		Element{Index: x, List: []Term{y, c, Num(8)}, Value: aux},
		Disjunctive{Tasks: []Span{{Origin: x, Duration: Num(1)}, {Origin: y, Duration: Num(2)}}},
		LexLess{Xs: []Term{x, y}, Ys: []Term{y, c}},
		LexLessEq{Xs: []Term{x}, Ys: []Term{y}},
		Nvalue{Count: Num(2), Terms: []Term{x, y, c}},
		GlobalCardinality{Terms: []Term{x, y}, Cards: []Cardinality{{Value: 2, Count: Num(1)}, {Value: 3, Count: aux}}},
		GlobalCardinalityWithCost{
			Terms: []Term{x, y},
			Cards: []Cardinality{{Value: 2, Count: Num(1)}, {Value: 3, Count: Num(1)}},
			Table: []CostEntry{
				{Position: 1, Rank: 1, Cost: 4},
				{Position: 1, Rank: 2, Cost: 5},
				{Position: 2, Rank: 1, Cost: 6},
				{Position: 2, Rank: 2, Cost: 7},
			},
			Cost: Num(10),
		},
		cnt,
	))
	s.Commit()

	z, err := s.IntRange("z", -5, 5)
	assert.NoError(err)
	assert.NoError(s.Add(Eq(z, Num(0))))
	assert.NoError(s.Minimize(x))
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	assert := require.New(t)
	s := richStore(t)

	var buf bytes.Buffer
	written, err := s.WriteTo(&buf)
	assert.NoError(err)
	assert.Equal(int64(buf.Len()), written)

	restored := NewStore()
	read, err := restored.ReadFrom(bytes.NewReader(buf.Bytes()))
	assert.NoError(err)
	assert.Equal(written, read)

	assert.Equal(s.Variables(), restored.Variables())
	assert.Equal(s.Bools(), restored.Bools())
	assert.Equal(s.Constraints(), restored.Constraints())
	assert.Equal(s.VariablesDelta(), restored.VariablesDelta())
	assert.Equal(s.BoolsDelta(), restored.BoolsDelta())
	assert.Equal(s.ConstraintsDelta(), restored.ConstraintsDelta())

	for _, v := range s.Variables() {
		want, ok := s.DomainOf(v)
		assert.True(ok)
		got, ok := restored.DomainOf(v)
		assert.True(ok)
		assert.Equal(want, got)
	}

	obj, dir, ok := restored.Objective()
	assert.True(ok)
	assert.Equal(NewVar("x"), obj)
	assert.Equal(Minimize, dir)

	// anonymous-name counters travel with the store
	v, err := restored.AuxInt(Interval{Lo: 0, Hi: 1})
	assert.NoError(err)
	assert.Equal("_I2", v.Name)

	// the restored checkpoint still rolls back to the same place
	restored.Cancel()
	assert.Equal(s.GetNbVariables()-1, restored.GetNbVariables())
	assert.Equal(s.GetNbConstraints()-1, restored.GetNbConstraints())
}

func TestRoundTripEmptyStore(t *testing.T) {
	assert := require.New(t)
	var buf bytes.Buffer
	_, err := NewStore().WriteTo(&buf)
	assert.NoError(err)

	restored := NewStore()
	_, err = restored.ReadFrom(&buf)
	assert.NoError(err)
	assert.Equal(0, restored.GetNbVariables())
	assert.Equal(0, restored.GetNbBools())
	assert.Equal(0, restored.GetNbConstraints())
	_, _, ok := restored.Objective()
	assert.False(ok)
}

func TestReadFromRejectsGarbage(t *testing.T) {
	assert := require.New(t)
	_, err := NewStore().ReadFrom(bytes.NewReader([]byte{0xff, 0x00, 0x13, 0x37}))
	assert.Error(err)
}

func encodeSnapshot(t *testing.T, snap storeSnapshot) []byte {
	t.Helper()
	enc, err := cbor.CoreDetEncOptions().EncModeWithTags(tagSet())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, enc.NewEncoder(&buf).Encode(snap))
	return buf.Bytes()
}

func TestReadFromRejectsCorruptSnapshots(t *testing.T) {
	assert := require.New(t)

	// domains not parallel to variables
	data := encodeSnapshot(t, storeSnapshot{
		Version:   copris.Version.String(),
		Variables: []Var{{Name: "x"}},
	})
	_, err := NewStore().ReadFrom(bytes.NewReader(data))
	assert.ErrorContains(err, "corrupt store")

	// checkpoint beyond the collections
	data = encodeSnapshot(t, storeSnapshot{
		Version:         copris.Version.String(),
		Variables:       []Var{{Name: "x"}},
		Domains:         []Domain{Interval{Lo: 0, Hi: 1}},
		MarkConstraints: 3,
	})
	_, err = NewStore().ReadFrom(bytes.NewReader(data))
	assert.ErrorContains(err, "corrupt store")

	// unparsable version header
	data = encodeSnapshot(t, storeSnapshot{Version: "garbage"})
	_, err = NewStore().ReadFrom(bytes.NewReader(data))
	assert.ErrorContains(err, "when parsing store version header")
}

func TestCheckVersionHeader(t *testing.T) {
	assert := require.New(t)
	assert.NoError(checkVersionHeader(copris.Version.String()))
	// a parseable mismatch only warns
	assert.NoError(checkVersionHeader("99.99.99"))
	assert.Error(checkVersionHeader("not-semver"))
}
