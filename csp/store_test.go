package csp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func mustInterval(t *testing.T, lo, hi int64) Interval {
	t.Helper()
	d, err := NewInterval(lo, hi)
	require.NoError(t, err)
	return d
}

func TestDeclareInt(t *testing.T) {
	assert := require.New(t)
	s := NewStore()
	d := mustInterval(t, 0, 7)

	x := NewVar("x")
	assert.NoError(s.DeclareInt(x, d))
	assert.ErrorIs(s.DeclareInt(x, d), ErrDuplicateDeclaration)

	// same name, different index sequence: a distinct variable
	xi := NewVar("x", "1")
	assert.NoError(s.DeclareInt(xi, d))
	assert.ErrorIs(s.DeclareInt(NewVar("x", "1"), d), ErrDuplicateDeclaration)

	assert.ErrorIs(s.DeclareInt(NewVar("y"), Interval{Lo: 5, Hi: 2}), ErrInvalidDomain)
	assert.ErrorIs(s.DeclareInt(NewVar("y"), nil), ErrInvalidDomain)

	got, ok := s.DomainOf(x)
	assert.True(ok)
	assert.Equal(Domain(d), got)
	_, ok = s.DomainOf(NewVar("y"))
	assert.False(ok)

	assert.Equal(2, s.GetNbVariables())
	assert.Equal([]Var{x, xi}, s.Variables())
}

func TestDeclareBool(t *testing.T) {
	assert := require.New(t)
	s := NewStore()

	p := NewBool("p")
	assert.NoError(s.DeclareBool(p))
	assert.ErrorIs(s.DeclareBool(p), ErrDuplicateDeclaration)
	assert.NoError(s.DeclareBool(NewBool("p", "2")))
	assert.Equal(2, s.GetNbBools())
}

func TestAddChecksDeclarations(t *testing.T) {
	assert := require.New(t)
	s := NewStore()
	d := mustInterval(t, 0, 7)

	x := NewVar("x")
	assert.NoError(s.DeclareInt(x, d))

	y, z := NewVar("y"), NewVar("z")
	p, q := NewBool("p"), NewBool("q")
	err := s.Add(
		Eq(Add(x, y), z),
		Iff(q, And(p, q)),
		Lt(y, Num(3)),
	)
	assert.ErrorIs(err, ErrUndeclaredVariable)
	var uerr *UndeclaredVariableError
	assert.ErrorAs(err, &uerr)
	// integers first, then booleans, each in first-appearance order,
	// without repeats
	assert.Equal([]string{"y", "z", "q", "p"}, uerr.Names)
	assert.Equal(0, s.GetNbConstraints())

	assert.Error(s.Add(nil))

	assert.NoError(s.DeclareInt(y, d))
	assert.NoError(s.DeclareInt(z, d))
	assert.NoError(s.DeclareBool(p))
	assert.NoError(s.DeclareBool(q))
	assert.NoError(s.Add(Eq(Add(x, y), z), Lt(y, Num(3))))
	assert.Equal(2, s.GetNbConstraints())
}

func TestCommitCancel(t *testing.T) {
	assert := require.New(t)
	s := NewStore()
	d := mustInterval(t, 0, 7)

	x, err := s.Int("x", d)
	assert.NoError(err)
	p, err := s.BoolVar("p")
	assert.NoError(err)
	assert.NoError(s.Add(Ge(x, Num(1))))
	s.Commit()

	y, err := s.Int("y", d)
	assert.NoError(err)
	assert.NoError(s.Add(Lt(y, x), Not(p)))
	assert.Equal(2, s.GetNbVariables())
	assert.Equal(3, s.GetNbConstraints())

	s.Cancel()
	assert.Equal([]Var{x}, s.Variables())
	assert.Equal([]Bool{p}, s.Bools())
	assert.Equal(1, s.GetNbConstraints())

	// the rollback must unwind the declaration set too
	_, ok := s.DomainOf(y)
	assert.False(ok)
	_, err = s.Int("y", d)
	assert.NoError(err)

	// cancelling with nothing pending is a no-op
	s.Cancel()
	s.Cancel()
	assert.Equal(1, s.GetNbVariables())
}

func TestCancelBeforeCommit(t *testing.T) {
	assert := require.New(t)
	s := NewStore()
	d := mustInterval(t, 0, 7)

	x, err := s.Int("x", d)
	assert.NoError(err)
	_, err = s.BoolVar("p")
	assert.NoError(err)
	assert.NoError(s.Add(Ge(x, Num(1))))

	// without a commit the checkpoint is still at the initial empty state
	s.Cancel()
	assert.Equal(0, s.GetNbVariables())
	assert.Equal(0, s.GetNbBools())
	assert.Equal(0, s.GetNbConstraints())
	_, ok := s.DomainOf(x)
	assert.False(ok)
}

func TestCancelKeepsObjective(t *testing.T) {
	assert := require.New(t)
	s := NewStore()
	d := mustInterval(t, 0, 7)

	_, err := s.Int("x", d)
	assert.NoError(err)
	s.Commit()

	y, err := s.Int("y", d)
	assert.NoError(err)
	assert.NoError(s.Maximize(y))
	s.Cancel()

	// the objective is not transactional
	obj, dir, ok := s.Objective()
	assert.True(ok)
	assert.Equal(y, obj)
	assert.Equal(Maximize, dir)
}

func TestDeltas(t *testing.T) {
	assert := require.New(t)
	s := NewStore()
	d := mustInterval(t, 0, 7)

	x, err := s.Int("x", d)
	assert.NoError(err)
	assert.NoError(s.Add(Ge(x, Num(1))))

	// before any commit, everything is delta
	assert.Equal([]Var{x}, s.VariablesDelta())
	s.Commit()
	assert.Empty(s.VariablesDelta())
	assert.Empty(s.BoolsDelta())
	assert.Empty(s.ConstraintsDelta())

	y, err := s.Int("y", d)
	assert.NoError(err)
	p, err := s.BoolVar("p")
	assert.NoError(err)
	c := Constraint(Ne(y, Num(0)))
	assert.NoError(s.Add(c))

	assert.Equal([]Var{y}, s.VariablesDelta())
	assert.Equal([]Bool{p}, s.BoolsDelta())
	assert.Equal([]Constraint{c}, s.ConstraintsDelta())

	s.Commit()
	assert.Empty(s.ConstraintsDelta())
}

func TestReset(t *testing.T) {
	assert := require.New(t)
	s := NewStore()
	d := mustInterval(t, 0, 7)

	x, err := s.Int("x", d)
	assert.NoError(err)
	_, err = s.AuxInt(d)
	assert.NoError(err)
	assert.NoError(s.Add(Ge(x, Num(1))))
	assert.NoError(s.Minimize(x))
	s.Commit()

	s.Reset()
	assert.Equal(0, s.GetNbVariables())
	assert.Equal(0, s.GetNbBools())
	assert.Equal(0, s.GetNbConstraints())
	_, _, ok := s.Objective()
	assert.False(ok)
	assert.Empty(s.VariablesDelta())

	// names stay fresh across Reset
	v, err := s.AuxInt(d)
	assert.NoError(err)
	assert.Equal("_I2", v.Name)
}

func TestSetObjective(t *testing.T) {
	assert := require.New(t)
	s := NewStore()
	d := mustInterval(t, 0, 7)

	x, err := s.Int("x", d)
	assert.NoError(err)

	assert.ErrorIs(s.Minimize(NewVar("nope")), ErrUndeclaredVariable)
	assert.Error(s.SetObjective(x, Direction(9)))
	_, _, ok := s.Objective()
	assert.False(ok)

	assert.NoError(s.Minimize(x))
	obj, dir, ok := s.Objective()
	assert.True(ok)
	assert.Equal(x, obj)
	assert.Equal(Minimize, dir)
	assert.Equal("minimize", dir.String())

	// replacing is allowed
	y, err := s.Int("y", d)
	assert.NoError(err)
	assert.NoError(s.Maximize(y))
	obj, dir, _ = s.Objective()
	assert.Equal(y, obj)
	assert.Equal("maximize", dir.String())
}

func TestIsSatisfiedBy(t *testing.T) {
	assert := require.New(t)
	s := NewStore()

	x, err := s.IntRange("x", 0, 7)
	assert.NoError(err)
	y, err := s.IntRange("y", 0, 7)
	assert.NoError(err)
	assert.NoError(s.Add(Eq(Add(x, y), Num(7))))

	sol := NewAssignment().SetInt(x, 3).SetInt(y, 4)
	ok, err := s.IsSatisfiedBy(sol)
	assert.NoError(err)
	assert.True(ok)

	ok, err = s.IsSatisfiedBy(NewAssignment().SetInt(x, 3).SetInt(y, 5))
	assert.NoError(err)
	assert.False(ok)

	// out of domain fails even though the constraint holds
	ok, err = s.IsSatisfiedBy(NewAssignment().SetInt(x, -1).SetInt(y, 8))
	assert.NoError(err)
	assert.False(ok)

	// unassigned variable is an error, not a refusal
	_, err = s.IsSatisfiedBy(NewAssignment().SetInt(x, 3))
	assert.ErrorIs(err, ErrUnknownVariable)

	// evaluation errors surface with the constraint position
	assert.NoError(s.Add(Eq(Div(x, Num(0)), Num(1))))
	_, err = s.IsSatisfiedBy(sol)
	assert.ErrorIs(err, ErrDivisionByZero)
	assert.Contains(err.Error(), "constraint 1")
}

func TestAuxNames(t *testing.T) {
	assert := require.New(t)
	s := NewStore()
	d := mustInterval(t, 0, 1)

	v1, err := s.AuxInt(d)
	assert.NoError(err)
	v2, err := s.AuxInt(d)
	assert.NoError(err)
	assert.Equal("_I1", v1.Name)
	assert.Equal("_I2", v2.Name)
	assert.True(v1.Aux)

	b1, err := s.AuxBool()
	assert.NoError(err)
	assert.Equal("_B1", b1.Name)
	assert.True(b1.Aux)

	// counters do not rewind with the transaction
	s.Commit()
	_, err = s.AuxInt(d)
	assert.NoError(err)
	s.Cancel()
	v4, err := s.AuxInt(d)
	assert.NoError(err)
	assert.Equal("_I4", v4.Name)
}

func TestDeclarationHelpers(t *testing.T) {
	assert := require.New(t)
	s := NewStore(WithCapacity(16))

	x, err := s.IntRange("x", -2, 2)
	assert.NoError(err)
	assert.Equal("x", x.Name)
	got, ok := s.DomainOf(x)
	assert.True(ok)
	assert.Equal(Domain(Interval{Lo: -2, Hi: 2}), got)

	_, err = s.IntRange("bad", 3, 1)
	assert.ErrorIs(err, ErrInvalidDomain)

	m, err := s.Int("m", Set{Values: []int64{1, 3, 5}}, "2", "4")
	assert.NoError(err)
	assert.Equal([]string{"2", "4"}, m.Index)
	assert.Equal("m(2,4)", m.String())

	b, err := s.BoolVar("p", "0")
	assert.NoError(err)
	assert.Equal("p(0)", b.String())
	_, err = s.BoolVar("p", "0")
	assert.ErrorIs(err, ErrDuplicateDeclaration)
}

func TestStoresAreIndependent(t *testing.T) {
	assert := require.New(t)

	stores := make([]*Store, 8)
	var g errgroup.Group
	for i := range stores {
		s := NewStore(WithCapacity(64))
		stores[i] = s
		g.Go(func() error {
			d, err := NewInterval(0, 9)
			if err != nil {
				return err
			}
			for range 32 {
				v, err := s.AuxInt(d)
				if err != nil {
					return err
				}
				if err := s.Add(Le(v, Num(9))); err != nil {
					return err
				}
				if _, err := s.AuxBool(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	assert.NoError(g.Wait())

	for _, s := range stores {
		assert.Equal(32, s.GetNbVariables())
		assert.Equal(32, s.GetNbBools())
		assert.Equal(32, s.GetNbConstraints())
		assert.Equal("_I1", s.Variables()[0].Name)
		assert.Equal("_I32", s.Variables()[31].Name)
	}
}
