package regiontree

import (
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/commands"
	"github.com/leanovate/gopter/gen"
	"github.com/stretchr/testify/assert"
)

const exerciserSize = 16

// expected is the model: the regions the tree should hold, in absolute
// coordinates.
type expected struct {
	regions []Region[int]
}

func (e *expected) with(f func([]Region[int]) []Region[int]) *expected {
	return &expected{regions: f(append([]Region[int](nil), e.regions...))}
}

func (e *expected) at(p Point) (Region[int], bool) {
	for _, r := range e.regions {
		if r.Contains(p) {
			return r, true
		}
	}
	return Region[int]{}, false
}

type system struct {
	tree     *Node[int]
	snapshot *Node[int]
	store    *Store[int]
	cmdCount int
}

var cmdCount = 0

func sortRegions(rs []Region[int]) []Region[int] {
	out := append([]Region[int](nil), rs...)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Top != b.Top {
			return a.Top < b.Top
		}
		return a.Left < b.Left
	})
	return out
}

func propResult(ok bool, format string, args ...interface{}) *gopter.PropResult {
	if !ok {
		fmt.Printf(format+"\n", args...)
		return &gopter.PropResult{Status: gopter.PropFalse}
	}
	return &gopter.PropResult{Status: gopter.PropTrue}
}

type insertCommand Region[int]

func (c insertCommand) Run(s commands.SystemUnderTest) commands.Result {
	sys := s.(*system)
	next, err := Insert(sys.tree, Region[int](c))
	if err != nil {
		return err
	}
	sys.tree = next
	sys.cmdCount++
	return nil
}

func (c insertCommand) NextState(state commands.State) commands.State {
	return state.(*expected).with(func(rs []Region[int]) []Region[int] {
		return append(rs, Region[int](c))
	})
}

func (c insertCommand) PreCondition(state commands.State) bool {
	for _, r := range state.(*expected).regions {
		if Overlaps(&r.Rect, c.Rect) {
			return false
		}
	}
	return true
}

func (c insertCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return propResult(result == nil, "insert PostCondition: %v", result)
}

func (c insertCommand) String() string {
	return fmt.Sprintf("Insert(%v,%d)", c.Rect, c.Payload)
}

type updateResult struct {
	same bool
	err  error
}

type updateCommand struct {
	pos   Point
	delta int
}

func (c updateCommand) Run(s commands.SystemUnderTest) commands.Result {
	sys := s.(*system)
	u := Update(sys.tree, func(old int, delta int, _ Point) int { return old + delta }, nil)
	if err := u.Update(c.pos, c.delta); err != nil {
		return updateResult{err: err}
	}
	next, err := u.Result()
	if err != nil {
		return updateResult{err: err}
	}
	res := updateResult{same: next == sys.tree}
	sys.tree = next
	sys.cmdCount++
	return res
}

func (c updateCommand) NextState(state commands.State) commands.State {
	return state.(*expected).with(func(rs []Region[int]) []Region[int] {
		for i := range rs {
			if rs[i].Contains(c.pos) {
				rs[i].Payload += c.delta
			}
		}
		return rs
	})
}

func (c updateCommand) PreCondition(state commands.State) bool {
	_, ok := state.(*expected).at(c.pos)
	return ok
}

func (c updateCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	res := result.(updateResult)
	if res.err != nil {
		return propResult(false, "update PostCondition: %v", res.err)
	}
	return propResult(res.same == (c.delta == 0), "update PostCondition: delta %d, same tree %v", c.delta, res.same)
}

func (c updateCommand) String() string {
	return fmt.Sprintf("Update(%v,%+d)", c.pos, c.delta)
}

type clearResult struct {
	same          bool
	before, after int
}

type clearCommand Rect

func (c clearCommand) Run(s commands.SystemUnderTest) commands.Result {
	sys := s.(*system)
	area := Rect(c)
	next := Clear(sys.tree, &area)
	res := clearResult{same: next == sys.tree, before: Len(sys.tree), after: Len(next)}
	sys.tree = next
	sys.cmdCount++
	return res
}

func (c clearCommand) NextState(state commands.State) commands.State {
	area := Rect(c)
	return state.(*expected).with(func(rs []Region[int]) []Region[int] {
		kept := rs[:0]
		for _, r := range rs {
			if !Overlaps(&area, r.Rect) {
				kept = append(kept, r)
			}
		}
		return kept
	})
}

func (c clearCommand) PreCondition(state commands.State) bool {
	return true
}

func (c clearCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	res := result.(clearResult)
	return propResult(
		res.after == len(state.(*expected).regions) && res.same == (res.before == res.after),
		"clear PostCondition: %+v, expected %d regions", res, len(state.(*expected).regions))
}

func (c clearCommand) String() string {
	return fmt.Sprintf("Clear(%v)", Rect(c))
}

type lookupResult struct {
	region Region[int]
	ok     bool
}

type lookupCommand Point

func (c lookupCommand) Run(s commands.SystemUnderTest) commands.Result {
	s.(*system).cmdCount++
	r, ok := Lookup(s.(*system).tree, Point(c))
	return lookupResult{r, ok}
}

func (c lookupCommand) NextState(state commands.State) commands.State { return state }

func (c lookupCommand) PreCondition(state commands.State) bool { return true }

func (c lookupCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	want, ok := state.(*expected).at(Point(c))
	got := result.(lookupResult)
	return propResult(got.ok == ok && got.region == want,
		"lookup PostCondition: got %+v, expected %+v", got, want)
}

func (c lookupCommand) String() string {
	return fmt.Sprintf("Lookup(%v)", Point(c))
}

var IterCommand = &commands.ProtoCommand{
	Name: "Iter",
	RunFunc: func(s commands.SystemUnderTest) commands.Result {
		var got []Region[int]
		err := Iter(s.(*system).tree, func(r Region[int]) error {
			got = append(got, r)
			return nil
		})
		if err != nil {
			return err
		}
		s.(*system).cmdCount++
		return got
	},
	NextStateFunc:    func(state commands.State) commands.State { return state },
	PreConditionFunc: func(state commands.State) bool { return true },
	PostConditionFunc: func(state commands.State, result commands.Result) *gopter.PropResult {
		got, ok := result.([]Region[int])
		if !ok {
			return propResult(false, "iter PostCondition: %v", result)
		}
		want := sortRegions(state.(*expected).regions)
		return propResult(reflect.DeepEqual(sortRegions(got), want) || len(got)+len(want) == 0,
			"iter PostCondition: got %v, expected %v", got, want)
	},
}

var SnapshotCommand = &commands.ProtoCommand{
	Name: "Snapshot",
	RunFunc: func(s commands.SystemUnderTest) commands.Result {
		s.(*system).snapshot = s.(*system).tree
		return nil
	},
	NextStateFunc:     func(state commands.State) commands.State { return state },
	PreConditionFunc:  func(state commands.State) bool { return true },
	PostConditionFunc: func(commands.State, commands.Result) *gopter.PropResult { return &gopter.PropResult{Status: gopter.PropTrue} },
}

// DiffCommand checks that applying the diff from the snapshot to the
// current tree onto the snapshot's regions gives the current regions.
var DiffCommand = &commands.ProtoCommand{
	Name: "Diff",
	RunFunc: func(s commands.SystemUnderTest) commands.Result {
		sys := s.(*system)
		regions := map[Rect]int{}
		_ = Iter(sys.snapshot, func(r Region[int]) error {
			regions[r.Rect] = r.Payload
			return nil
		})
		err := Diff(sys.snapshot, sys.tree, func(added, removed bool, a, r Region[int]) (bool, error) {
			if removed {
				if regions[r.Rect] != r.Payload {
					return false, fmt.Errorf("removed %v was not in the snapshot", r)
				}
				delete(regions, r.Rect)
			}
			if added {
				regions[a.Rect] = a.Payload
			}
			return true, nil
		})
		if err != nil {
			return err
		}
		sys.cmdCount++
		return regions
	},
	NextStateFunc:    func(state commands.State) commands.State { return state },
	PreConditionFunc: func(state commands.State) bool { return true },
	PostConditionFunc: func(state commands.State, result commands.Result) *gopter.PropResult {
		got, ok := result.(map[Rect]int)
		if !ok {
			return propResult(false, "diff PostCondition: %v", result)
		}
		want := map[Rect]int{}
		for _, r := range state.(*expected).regions {
			want[r.Rect] = r.Payload
		}
		return propResult(reflect.DeepEqual(got, want), "diff PostCondition: got %v, expected %v", got, want)
	},
}

var SaveCommand = &commands.ProtoCommand{
	Name: "Save",
	RunFunc: func(s commands.SystemUnderTest) commands.Result {
		sys := s.(*system)
		root, err := sys.store.Save(ctx, sys.tree)
		if err != nil {
			return err
		}
		loaded, err := sys.store.Load(ctx, root)
		if err != nil {
			return err
		}
		if !reflect.DeepEqual(loaded, sys.tree) {
			return fmt.Errorf("loaded tree differs from saved tree")
		}
		sys.tree = loaded
		sys.cmdCount++
		return nil
	},
	NextStateFunc:    func(state commands.State) commands.State { return state },
	PreConditionFunc: func(state commands.State) bool { return true },
	PostConditionFunc: func(state commands.State, result commands.Result) *gopter.PropResult {
		return propResult(result == nil, "save PostCondition: %v", result)
	},
}

var genPoint = gopter.CombineGens(
	gen.IntRange(0, exerciserSize-1),
	gen.IntRange(0, exerciserSize-1),
).Map(func(v []interface{}) Point {
	return Point{Top: v[0].(int), Left: v[1].(int)}
})

var genInsert = gopter.CombineGens(genRect(exerciserSize), gen.IntRange(0, 1000)).
	Map(func(v []interface{}) commands.Command {
		return insertCommand{Rect: v[0].(Rect), Payload: v[1].(int)}
	})

var genClear = genRect(exerciserSize).Map(func(r Rect) commands.Command {
	return clearCommand(r)
})

var genLookup = genPoint.Map(func(p Point) commands.Command {
	return lookupCommand(p)
})

// genUpdate aims at cells of stored regions, since updates elsewhere are
// not modelled.
func genUpdate(state commands.State) gopter.Gen {
	regions := state.(*expected).regions
	if len(regions) == 0 {
		return gen.Const(lookupCommand(Point{}))
	}
	return gopter.CombineGens(
		gen.IntRange(0, len(regions)-1),
		gen.IntRange(0, exerciserSize-1),
		gen.IntRange(0, exerciserSize-1),
		gen.IntRange(-1, 3),
	).Map(func(v []interface{}) commands.Command {
		r := regions[v[0].(int)]
		return updateCommand{
			pos: Point{
				Top:  r.Top + v[1].(int)%(r.Bottom-r.Top),
				Left: r.Left + v[2].(int)%(r.Right-r.Left),
			},
			delta: v[3].(int),
		}
	})
}

var regionCommands = &commands.ProtoCommands{
	NewSystemUnderTestFunc: func(initialState commands.State) commands.SystemUnderTest {
		store, err := NewStore[int](RemoteConfig{
			StoreImmutablePartsWith: NewInMemoryStore(),
			NodeCache:               NewNodeCache(500),
		})
		if err != nil {
			panic(err)
		}
		tree := NewNode[int](exerciserSize)
		return &system{tree: tree, snapshot: tree, store: store}
	},
	DestroySystemUnderTestFunc: func(s commands.SystemUnderTest) {
		cmdCount += s.(*system).cmdCount
	},
	InitialStateGen: gen.Const(&expected{}),
	InitialPreConditionFunc: func(state commands.State) bool {
		return len(state.(*expected).regions) == 0
	},
	GenCommandFunc: func(state commands.State) gopter.Gen {
		return gen.Weighted(
			[]gen.WeightedGen{
				{Weight: 100, Gen: genInsert},
				{Weight: 100, Gen: genUpdate(state)},
				{Weight: 20, Gen: genClear},
				{Weight: 100, Gen: genLookup},
				{Weight: 10, Gen: gen.Const(IterCommand)},
				{Weight: 5, Gen: gen.Const(SnapshotCommand)},
				{Weight: 5, Gen: gen.Const(DiffCommand)},
				{Weight: 2, Gen: gen.Const(SaveCommand)},
			},
		)
	},
}

func TestExerciser(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	if !testing.Short() {
		parameters.MaxSize = 256
	}
	properties := gopter.NewProperties(parameters)
	properties.Property("region tree exerciser", commands.Prop(regionCommands))
	properties.TestingRun(t)
	if !t.Failed() {
		assert.Greater(t, cmdCount, 0)
		fmt.Printf("successful commands: %d\n", cmdCount)
	}
}
