package synth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagegen/internal/model"
)

func member(name, typ string, markers ...model.Marker) model.Member {
	return model.Member{Names: []string{name}, Type: typ, Markers: markers}
}

func withDefault(m model.Member, expr string) model.Member {
	m.Initializer = &expr
	return m
}

func required() model.Marker {
	return model.Marker{Name: model.MarkerRequired}
}

func accumulating(adder string) model.Marker {
	mk := model.Marker{Name: model.MarkerAccumulating}
	if adder != "" {
		mk.Args = map[string]string{AdderArg: adder}
	}
	return mk
}

func personRecord() model.Record {
	return model.Record{
		Name:       "Person",
		IsExported: true,
		Members: []model.Member{
			member("Name", "string", required()),
			member("Tags", "[]string", accumulating("AddTag")),
			withDefault(member("Age", "int"), "0"),
		},
	}
}

func TestSynthesize_PersonExample(t *testing.T) {
	plan, err := Synthesize(personRecord(), Options{})
	require.NoError(t, err)

	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "Name", plan.Steps[0].Name)
	assert.Equal(t, "Tags", plan.Steps[1].Name)

	// Terminal first, then the stages in descending order.
	require.Len(t, plan.Stages, 2)
	assert.True(t, plan.Stages[0].Terminal)
	assert.Equal(t, "PersonFinal", plan.Stages[0].Name)
	assert.Equal(t, "PersonStage0", plan.Stages[1].Name)

	assert.Equal(t, Entry{Name: "NewPersonBuilder", Result: "PersonStage0", Carry: []Assign{}}, plan.Entry)

	stage0, ok := plan.Stage(0)
	require.True(t, ok)
	assert.Empty(t, stage0.Carried)
	require.Len(t, stage0.Ops, 1)
	assert.Equal(t, Operation{
		Kind:   OpAdvance,
		Name:   "SetName",
		Field:  "Name",
		Type:   "string",
		Params: []Param{{Name: "value", Type: "string"}},
		Result: "PersonFinal",
		Carry: []Assign{
			{Key: "name", Expr: "value"},
			{Key: "tags", Expr: "[]string{}"},
		},
	}, stage0.Ops[0])

	final := plan.Terminal()
	assert.Equal(t, 1, final.Index)
	assert.Equal(t, []Carried{
		{Storage: "name", Field: "Name", Type: "string"},
		{Storage: "tags", Field: "Tags", Type: "[]string"},
	}, final.Carried)
	require.Len(t, final.Ops, 2)
	assert.Equal(t, Operation{
		Kind:   OpAppend,
		Name:   "AddTag",
		Field:  "Tags",
		Type:   "[]string",
		Params: []Param{{Name: "value", Type: "string"}},
		Self:   true,
		Base:   "s.tags",
		Result: "PersonFinal",
		Carry: []Assign{
			{Key: "name", Expr: "s.name"},
			{Key: "tags", Expr: "next"},
		},
	}, final.Ops[0])
	assert.Equal(t, Operation{
		Kind:   OpBuild,
		Name:   "Build",
		Result: "Person",
		Carry: []Assign{
			{Key: "Name", Expr: "s.name"},
			{Key: "Tags", Expr: "slices.Clone(s.tags)"},
			{Key: "Age", Expr: "0"},
		},
	}, final.Ops[1])
	assert.Equal(t, []string{"slices"}, plan.Imports)
	assert.Empty(t, plan.Warnings)
}

func TestSynthesize_OrderingEnforcement(t *testing.T) {
	rec := model.Record{
		Name: "Triple",
		Members: []model.Member{
			member("A", "int", required()),
			member("B", "string", required()),
			member("C", "bool", required()),
		},
	}
	plan, err := Synthesize(rec, Options{})
	require.NoError(t, err)

	names := []string{"A", "B", "C"}
	require.Len(t, plan.Stages, len(names)+1)
	for i, name := range names {
		stage, ok := plan.Stage(i)
		require.True(t, ok, "stage %d", i)
		assert.False(t, stage.Terminal)
		require.Len(t, stage.Ops, 1, "stage %d exposes a single operation", i)
		assert.Equal(t, name, stage.Ops[0].Field)
		assert.Equal(t, "Set"+name, stage.Ops[0].Name)
		assert.Len(t, stage.Carried, i)
	}
	final := plan.Terminal()
	assert.Equal(t, len(names), final.Index)
	require.Len(t, final.Ops, 1)
	assert.Equal(t, OpBuild, final.Ops[0].Kind)
	assert.Equal(t, "newTripleBuilder", plan.Entry.Name)
	assert.Equal(t, "TripleStage0", plan.Entry.Result)
}

func TestSynthesize_StagesOnlyReferenceEarlierDeclarations(t *testing.T) {
	plan, err := Synthesize(personRecord(), Options{Order: []string{"Tags", "Name"}})
	require.NoError(t, err)

	declared := map[string]bool{"Person": true}
	for _, stage := range plan.Stages {
		for _, op := range stage.Ops {
			if op.Result != stage.Name {
				assert.True(t, declared[op.Result], "%s.%s returns %s before it is declared", stage.Name, op.Name, op.Result)
			}
		}
		declared[stage.Name] = true
	}
	assert.True(t, declared[plan.Entry.Result])
}

func TestSynthesize_SoleMappingAccumulator(t *testing.T) {
	rec := model.Record{
		Name:       "Inventory",
		IsExported: true,
		Members: []model.Member{
			member("Counts", "map[string]int", accumulating("Count")),
		},
	}
	plan, err := Synthesize(rec, Options{})
	require.NoError(t, err)

	require.Len(t, plan.Stages, 1)
	assert.Equal(t, "InventoryFinal", plan.Entry.Result)
	assert.Equal(t, []Assign{{Key: "counts", Expr: "map[string]int{}"}}, plan.Entry.Carry)

	final := plan.Terminal()
	assert.Equal(t, 0, final.Index)
	require.Len(t, final.Ops, 2)
	op := final.Ops[0]
	assert.Equal(t, OpInsert, op.Kind)
	assert.Equal(t, "Count", op.Name)
	assert.Equal(t, []Param{{Name: "key", Type: "string"}, {Name: "value", Type: "int"}}, op.Params)
	assert.True(t, op.Self)
	assert.Equal(t, "s.counts", op.Base)
}

func TestSynthesize_SetAndOverwriteAccumulators(t *testing.T) {
	rec := model.Record{
		Name: "Labels",
		Members: []model.Member{
			member("Set", "map[string]struct{}", accumulating("")),
		},
	}
	plan, err := Synthesize(rec, Options{})
	require.NoError(t, err)
	op := plan.Terminal().Ops[0]
	assert.Equal(t, OpInclude, op.Kind)
	assert.Equal(t, "AddSet", op.Name)
	assert.Equal(t, "struct{}{}", op.Present)
	assert.Equal(t, []Param{{Name: "value", Type: "string"}}, op.Params)

	rec.Members = []model.Member{member("Owner", "string", accumulating("ChangeOwner"))}
	plan, err = Synthesize(rec, Options{})
	require.NoError(t, err)
	op = plan.Terminal().Ops[0]
	assert.Equal(t, OpReplace, op.Kind)
	assert.Equal(t, []Param{{Name: "value", Type: "string"}}, op.Params)
	assert.Equal(t, []Assign{{Key: "owner", Expr: "value"}}, op.Carry)
	assert.Empty(t, op.Base)
}

func TestSynthesize_DefaultInference(t *testing.T) {
	rec := model.Record{
		Name: "Defaults",
		Members: []model.Member{
			member("Items", "[]string"),
			member("Parent", "*Defaults"),
			withDefault(member("Labels", "map[string]string"), `map[string]string{"env": "dev"}`),
			member("Count", "int"),
		},
	}
	plan, err := Synthesize(rec, Options{})
	require.NoError(t, err)

	assert.Empty(t, plan.Steps)
	assert.Equal(t, []Assign{
		{Key: "Items", Expr: "[]string{}"},
		{Key: "Parent", Expr: "nil"},
		{Key: "Labels", Expr: `map[string]string{"env": "dev"}`},
		{Key: "Count", Expr: "0"},
	}, plan.Terminal().Ops[0].Carry)
}

func TestSynthesize_NoSteps(t *testing.T) {
	rec := model.Record{
		Name:       "Product",
		IsExported: true,
		Members: []model.Member{
			member("Name", "string"),
			member("InStock", "bool"),
		},
	}
	plan, err := Synthesize(rec, Options{})
	require.NoError(t, err)

	require.Len(t, plan.Stages, 1)
	final := plan.Terminal()
	assert.Equal(t, "ProductFinal", plan.Entry.Result)
	assert.Empty(t, plan.Entry.Carry)
	assert.Empty(t, final.Carried)
	require.Len(t, final.Ops, 1)
	assert.Equal(t, OpBuild, final.Ops[0].Kind)
}

func TestSynthesize_EmptyRecord(t *testing.T) {
	rec := model.Record{
		Name: "Empty",
		Members: []model.Member{
			{Names: []string{"A", "B"}, Type: "int"},
			{Names: []string{"_"}, Type: "int"},
		},
	}
	plan, err := Synthesize(rec, Options{})
	require.NoError(t, err)

	assert.Empty(t, plan.Fields)
	require.Len(t, plan.Stages, 1)
	assert.Empty(t, plan.Terminal().Ops[0].Carry)
	assert.Equal(t, "EmptyFinal", plan.Entry.Result)
}

func TestSynthesize_ExplicitOrderOverride(t *testing.T) {
	rec := model.Record{
		Name: "Abc",
		Members: []model.Member{
			member("a", "int", required()),
			member("b", "string"),
			member("c", "float64", required()),
		},
	}
	plan, err := Synthesize(rec, Options{Order: []string{"c", "a"}})
	require.NoError(t, err)

	require.Len(t, plan.Steps, 2)
	assert.Equal(t, "c", plan.Steps[0].Name)
	assert.Equal(t, "a", plan.Steps[1].Name)

	stage0, _ := plan.Stage(0)
	assert.Equal(t, "SetC", stage0.Ops[0].Name)
	stage1, _ := plan.Stage(1)
	assert.Equal(t, "SetA", stage1.Ops[0].Name)

	assert.Equal(t, []Assign{
		{Key: "a", Expr: "s.a"},
		{Key: "b", Expr: `""`},
		{Key: "c", Expr: "s.c"},
	}, plan.Terminal().Ops[0].Carry)
	assert.Empty(t, plan.Warnings)
}

func TestSynthesize_PermissiveOrderIsKeptVerbatim(t *testing.T) {
	rec := personRecord()
	plan, err := Synthesize(rec, Options{Order: []string{"Ghost", "Name", "Name", "Age"}})
	require.NoError(t, err)

	require.Len(t, plan.Steps, 4)
	assert.False(t, plan.Steps[0].Known)
	assert.Equal(t, "any", plan.Steps[0].Field.Type)
	assert.Equal(t, RolePlain, plan.Steps[3].Field.Role)

	// Duplicate steps get distinct storage; the last one feeds Build.
	final := plan.Terminal()
	assert.Equal(t, []string{"ghost", "name", "name2", "age"}, storages(final.Carried))
	assert.Contains(t, final.Ops[len(final.Ops)-1].Carry, Assign{Key: "Name", Expr: "s.name2"})
	// Tags was left out of the order and falls back to its default.
	assert.Contains(t, final.Ops[len(final.Ops)-1].Carry, Assign{Key: "Tags", Expr: "[]string{}"})

	assert.Len(t, plan.Warnings, 4)
}

func TestSynthesize_StrictRejectsIncoherentOrder(t *testing.T) {
	_, err := Synthesize(personRecord(), Options{
		Order:  []string{"Ghost", "Name", "Name", "Age"},
		Strict: true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStep))
	assert.True(t, errors.Is(err, ErrDuplicateStep))
	assert.True(t, errors.Is(err, ErrPlainStep))
	assert.True(t, errors.Is(err, ErrMissingStep))
	assert.Contains(t, err.Error(), "record Person")

	_, err = Synthesize(personRecord(), Options{Order: []string{"Name", "Tags"}, Strict: true})
	assert.NoError(t, err)
}

func TestSynthesize_BothMarkersAccumulate(t *testing.T) {
	rec := model.Record{
		Name:    "Both",
		Members: []model.Member{member("Items", "[]int", required(), accumulating(""))},
	}
	plan, err := Synthesize(rec, Options{})
	require.NoError(t, err)
	require.Len(t, plan.Fields, 1)
	assert.Equal(t, RoleAccumulating, plan.Fields[0].Role)
	assert.Equal(t, "AddItems", plan.Fields[0].Adder)
}

func TestSynthesize_NonTerminalAccumulatorAdvances(t *testing.T) {
	plan, err := Synthesize(personRecord(), Options{Order: []string{"Tags", "Name"}})
	require.NoError(t, err)

	stage0, ok := plan.Stage(0)
	require.True(t, ok)
	require.Len(t, stage0.Ops, 1)
	assert.Equal(t, Operation{
		Kind:   OpAdvance,
		Name:   "AddTag",
		Field:  "Tags",
		Type:   "[]string",
		Params: []Param{{Name: "value", Type: "[]string"}},
		Result: "PersonStage1",
		Carry:  []Assign{{Key: "tags", Expr: "slices.Clone(value)"}},
	}, stage0.Ops[0], "the whole value is supplied once")

	stage1, _ := plan.Stage(1)
	require.Len(t, stage1.Ops, 1, "without loop accumulators the tags can only be supplied once")
	assert.Equal(t, "SetName", stage1.Ops[0].Name)
}

func TestSynthesize_CollectionsAreCopied(t *testing.T) {
	rec := model.Record{
		Name: "Catalog",
		Members: []model.Member{
			member("Owners", "[]string", required()),
			member("Prices", "map[string]float64", required()),
			member("Seen", "map[int]struct{}", accumulating("See")),
			member("Parent", "*Catalog", required()),
		},
	}
	plan, err := Synthesize(rec, Options{})
	require.NoError(t, err)

	stage0, _ := plan.Stage(0)
	assert.Equal(t, []Assign{{Key: "owners", Expr: "slices.Clone(value)"}}, stage0.Ops[0].Carry)
	stage1, _ := plan.Stage(1)
	assert.Equal(t, Assign{Key: "prices", Expr: "maps.Clone(value)"}, stage1.Ops[0].Carry[1])

	build := plan.Terminal().Ops[len(plan.Terminal().Ops)-1]
	assert.Equal(t, []Assign{
		{Key: "Owners", Expr: "slices.Clone(s.owners)"},
		{Key: "Prices", Expr: "maps.Clone(s.prices)"},
		{Key: "Seen", Expr: "maps.Clone(s.seen)"},
		{Key: "Parent", Expr: "s.parent"},
	}, build.Carry)
	assert.Equal(t, []string{"maps", "slices"}, plan.Imports)
}

func TestSynthesize_ScalarStepsNeedNoImports(t *testing.T) {
	rec := model.Record{
		Name:    "Point",
		Members: []model.Member{member("X", "int", required())},
	}
	plan, err := Synthesize(rec, Options{})
	require.NoError(t, err)
	assert.Empty(t, plan.Imports)
}

func TestSynthesize_LoopAccumulators(t *testing.T) {
	plan, err := Synthesize(personRecord(), Options{
		Order:            []string{"Tags", "Name"},
		LoopAccumulators: true,
	})
	require.NoError(t, err)

	stage1, _ := plan.Stage(1)
	require.Len(t, stage1.Ops, 2)
	assert.Equal(t, "SetName", stage1.Ops[0].Name)
	loop := stage1.Ops[1]
	assert.Equal(t, "AddTag", loop.Name)
	assert.True(t, loop.Self)
	assert.Equal(t, "PersonStage1", loop.Result)
	assert.Equal(t, "s.tags", loop.Base)
	assert.Equal(t, []Assign{{Key: "tags", Expr: "next"}}, loop.Carry)
}

func TestSynthesize_GenericRecord(t *testing.T) {
	rec := model.Record{
		Name:       "Pair",
		IsExported: true,
		TypeParams: []model.TypeParam{{Name: "K", Constraint: "comparable"}, {Name: "V"}},
		Members: []model.Member{
			member("Key", "K", required()),
			member("Values", "[]V", accumulating("Add")),
		},
	}
	plan, err := Synthesize(rec, Options{})
	require.NoError(t, err)
	assert.Equal(t, "[K comparable, V any]", plan.TypeParams)
	assert.Equal(t, "[K, V]", plan.TypeArgs)
	assert.Equal(t, []Param{{Name: "value", Type: "V"}}, plan.Terminal().Ops[0].Params)
}

func TestSynthesize_Deterministic(t *testing.T) {
	opts := Options{Order: []string{"Tags", "Name"}, LoopAccumulators: true}
	first, err := Synthesize(personRecord(), opts)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Synthesize(personRecord(), opts)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func storages(carried []Carried) []string {
	out := make([]string, 0, len(carried))
	for _, c := range carried {
		out = append(out, c.Storage)
	}
	return out
}
