package initargs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pancake-llc/foundation-sub024/registry"
)

// Test clients with cell fields
type playerFields struct {
	Input   Any[Input]
	Audio   *Any[Audio] `initargs:"optional"`
	Speed   Any[float64]
	Ignored Any[Greeter] `initargs:"-"`
	hidden  Any[Input]
	Name    string
}

type noCells struct {
	Name  string
	Count int
}

func TestValidateFields(t *testing.T) {
	reg := registryWith[Input](t, &keyboard{})
	player := &playerFields{}
	player.Speed.SetValue(1.5)

	reports, err := ValidateFields(player, Request{Context: Validation, Registry: reg})
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, "Input", reports[0].Field)
	assert.Equal(t, Passed, reports[0].Result)
	assert.Equal(t, typeOf[Any[Input]](), reports[0].Type)

	assert.Equal(t, "Audio", reports[1].Field)
	assert.True(t, reports[1].Optional)
	assert.Equal(t, ValueMissing, reports[1].Result, "a nil cell pointer holds nothing")

	assert.Equal(t, "Speed", reports[2].Field)
	assert.Equal(t, Passed, reports[2].Result)

	assert.Empty(t, reports.Failed(), "optional fields never fail")
	assert.NoError(t, reports.Err())
}

func TestValidateFields_Failures(t *testing.T) {
	player := &playerFields{Audio: NullOf[Audio]()}
	require.NoError(t, player.Input.SetObject(&stubProvider[Input]{err: errProvider}))

	reports, err := ValidateFields(player, Request{Context: Validation, Registry: registry.New()})
	require.NoError(t, err)

	failed := reports.Failed()
	require.Len(t, failed, 2)
	assert.Equal(t, ValueProviderException, failed[0].Result)
	assert.Equal(t, ValueMissing, failed[1].Result)
	assert.Equal(t, "Speed", failed[1].Field)

	err = reports.Err()
	var validation *ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Len(t, validation.Errors, 2)
	assert.ErrorContains(t, err, "field Input")
}

func TestValidateFields_ClientDefaultsToTarget(t *testing.T) {
	provider := provides[Input](&keyboard{})
	player := &playerFields{}
	require.NoError(t, player.Input.SetObject(provider))

	_, err := ValidateFields(player, Request{Context: Validation, Registry: registry.New()})
	require.NoError(t, err)
	assert.Equal(t, []any{player}, provider.clients)
}

func TestValidateFields_InvalidTargets(t *testing.T) {
	_, err := ValidateFields(nil, Request{})
	assert.Error(t, err)

	_, err = ValidateFields(noCells{}, Request{})
	assert.ErrorContains(t, err, "pointer to struct")

	var nilPlayer *playerFields
	_, err = ValidateFields(nilPlayer, Request{})
	assert.Error(t, err)

	n := 3
	_, err = ValidateFields(&n, Request{})
	assert.ErrorContains(t, err, "pointer to int")
}

func TestValidateFields_NoCells(t *testing.T) {
	reports, err := ValidateFields(&noCells{}, Request{})
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestReflectionCache(t *testing.T) {
	fieldCache.clear()
	t.Cleanup(fieldCache.clear)

	first := fieldCache.getFieldInfo(typeOf[playerFields]())
	second := fieldCache.getFieldInfo(typeOf[playerFields]())
	require.Len(t, first, 3)
	assert.Same(t, &first[0], &second[0], "field info is computed once per type")

	assert.False(t, first[0].pointer)
	assert.True(t, first[1].pointer)
	assert.True(t, first[1].optional)
}

func BenchmarkValidateFields(b *testing.B) {
	reg := registry.New()
	_ = registry.SetT[Input](reg, &keyboard{})
	player := &playerFields{}
	req := Request{Context: Validation, Registry: reg}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ValidateFields(player, req)
	}
}
