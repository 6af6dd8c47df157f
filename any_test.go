package initargs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pancake-llc/foundation-sub024/registry"
)

func registryWith[T any](t *testing.T, instance T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, registry.SetT(reg, instance))
	return reg
}

func TestAny_EmptyCellFallsBackToRegistry(t *testing.T) {
	service := &keyboard{axis: 1}
	useDefault(t, registryWith[Input](t, service))

	var cell Any[Input]
	value, ok := cell.Resolve(Request{})
	require.True(t, ok)
	assert.Same(t, service, value)
	assert.Same(t, service, cell.Value())
}

func TestAny_EmptyCellWithoutRegistry(t *testing.T) {
	useDefault(t, nil)

	var cell Any[Input]
	value, ok := cell.TryGetValue()
	assert.False(t, ok)
	assert.Nil(t, value)
	assert.Equal(t, "", cell.String())
}

func TestAny_RequestRegistryOverridesDefault(t *testing.T) {
	useDefault(t, registryWith[Input](t, &keyboard{axis: 1}))
	local := &keyboard{axis: 2}

	var cell Any[Input]
	value, ok := cell.Resolve(Request{Registry: registryWith[Input](t, local)})
	require.True(t, ok)
	assert.Same(t, local, value)
}

func TestAny_BackgroundNeedsExplicitRegistry(t *testing.T) {
	service := &keyboard{}
	reg := registryWith[Input](t, service)
	useDefault(t, reg)

	var cell Any[Input]
	_, ok := cell.Resolve(Request{Context: Background})
	assert.False(t, ok, "background requests must not consult the default registry")

	value, ok := cell.Resolve(Request{Context: Background, Registry: reg})
	require.True(t, ok)
	assert.Same(t, service, value)
}

func TestAny_LiteralWinsOverRegistry(t *testing.T) {
	useDefault(t, registryWith[Input](t, &keyboard{axis: 1}))
	literal := &keyboard{axis: 2}

	cell := FromValue[Input](literal)
	value, ok := cell.Resolve(Request{})
	require.True(t, ok)
	assert.Same(t, literal, value)
}

func TestAny_NilLiteralFallsBackToRegistry(t *testing.T) {
	service := &keyboard{}
	useDefault(t, registryWith[Input](t, service))

	cell := FromValue[Input](nil)
	value, ok := cell.Resolve(Request{})
	require.True(t, ok)
	assert.Same(t, service, value)
}

func TestAny_ValueTypeLiteral(t *testing.T) {
	useDefault(t, registryWith(t, 7))

	cell := FromValue(0)
	value, ok := cell.Resolve(Request{})
	require.True(t, ok, "a zero value literal is still a value")
	assert.Equal(t, 0, value)
	assert.Equal(t, "0", cell.String())
}

func TestAny_HandleIsInstance(t *testing.T) {
	useDefault(t, registryWith[Input](t, &keyboard{axis: 1}))
	handle := &keyboard{axis: 2}

	cell := MustFromObject[Input](handle)
	assert.Equal(t, CapInstance, cell.Capabilities())

	value, ok := cell.Resolve(Request{})
	require.True(t, ok)
	assert.Same(t, handle, value)
	assert.False(t, cell.IsCached(), "instances are not cached")
}

func TestAny_NullSuppressesRegistry(t *testing.T) {
	useDefault(t, registryWith[Input](t, &keyboard{}))

	cell := NullOf[Input]()
	_, ok := cell.Resolve(Request{})
	assert.False(t, ok)
	assert.Same(t, NullObject, cell.Object())
}

func TestAny_NullKeepsLiteral(t *testing.T) {
	useDefault(t, registryWith(t, 7))

	cell := NullOf[int]()
	cell.SetValue(3)
	assert.Same(t, NullObject, cell.Object(), "SetValue keeps the Null handle")

	value, ok := cell.Resolve(Request{})
	require.True(t, ok)
	assert.Equal(t, 3, value)
}

func TestAny_ValueProvider(t *testing.T) {
	service := &keyboard{axis: 3}
	provider := provides[Input](service)
	client := &struct{ name string }{"player"}

	cell := MustFromObject[Input](provider)
	assert.Equal(t, CapValue, cell.Capabilities())

	value, ok := cell.Resolve(For(client))
	require.True(t, ok)
	assert.Same(t, service, value)
	assert.Equal(t, []any{client}, provider.clients)
}

func TestAny_ProviderResultIsCached(t *testing.T) {
	provider := provides[Input](&keyboard{})
	cell := MustFromObject[Input](provider)

	for i := 0; i < 3; i++ {
		_, ok := cell.Resolve(Request{})
		require.True(t, ok)
	}
	assert.Equal(t, 1, provider.Calls())
	assert.True(t, cell.IsCached())

	literal, ok := cell.Literal()
	require.True(t, ok)
	assert.Same(t, provider.value, literal)
	assert.Same(t, provider, cell.Object(), "caching keeps the provider handle")
}

func TestAny_NonCommittalContextsDoNotCache(t *testing.T) {
	for _, ctx := range []Context{EditMode, Validation} {
		t.Run(ctx.String(), func(t *testing.T) {
			provider := provides[Input](&keyboard{})
			cell := MustFromObject[Input](provider)

			for i := 0; i < 2; i++ {
				_, ok := cell.Resolve(Request{Context: ctx})
				require.True(t, ok)
			}
			assert.Equal(t, 2, provider.Calls())
			assert.False(t, cell.IsCached())
		})
	}
}

func TestAny_DeadCachedValueIsDropped(t *testing.T) {
	service := &mortal{alive: true}
	provider := provides[Input](service)
	cell := MustFromObject[Input](provider)

	_, ok := cell.Resolve(Request{})
	require.True(t, ok)
	require.True(t, cell.IsCached())

	service.alive = false
	_, ok = cell.Resolve(Request{})
	assert.False(t, ok)
	assert.False(t, cell.IsCached())
	assert.Equal(t, 2, provider.Calls())
}

func TestAny_DeadCachedValueKeptOutsideCommittalContexts(t *testing.T) {
	service := &mortal{alive: true}
	provider := provides[Input](service)
	cell := MustFromObject[Input](provider)

	_, ok := cell.Resolve(Request{})
	require.True(t, ok)
	service.alive = false

	for _, ctx := range []Context{Validation, EditMode} {
		_, ok = cell.Resolve(Request{Context: ctx})
		assert.False(t, ok, ctx.String())
		assert.True(t, cell.IsCached(), "%s resolution must not drop the cache", ctx)
	}
	assert.Empty(t, cell.String())
	assert.True(t, cell.IsCached())

	_, ok = cell.Resolve(Request{})
	assert.False(t, ok)
	assert.False(t, cell.IsCached())
}

func TestAny_DeadLiteralFallsBackToRegistry(t *testing.T) {
	service := &keyboard{}
	useDefault(t, registryWith[Input](t, service))

	cell := FromValue[Input](&mortal{alive: false})
	value, ok := cell.Resolve(Request{})
	require.True(t, ok)
	assert.Same(t, service, value)
}

func TestAny_ValueByTypeWinsOverValue(t *testing.T) {
	byType := &keyboard{axis: 1}
	byValue := &keyboard{axis: 2}
	provider := &dualProvider{
		typeProvider: *providesTypes(typeOf[Input](), byType),
		byValue:      provides[Input](byValue),
	}

	cell := MustFromObject[Input](provider)
	assert.True(t, cell.Capabilities().Has(CapValue|CapValueByType))

	value, ok := cell.Resolve(Request{})
	require.True(t, ok)
	assert.Same(t, byType, value)
	assert.Zero(t, provider.byValue.Calls())
}

func TestAny_RefusingByTypeProviderFallsThrough(t *testing.T) {
	byValue := &keyboard{axis: 2}
	provider := &dualProvider{
		typeProvider: *providesTypes(typeOf[Input](), &keyboard{}),
		byValue:      provides[Input](byValue),
	}
	provider.refuse = true

	cell := MustFromObject[Input](provider)
	value, ok := cell.Resolve(Request{})
	require.True(t, ok)
	assert.Same(t, byValue, value)
	assert.Zero(t, provider.calls)
}

func TestAny_ByTypeProviderOnly(t *testing.T) {
	service := &keyboard{}
	provider := providesTypes(typeOf[Input](), service)

	cell := MustFromObject[Input](provider)
	value, ok := cell.Resolve(Request{})
	require.True(t, ok)
	assert.Same(t, service, value)

	provider.refuse = true
	cell.Reset()
	require.NoError(t, cell.SetObject(provider))
	useDefault(t, nil)
	_, ok = cell.Resolve(Request{})
	assert.False(t, ok)
}

func TestAny_ProviderFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *stubProvider[Input]
	}{
		{"no value", &stubProvider[Input]{}},
		{"error", &stubProvider[Input]{value: &keyboard{}, ok: true, err: errProvider}},
		{"panic", &stubProvider[Input]{panics: true}},
		{"nil value", &stubProvider[Input]{ok: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useDefault(t, registryWith[Input](t, &keyboard{}))

			cell := MustFromObject[Input](tt.provider)
			assert.NotPanics(t, func() {
				_, ok := cell.Resolve(Request{})
				assert.False(t, ok, "a provider handle never falls back to the registry")
			})
			assert.False(t, cell.IsCached())
		})
	}
}

func TestAny_CompletedAsyncProvider(t *testing.T) {
	service := &keyboard{}
	provider := &asyncProvider[Input]{future: Completed[Input](service, true)}

	cell := MustFromObject[Input](provider)
	value, ok := cell.Resolve(Request{})
	require.True(t, ok)
	assert.Same(t, service, value)
	assert.True(t, cell.IsCached())
}

func TestAny_PendingAsyncProviderWritesBack(t *testing.T) {
	service := &keyboard{}
	future := NewFuture[Input]()
	provider := &asyncProvider[Input]{future: future}

	cell := MustFromObject[Input](provider)
	_, ok := cell.Resolve(Request{})
	assert.False(t, ok)

	future.Complete(service, true, nil)
	require.Eventually(t, cell.IsCached, time.Second, time.Millisecond)

	value, ok := cell.Resolve(Request{})
	require.True(t, ok)
	assert.Same(t, service, value)
	assert.Equal(t, 1, provider.Calls())
}

func TestAny_CellAsProvider(t *testing.T) {
	service := &keyboard{}
	inner := FromValue[Input](service)

	outer := MustFromObject[Input](inner)
	assert.True(t, outer.Capabilities().Has(CapValue|CapNullGuard))

	value, ok := outer.Resolve(Request{})
	require.True(t, ok)
	assert.Same(t, service, value)
}

func TestAny_ScopedClient(t *testing.T) {
	global := &keyboard{axis: 1}
	local := &keyboard{axis: 2}
	useDefault(t, registryWith[Input](t, global))

	scope := registry.NewScope("player")
	require.NoError(t, scope.Set(typeOf[Input](), local))
	client := &scopedClient{scope: scope}

	var cell Any[Input]
	assert.Same(t, local, cell.ValueFor(client))
	assert.Same(t, global, cell.Value())

	_, ok := cell.Resolve(Request{Client: client, Context: Background, Registry: registry.New()})
	assert.False(t, ok, "background lookups ignore scopes")
}

func TestAny_FromObjectRejectsInvalidHandle(t *testing.T) {
	_, err := FromObject[Input](42)
	require.Error(t, err)

	var handleErr *InvalidHandleError
	require.True(t, errors.As(err, &handleErr))
	assert.Equal(t, typeOf[Input](), handleErr.Target)
	assert.Equal(t, typeOf[int](), handleErr.Handle)

	assert.Panics(t, func() { MustFromObject[Input]("keyboard") })
}

func TestAny_SetObjectClearsLiteral(t *testing.T) {
	cell := FromValue[Input](&keyboard{})
	provider := provides[Input](&keyboard{})

	require.NoError(t, cell.SetObject(provider))
	_, ok := cell.Literal()
	assert.False(t, ok)

	require.NoError(t, cell.SetObject(nil))
	assert.Nil(t, cell.Object())
}

func TestAny_SetValueClearsProvider(t *testing.T) {
	cell := MustFromObject[Input](provides[Input](&keyboard{}))
	cell.SetValue(&keyboard{})
	assert.Nil(t, cell.Object())
}

func TestAny_Reset(t *testing.T) {
	cell := NullOf[int]()
	cell.SetValue(1)
	cell.Reset()

	assert.Nil(t, cell.Object())
	_, ok := cell.Literal()
	assert.False(t, ok)
}

func TestAny_Equal(t *testing.T) {
	handle := provides[Input](&keyboard{})

	assert.True(t, FromValue(3).Equal(FromValue(3)))
	assert.False(t, FromValue(3).Equal(FromValue(4)))
	assert.False(t, FromValue(3).Equal(NullOf[int]()))
	assert.True(t, NullOf[int]().Equal(NullOf[int]()))
	assert.True(t, MustFromObject[Input](handle).Equal(MustFromObject[Input](handle)))
	assert.False(t, MustFromObject[Input](handle).Equal(MustFromObject[Input](provides[Input](&keyboard{}))))
	assert.True(t, FromValue([]int{1, 2}).Equal(FromValue([]int{1, 2})))

	var nilCell *Any[int]
	assert.False(t, FromValue(1).Equal(nilCell))
}

func TestAny_EqualValue(t *testing.T) {
	useDefault(t, nil)

	assert.True(t, FromValue(3).EqualValue(3))
	assert.False(t, FromValue(3).EqualValue(4))

	service := &keyboard{}
	assert.True(t, MustFromObject[Input](provides[Input](service)).EqualValue(service))
}

func TestAny_StringDoesNotCache(t *testing.T) {
	provider := provides(42)
	cell := MustFromObject[int](provider)

	assert.Equal(t, "42", cell.String())
	assert.False(t, cell.IsCached())
}

func TestAny_ProvideValueSeesClient(t *testing.T) {
	provider := provides(5)
	inner := MustFromObject[int](provider)
	client := &keyboard{}

	value, ok, err := inner.ProvideValue(client)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, value)
	assert.Equal(t, []any{client}, provider.clients)
}
