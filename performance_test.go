package initargs

import (
	"context"
	"fmt"
	"testing"

	"github.com/pancake-llc/foundation-sub024/registry"
)

// Benchmark types
type benchDatabase interface {
	Query(string) string
}

type benchPostgresDB struct{}

func (db *benchPostgresDB) Query(q string) string {
	return "result"
}

type benchUserService struct {
	db    benchDatabase
	input Input
}

func (s *benchUserService) InitArgs() Requirement {
	return Args2(func(db benchDatabase, input Input) {
		s.db, s.input = db, input
	})
}

// BenchmarkResolveLiteral benchmarks the literal fast path.
func BenchmarkResolveLiteral(b *testing.B) {
	cell := FromValue[Input](&keyboard{})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = cell.Resolve(Request{})
	}
}

// BenchmarkResolveCachedProvider benchmarks a provider result served from
// the cache.
func BenchmarkResolveCachedProvider(b *testing.B) {
	cell := MustFromObject[Input](provides[Input](&keyboard{}))
	_, _ = cell.Resolve(Request{})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = cell.Resolve(Request{})
	}
}

// BenchmarkResolveProviderUncached benchmarks a provider called on every
// resolution.
func BenchmarkResolveProviderUncached(b *testing.B) {
	cell := MustFromObject[Input](provides[Input](&keyboard{}))
	req := Request{Context: Validation}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = cell.Resolve(req)
	}
}

// BenchmarkResolveRegistry benchmarks the registry fallback.
func BenchmarkResolveRegistry(b *testing.B) {
	reg := registry.New()
	_ = registry.SetT[Input](reg, &keyboard{})
	req := Request{Registry: reg}
	var cell Any[Input]

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = cell.Resolve(req)
	}
}

// BenchmarkConcurrentResolution benchmarks concurrent registry fallbacks.
func BenchmarkConcurrentResolution(b *testing.B) {
	reg := registry.New()
	_ = registry.SetT[Input](reg, &keyboard{})
	req := Request{Registry: reg}
	var cell Any[Input]

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = cell.Resolve(req)
		}
	})
}

// BenchmarkResolveAsyncCompleted benchmarks ResolveAsync over a completed
// provider future.
func BenchmarkResolveAsyncCompleted(b *testing.B) {
	cell := MustFromObject[Input](&asyncProvider[Input]{future: Completed[Input](&keyboard{}, true)})
	req := Request{Context: Validation}
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _, _ = cell.ResolveAsync(req).Await(ctx)
	}
}

// BenchmarkNullGuard benchmarks the null guard of an empty cell.
func BenchmarkNullGuard(b *testing.B) {
	reg := registry.New()
	_ = registry.SetT[Input](reg, &keyboard{})
	req := Request{Registry: reg}
	var cell Any[Input]

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = cell.NullGuardFor(req)
	}
}

// BenchmarkInjectionPass benchmarks a pass over many candidates.
func BenchmarkInjectionPass(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("candidates=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				in := NewInjector(registry.New())
				_ = RegisterT[benchDatabase](in, &benchPostgresDB{})
				_ = RegisterT[Input](in, &keyboard{})
				for j := 0; j < size; j++ {
					_ = in.Register(nil, &benchUserService{})
				}
				b.StartTimer()

				in.InjectPass()
			}
		})
	}
}

// BenchmarkHostLifecycle benchmarks entering and exiting a context.
func BenchmarkHostLifecycle(b *testing.B) {
	previous := registry.SetDefault(nil)
	defer registry.SetDefault(previous)

	host := NewHost([]Definition{
		Instance[benchDatabase]("db", &benchPostgresDB{}),
		Instance[Input]("input", &keyboard{}),
		Define("users", func(*registry.Registry) (*benchUserService, error) { return &benchUserService{}, nil }),
	})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = host.Enter()
		_ = host.Exit()
	}
}

// BenchmarkReflectionCache benchmarks cached field analysis.
func BenchmarkReflectionCache(b *testing.B) {
	cache := newReflectionCache()
	typ := typeOf[playerFields]()
	cache.getFieldInfo(typ)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = cache.getFieldInfo(typ)
	}
}
