package registry

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r := New[string, int]()
	assert.NotNil(t, r)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Keys())
}

func TestRegisterAndGet(t *testing.T) {
	r := New[string, int]()

	r.Register("one", 1)
	r.Register("two", 2)

	v, ok := r.Get("one")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.Get("three")
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}

// TestRegisterOverwriteKeepsPosition verifies a replaced value stays where it was.
func TestRegisterOverwriteKeepsPosition(t *testing.T) {
	r := New[string, string]()

	r.Register("a", "old")
	r.Register("b", "b")
	r.Register("a", "new")

	assert.Equal(t, []string{"a", "b"}, r.Keys())
	assert.Equal(t, []string{"new", "b"}, r.Values())
}

func TestAdd(t *testing.T) {
	r := New[string, int]()

	require.NoError(t, r.Add("one", 1))
	err := r.Add("one", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Contains(t, err.Error(), "one")

	v, _ := r.Get("one")
	assert.Equal(t, 1, v, "failed Add must not overwrite")
}

// TestKeysInsertionOrder verifies keys come back in the order they were added.
func TestKeysInsertionOrder(t *testing.T) {
	r := New[string, int]()
	names := []string{"zeta", "alpha", "mu", "beta", "omega"}
	for i, n := range names {
		r.Register(n, i)
	}

	assert.Equal(t, names, r.Keys())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, r.Values())
}

func TestKeysReturnsCopy(t *testing.T) {
	r := New[string, int]()
	r.Register("one", 1)

	keys := r.Keys()
	keys[0] = "mutated"

	assert.Equal(t, []string{"one"}, r.Keys())
}

func TestMustGet(t *testing.T) {
	r := New[string, int]()
	r.Register("key", 42)

	assert.Equal(t, 42, r.MustGet("key"))
	assert.PanicsWithValue(t, "registry: key not found: missing", func() {
		r.MustGet("missing")
	})
}

func TestDelete(t *testing.T) {
	r := New[string, int]()
	r.Register("one", 1)
	r.Register("two", 2)
	r.Register("three", 3)

	r.Delete("two")
	r.Delete("nonexistent")

	assert.False(t, r.Has("two"))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"one", "three"}, r.Keys())

	r.Register("two", 22)
	assert.Equal(t, []string{"one", "three", "two"}, r.Keys())
}

func TestRange(t *testing.T) {
	r := New[string, int]()
	r.Register("one", 1)
	r.Register("two", 2)
	r.Register("three", 3)

	var visited []string
	r.Range(func(k string, v int) bool {
		visited = append(visited, k)
		return true
	})
	assert.Equal(t, []string{"one", "two", "three"}, visited)

	count := 0
	r.Range(func(string, int) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestRangeAllowsMutation(t *testing.T) {
	r := New[string, int]()
	r.Register("one", 1)
	r.Register("two", 2)

	visited := 0
	r.Range(func(k string, _ int) bool {
		visited++
		r.Delete(k)
		r.Register(k+"-copy", 0)
		return true
	})

	assert.Equal(t, 2, visited)
	assert.Equal(t, []string{"one-copy", "two-copy"}, r.Keys())
}

func TestGetOrCreate(t *testing.T) {
	r := New[string, int]()
	var calls atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := r.GetOrCreate("shared", func() int {
				calls.Add(1)
				return 7
			})
			assert.Equal(t, 7, v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{"shared"}, r.Keys())
}

func TestConcurrentAccess(t *testing.T) {
	r := New[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			r.Register(n, n*n)
		}(i)
		go func(n int) {
			defer wg.Done()
			r.Get(n)
			r.Keys()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, r.Len())
	assert.Len(t, r.Keys(), 100)
}
