package storage

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/internal/matching"
	"github.com/getmockd/stubd/pkg/stub"
)

func request(t *testing.T, method, target string) *matching.Request {
	t.Helper()
	r, err := matching.NewRequest(httptest.NewRequest(method, target, nil), nil)
	require.NoError(t, err)
	return r
}

func mustRegister(t *testing.T, s *InMemoryStubStore, b stub.MappingBuilder) string {
	t.Helper()
	id, err := s.Register(b.Build())
	require.NoError(t, err)
	return id
}

func TestInMemoryStubStore_RegisterGeneratesID(t *testing.T) {
	s := NewInMemoryStubStore()

	id := mustRegister(t, s, stub.Get(stub.URLEqualTo("/custom")))
	_, err := uuid.Parse(id)
	assert.NoError(t, err, "generated IDs are UUIDs")

	got := s.Get(id)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, 1, s.Count())
}

func TestInMemoryStubStore_RegisterDoesNotMutateInput(t *testing.T) {
	s := NewInMemoryStubStore()
	in := stub.Get(stub.AnyURL()).Build()

	_, err := s.Register(in)
	require.NoError(t, err)
	assert.Empty(t, in.ID)
}

func TestInMemoryStubStore_LastRegisteredWins(t *testing.T) {
	s := NewInMemoryStubStore()

	first := mustRegister(t, s, stub.Get(stub.URLPathMatching("/api/.*")).WillReturn(stub.AResponse().WithBody("first")))
	second := mustRegister(t, s, stub.Get(stub.URLPathEqualTo("/api/message")).WillReturn(stub.AResponse().WithBody("second")))

	entry := s.FindBestMatch(request(t, http.MethodGet, "/api/message"))
	require.NotNil(t, entry)
	assert.Equal(t, second, entry.Stub.ID)

	entry = s.FindBestMatch(request(t, http.MethodGet, "/api/other"))
	require.NotNil(t, entry)
	assert.Equal(t, first, entry.Stub.ID)

	assert.Nil(t, s.FindBestMatch(request(t, http.MethodGet, "/elsewhere")))
}

func TestInMemoryStubStore_DisjointStubs(t *testing.T) {
	s := NewInMemoryStubStore()

	a := mustRegister(t, s, stub.Get(stub.URLEqualTo("/a")))
	b := mustRegister(t, s, stub.Get(stub.URLEqualTo("/b")))

	assert.Equal(t, a, s.FindBestMatch(request(t, http.MethodGet, "/a")).Stub.ID)
	assert.Equal(t, b, s.FindBestMatch(request(t, http.MethodGet, "/b")).Stub.ID)
}

func TestInMemoryStubStore_ReplaceMovesToNewest(t *testing.T) {
	s := NewInMemoryStubStore()

	mustRegister(t, s, stub.Get(stub.AnyURL()).WithID("catch-all").WillReturn(stub.AResponse().WithBody("v1")))
	mustRegister(t, s, stub.Get(stub.AnyURL()).WithID("other"))
	mustRegister(t, s, stub.Get(stub.AnyURL()).WithID("catch-all").WillReturn(stub.AResponse().WithBody("v2")))

	assert.Equal(t, 2, s.Count())

	entry := s.FindBestMatch(request(t, http.MethodGet, "/x"))
	require.NotNil(t, entry)
	assert.Equal(t, "catch-all", entry.Stub.ID)
	assert.Equal(t, "v2", entry.Stub.Response.Body)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "catch-all", list[0].ID)
	assert.Equal(t, "other", list[1].ID)
}

func TestInMemoryStubStore_InvalidStubIsRejected(t *testing.T) {
	s := NewInMemoryStubStore()

	_, err := s.Register(stub.Get(stub.URLMatching("/api/(")).Build())
	require.Error(t, err)
	assert.ErrorIs(t, err, stub.ErrInvalidPredicate)

	_, err = s.Register(stub.Get(stub.AnyURL()).WillReturn(stub.AResponse().WithStatus(42)).Build())
	assert.ErrorIs(t, err, stub.ErrInvalidPredicate)

	_, err = s.Register(nil)
	assert.ErrorIs(t, err, stub.ErrInvalidPredicate)

	assert.Equal(t, 0, s.Count())
}

func TestInMemoryStubStore_RemoveAndReset(t *testing.T) {
	s := NewInMemoryStubStore()
	a := mustRegister(t, s, stub.Get(stub.URLEqualTo("/a")))
	mustRegister(t, s, stub.Get(stub.URLEqualTo("/b")))

	assert.True(t, s.Remove(a))
	assert.False(t, s.Remove(a))
	assert.Nil(t, s.Get(a))
	assert.Nil(t, s.FindBestMatch(request(t, http.MethodGet, "/a")))
	assert.Equal(t, 1, s.Count())

	s.Reset()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.List())
	assert.Nil(t, s.FindBestMatch(request(t, http.MethodGet, "/b")))
}

func TestInMemoryStubStore_RegisterAll(t *testing.T) {
	s := NewInMemoryStubStore()
	mustRegister(t, s, stub.Get(stub.URLEqualTo("/a")).WithID("a").WillReturn(stub.AResponse().WithBody("old")))

	ids, err := s.RegisterAll([]*stub.Stub{
		stub.Get(stub.URLEqualTo("/b")).WithID("b").Build(),
		stub.Get(stub.URLEqualTo("/a")).WithID("a").WillReturn(stub.AResponse().WithBody("new")).Build(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID, "re-registered stub becomes the newest")
	assert.Equal(t, "new", list[0].Response.Body)
	assert.Equal(t, "b", list[1].ID)
}

func TestInMemoryStubStore_RegisterAllIsAtomic(t *testing.T) {
	s := NewInMemoryStubStore()
	mustRegister(t, s, stub.Get(stub.URLEqualTo("/a")).WithID("a"))

	_, err := s.RegisterAll([]*stub.Stub{
		stub.Get(stub.URLEqualTo("/b")).Build(),
		stub.Get(stub.URLMatching("(")).Build(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, stub.ErrInvalidPredicate)
	assert.Contains(t, err.Error(), "mapping 1")

	assert.Equal(t, 1, s.Count())
	assert.Nil(t, s.FindBestMatch(request(t, http.MethodGet, "/b")))
}

func TestInMemoryStubStore_ReplaceAll(t *testing.T) {
	s := NewInMemoryStubStore()
	mustRegister(t, s, stub.Get(stub.URLEqualTo("/old")).WithID("old"))

	ids, err := s.ReplaceAll(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Zero(t, s.Count(), "replacing with nothing empties the registry")

	mustRegister(t, s, stub.Get(stub.URLEqualTo("/old")).WithID("old"))
	ids, err = s.ReplaceAll([]*stub.Stub{
		stub.Get(stub.URLEqualTo("/x")).WithID("dup").WillReturn(stub.AResponse().WithBody("first")).Build(),
		stub.Get(stub.URLEqualTo("/y")).WithID("y").Build(),
		stub.Get(stub.URLEqualTo("/x")).WithID("dup").WillReturn(stub.AResponse().WithBody("second")).Build(),
	})
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	assert.Nil(t, s.Get("old"))
	assert.Equal(t, 2, s.Count(), "a duplicate ID in one batch keeps the later stub")
	entry := s.FindBestMatch(request(t, http.MethodGet, "/x"))
	require.NotNil(t, entry)
	assert.Equal(t, "second", entry.Stub.Response.Body)
}

func TestInMemoryStubStore_ReplaceAllFailureKeepsRegistry(t *testing.T) {
	s := NewInMemoryStubStore()
	mustRegister(t, s, stub.Get(stub.URLEqualTo("/keep")).WithID("keep"))

	_, err := s.ReplaceAll([]*stub.Stub{
		stub.Get(stub.URLEqualTo("/new")).Build(),
		stub.Get(stub.URLEqualTo("/bad")).WillReturn(stub.AResponse().WithStatus(99)).Build(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, stub.ErrInvalidPredicate)

	assert.NotNil(t, s.Get("keep"))
	assert.Equal(t, 1, s.Count())
}

func TestInMemoryStubStore_NearMisses(t *testing.T) {
	s := NewInMemoryStubStore()
	mustRegister(t, s, stub.Get(stub.URLEqualTo("/custom")).WithID("custom"))
	mustRegister(t, s, stub.Post(stub.URLEqualTo("/elsewhere")).WithID("unrelated"))

	misses := s.NearMisses(request(t, http.MethodGet, "/other"), 3)
	require.Len(t, misses, 1)
	assert.Equal(t, "custom", misses[0].StubID)
}

func TestInMemoryStubStore_Concurrent(t *testing.T) {
	s := NewInMemoryStubStore()
	mustRegister(t, s, stub.Get(stub.AnyURL()).WithID("base"))

	r := request(t, http.MethodGet, "/anything")

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := range 50 {
				_, err := s.Register(stub.Get(stub.URLEqualTo(fmt.Sprintf("/w/%d/%d", i, j))).Build())
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				assert.NotNil(t, s.FindBestMatch(r))
				_ = s.List()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1+8*50, s.Count())
}

func TestInMemoryStubStore_ReplaceAllWhileMatching(t *testing.T) {
	s := NewInMemoryStubStore()
	set := []*stub.Stub{
		stub.Get(stub.URLEqualTo("/x")).Build(),
		stub.Get(stub.URLEqualTo("/y")).Build(),
		stub.Get(stub.URLEqualTo("/z")).Build(),
	}
	_, err := s.ReplaceAll(set)
	require.NoError(t, err)

	r := request(t, http.MethodGet, "/x")

	var (
		wg     sync.WaitGroup
		misses atomic.Int64
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 500 {
			_, err := s.ReplaceAll(set)
			assert.NoError(t, err)
		}
	}()
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 2000 {
				if s.FindBestMatch(r) == nil {
					misses.Add(1)
				}
				if n := s.Count(); n != len(set) {
					misses.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, misses.Load(), "lookups never see a partially replaced registry")
}
