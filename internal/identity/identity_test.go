package identity

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var idFormat = regexp.MustCompile(`^\d+-[a-f0-9]{32}$`)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGenerator(storage Storage) (*Generator, *fakeClock) {
	clock := &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
	return NewGenerator(storage, zap.NewNop(), WithClock(clock.Now)), clock
}

func TestGetOrCreate_Format(t *testing.T) {
	g, clock := newTestGenerator(NewMemoryStorage())

	id := g.GetOrCreate()
	assert.Regexp(t, idFormat, id)
	assert.True(t, IsValid(id, clock.Now()))
	assert.Equal(t, strconv.FormatInt(clock.Now().UnixMilli(), 10), id[:13])
}

func TestGetOrCreate_StableWithinLifetime(t *testing.T) {
	g, clock := newTestGenerator(NewMemoryStorage())

	first := g.GetOrCreate()
	clock.Advance(23 * time.Hour)
	assert.Equal(t, first, g.GetOrCreate())
}

func TestGetOrCreate_RotatesAfterLifetime(t *testing.T) {
	g, clock := newTestGenerator(NewMemoryStorage())

	first := g.GetOrCreate()
	clock.Advance(25 * time.Hour)
	second := g.GetOrCreate()

	assert.NotEqual(t, first, second)
	assert.True(t, IsValid(second, clock.Now()))
}

func TestGetOrCreate_MalformedStoredIDIsReplaced(t *testing.T) {
	storage := NewMemoryStorage()
	g, clock := newTestGenerator(storage)
	require.NoError(t, storage.Save(Session{SessionID: "garbage", Timestamp: clock.Now().UnixMilli()}))

	id := g.GetOrCreate()
	assert.NotEqual(t, "garbage", id)
	assert.Regexp(t, idFormat, id)
}

func TestGetOrCreate_UniqueAcrossGenerators(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		g, _ := newTestGenerator(NewMemoryStorage())
		id := g.GetOrCreate()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestIsValid(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	hex := "0123456789abcdef0123456789abcdef"

	cases := map[string]struct {
		id   string
		want bool
	}{
		"fresh":          {"1700000000000-" + hex, true},
		"expired":        {strconv.FormatInt(now.Add(-25*time.Hour).UnixMilli(), 10) + "-" + hex, false},
		"uppercase hex":  {"1700000000000-0123456789ABCDEF0123456789ABCDEF", false},
		"short hex":      {"1700000000000-abc", false},
		"three parts":    {"1700000000000-" + hex + "-x", false},
		"non-numeric":    {"abc-" + hex, false},
		"empty":          {"", false},
		"missing random": {"1700000000000", false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValid(tc.id, now))
		})
	}
}

func TestFileStorage_PersistsAcrossGenerators(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	g1, clock := newTestGenerator(NewFileStorage(path))
	id := g1.GetOrCreate()

	g2 := NewGenerator(NewFileStorage(path), zap.NewNop(), WithClock(clock.Now))
	assert.Equal(t, id, g2.GetOrCreate())
}

func TestFileStorage_CorruptFileCountsAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	session, err := NewFileStorage(path).Load()
	require.NoError(t, err)
	assert.Nil(t, session)
}
