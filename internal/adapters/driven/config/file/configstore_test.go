package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, ConfigFile), store.Path())
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewConfigStore(nested)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.DirExists(t, nested)
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte("this is not valid TOML {{{[["), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store := newTestStore(t)

	val, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("s", "hello"))
	require.NoError(t, store.Set("i", 3))
	require.NoError(t, store.Set("f", 1.5))
	require.NoError(t, store.Set("b", true))

	assert.Equal(t, "hello", store.GetString("s"))
	assert.Equal(t, 3, store.GetInt("i"))
	assert.InDelta(t, 1.5, store.GetFloat("f"), 1e-9)
	assert.InDelta(t, 3.0, store.GetFloat("i"), 1e-9)
	assert.True(t, store.GetBool("b"))

	// Wrong types yield zero values.
	assert.Empty(t, store.GetString("i"))
	assert.Zero(t, store.GetInt("s"))
	assert.Zero(t, store.GetFloat("b"))
	assert.False(t, store.GetBool("s"))
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Set("storage.backend", "redis"))
	require.NoError(t, store1.Set("inbox.burst", 4))
	require.NoError(t, store1.Set("inbox.rate_per_second", 0.5))
	require.NoError(t, store1.Set("logging.verbose", true))

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "redis", store2.GetString("storage.backend"))
	assert.Equal(t, 4, store2.GetInt("inbox.burst"))
	assert.InDelta(t, 0.5, store2.GetFloat("inbox.rate_per_second"), 1e-9)
	assert.True(t, store2.GetBool("logging.verbose"))
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("storage.backend", "sqlite"))
	require.NoError(t, store.Set("storage.data_dir", "/data"))

	content, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	assert.Contains(t, string(content), "[storage]")
	assert.Contains(t, string(content), "backend = 'sqlite'")
}

func TestConfigStore_ReadsHandWrittenTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[storage]\nbackend = \"memory\"\n\n[inbox]\nrate_per_second = 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "memory", store.GetString("storage.backend"))
	assert.InDelta(t, 3.0, store.GetFloat("inbox.rate_per_second"), 1e-9)
}

func TestConfigStore_Unset(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("inbox.dir", "/inbox"))
	require.NoError(t, store.Set("inbox.burst", 2))

	require.NoError(t, store.Unset("inbox.dir"))
	require.NoError(t, store.Unset("never.set"))

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	_, ok := reloaded.Get("inbox.dir")
	assert.False(t, ok)
	assert.Equal(t, 2, reloaded.GetInt("inbox.burst"))
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte{}, 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("any_key")
	assert.False(t, ok)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("test", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Save_Explicit(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	store.mu.Lock()
	store.data["manual.key"] = "manual_value"
	store.mu.Unlock()

	require.NoError(t, store.Save())

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "manual_value", store2.GetString("manual.key"))
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("test", "value"))

	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("another", "value"))
}

func TestConfigStore_Load_InvalidTOML(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("valid", "data"))
	require.NoError(t, os.WriteFile(store.Path(), []byte("invalid toml syntax ][}{"), 0600))

	assert.Error(t, store.Load())
}

func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store := newTestStore(t)

	assert.Error(t, store.Set("channel", make(chan int)))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_, _ = store.Get(key)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		assert.Equal(t, i, store.GetInt("key"+string(rune('0'+i))))
	}
}

func TestFlattenMap(t *testing.T) {
	nested := map[string]any{
		"storage": map[string]any{"backend": "sqlite"},
		"top":     1,
	}

	flat := flattenMap(nested, "")

	assert.Equal(t, map[string]any{"storage.backend": "sqlite", "top": 1}, flat)
}

func TestNestMap(t *testing.T) {
	tests := []struct {
		name string
		flat map[string]any
		want map[string]any
	}{
		{
			name: "tables",
			flat: map[string]any{"storage.backend": "redis", "storage.redis_url": "redis://x", "plain": true},
			want: map[string]any{
				"storage": map[string]any{"backend": "redis", "redis_url": "redis://x"},
				"plain":   true,
			},
		},
		{
			name: "scalar collision keeps dotted remainder",
			flat: map[string]any{"a": 1, "a.b": 2},
			want: map[string]any{"a": 1, "a.b": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nestMap(tt.flat))
		})
	}
}
