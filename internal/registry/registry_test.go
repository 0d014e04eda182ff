package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
)

const sampleDocument = `
applications:
  - name: shop
    namespace: retail
    labelSelector: app=shop,tier=web
    scanOnDeploy: true
  - name: billing
    namespace: retail
    labelSelector: app=billing
    scanOnDeploy: true
  - name: legacy
    namespace: retail
    labelSelector: app=legacy
    scanOnDeploy: false
  - name: ledger
    namespace: finance
    labelSelector: "app = ledger"
    scanOnDeploy: true
`

func TestParse(t *testing.T) {
	idx, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, 3, idx.Len())

	def, ok := idx.Get(Key{Namespace: "retail", Signature: "app=shop,tier=web"})
	require.True(t, ok)
	assert.Equal(t, "shop", def.Name)

	_, ok = idx.Get(Key{Namespace: "retail", Signature: "app=legacy"})
	assert.False(t, ok, "scanOnDeploy=false must not be indexed")

	def, ok = idx.Get(Key{Namespace: "finance", Signature: "app=ledger"})
	require.True(t, ok, "selector whitespace should be canonicalized")
	assert.Equal(t, "app = ledger", def.LabelSelector)
}

func TestParse_EmptyDocument(t *testing.T) {
	for _, raw := range []string{"", "   \n", "applications: []"} {
		idx, err := Parse([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, 0, idx.Len())
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("applications: [unclosed"))
	assert.Error(t, err)
}

func TestParse_DuplicateKeyLaterWins(t *testing.T) {
	idx, err := Parse([]byte(`
applications:
  - name: first
    namespace: ns
    labelSelector: app=x
    scanOnDeploy: true
  - name: second
    namespace: ns
    labelSelector: "app=x, "
    scanOnDeploy: true
`))
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())

	def, ok := idx.Lookup("ns", map[string]string{"app": "x"})
	require.True(t, ok)
	assert.Equal(t, "second", def.Name)
}

func TestParse_SkipsIncompleteDefinitions(t *testing.T) {
	idx, err := Parse([]byte(`
applications:
  - namespace: ns
    labelSelector: app=x
    scanOnDeploy: true
  - name: nameless-ns
    labelSelector: app=y
    scanOnDeploy: true
`))
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_Lookup(t *testing.T) {
	idx, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	tests := []struct {
		name      string
		namespace string
		labels    map[string]string
		want      string
	}{
		{"full match", "retail", map[string]string{"app": "shop", "tier": "web"}, "shop"},
		{"extra labels", "retail", map[string]string{"app": "shop", "tier": "web", "v": "2"}, "shop"},
		{"partial match", "retail", map[string]string{"app": "shop"}, ""},
		{"wrong namespace", "finance", map[string]string{"app": "shop", "tier": "web"}, ""},
		{"disabled application", "retail", map[string]string{"app": "legacy"}, ""},
		{"unknown namespace", "other", map[string]string{"app": "shop"}, ""},
		{"nil labels", "retail", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := idx.Lookup(tt.namespace, tt.labels)
			if tt.want == "" {
				assert.False(t, ok)
				assert.Nil(t, def)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, def.Name)
		})
	}
}

func TestIndex_LookupOverlappingSelectorsIsLexical(t *testing.T) {
	idx := NewIndex([]ApplicationDefinition{
		{Name: "zeta", Namespace: "ns", LabelSelector: "app=x", ScanOnDeploy: true},
		{Name: "alpha", Namespace: "ns", LabelSelector: "team=core", ScanOnDeploy: true},
	})

	for i := 0; i < 20; i++ {
		def, ok := idx.Lookup("ns", map[string]string{"app": "x", "team": "core"})
		require.True(t, ok)
		assert.Equal(t, "alpha", def.Name)
	}
}

func TestIndex_Definitions(t *testing.T) {
	idx, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	var names []string
	for _, def := range idx.Definitions() {
		names = append(names, def.Namespace+"/"+def.Name)
	}
	assert.Equal(t, []string{"finance/ledger", "retail/billing", "retail/shop"}, names)
}

func TestNilIndex(t *testing.T) {
	var idx *Index
	assert.Equal(t, 0, idx.Len())
	_, ok := idx.Lookup("ns", nil)
	assert.False(t, ok)
	assert.Nil(t, idx.Definitions())
}

type stubSource struct {
	mu   sync.Mutex
	data []byte
	err  error
}

func (s *stubSource) Read(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.err
}

func (s *stubSource) String() string { return "stub" }

func (s *stubSource) set(data string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = []byte(data)
	s.err = err
}

func TestRegistry_Reload(t *testing.T) {
	src := &stubSource{}
	src.set(sampleDocument, nil)
	reg := New(src)

	assert.False(t, reg.Loaded())
	assert.Equal(t, 0, reg.Len())

	require.NoError(t, reg.Reload(context.Background()))
	assert.True(t, reg.Loaded())
	assert.Equal(t, 3, reg.Len())

	def, ok := reg.Lookup("retail", map[string]string{"app": "billing"})
	require.True(t, ok)
	assert.Equal(t, "billing", def.Name)
}

func TestRegistry_ReloadFailureKeepsPreviousGeneration(t *testing.T) {
	src := &stubSource{}
	src.set(sampleDocument, nil)
	reg := New(src)
	require.NoError(t, reg.Reload(context.Background()))
	before := reg.Current()

	src.set("", errors.New("api unavailable"))
	err := reg.Reload(context.Background())
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "stub", loadErr.Source)
	assert.Same(t, before, reg.Current())

	src.set("applications: [broken", nil)
	require.ErrorAs(t, reg.Reload(context.Background()), &loadErr)
	assert.Same(t, before, reg.Current())
	assert.Equal(t, 3, reg.Len())
}

func TestRegistry_OnReplace(t *testing.T) {
	src := &stubSource{}
	src.set(sampleDocument, nil)
	reg := New(src)

	var sizes []int
	reg.OnReplace(func(idx *Index) { sizes = append(sizes, idx.Len()) })

	require.NoError(t, reg.Reload(context.Background()))
	reg.Replace(nil)
	assert.Equal(t, []int{3, 0}, sizes)
}

// Every lookup must observe either the old or the new generation, never a
// mixture of the two.
func TestRegistry_ConcurrentReloadSeesWholeGenerations(t *testing.T) {
	generation := func(n int) string {
		var b strings.Builder
		b.WriteString("applications:\n")
		for i := 0; i < 50; i++ {
			fmt.Fprintf(&b, "  - name: app-%02d\n    namespace: ns\n    labelSelector: app=a%02d,gen=g%d\n    scanOnDeploy: true\n", i, i, n)
		}
		return b.String()
	}

	src := &stubSource{}
	src.set(generation(0), nil)
	reg := New(src)
	require.NoError(t, reg.Reload(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := 1; n <= 20; n++ {
			src.set(generation(n%2), nil)
			_ = reg.Reload(ctx)
		}
		cancel()
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				idx := reg.Current()
				g0, g1 := 0, 0
				for i := 0; i < 50; i++ {
					if _, ok := idx.Lookup("ns", map[string]string{"app": fmt.Sprintf("a%02d", i), "gen": "g0"}); ok {
						g0++
					}
					if _, ok := idx.Lookup("ns", map[string]string{"app": fmt.Sprintf("a%02d", i), "gen": "g1"}); ok {
						g1++
					}
				}
				if !((g0 == 50 && g1 == 0) || (g0 == 0 && g1 == 50)) {
					t.Errorf("observed mixed generation: g0=%d g1=%d", g0, g1)
					return
				}
			}
		}()
	}

	wg.Wait()
}

func newScheme(t *testing.T) *runtime.Scheme {
	t.Helper()
	scheme := runtime.NewScheme()
	require.NoError(t, clientgoscheme.AddToScheme(scheme))
	return scheme
}

func TestConfigMapSource(t *testing.T) {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "bd-selfscan-applications", Namespace: "bd-selfscan-system"},
		Data:       map[string]string{"applications.yaml": sampleDocument},
	}
	c := fake.NewClientBuilder().WithScheme(newScheme(t)).WithObjects(cm).Build()

	src := &ConfigMapSource{Client: c, Namespace: "bd-selfscan-system", Name: "bd-selfscan-applications", Key: "applications.yaml"}
	reg := New(src)
	require.NoError(t, reg.Reload(context.Background()))
	assert.Equal(t, 3, reg.Len())
	assert.Equal(t, "configmap bd-selfscan-system/bd-selfscan-applications[applications.yaml]", src.String())
}

func TestConfigMapSource_Errors(t *testing.T) {
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "apps", Namespace: "sys"},
		Data:       map[string]string{"other.yaml": ""},
	}
	c := fake.NewClientBuilder().WithScheme(newScheme(t)).WithObjects(cm).Build()

	_, err := (&ConfigMapSource{Client: c, Namespace: "sys", Name: "missing", Key: "applications.yaml"}).Read(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	reg := New(&ConfigMapSource{Client: c, Namespace: "sys", Name: "apps", Key: "applications.yaml"})
	require.NoError(t, reg.Reload(context.Background()))
	assert.True(t, reg.Loaded())
	assert.Equal(t, 0, reg.Len())
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "applications.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0644))

	reg := New(&FileSource{Path: path})
	require.NoError(t, reg.Reload(context.Background()))
	assert.Equal(t, 3, reg.Len())

	data, err := (&FileSource{Path: filepath.Join(t.TempDir(), "nope.yaml")}).Read(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, data)

	_, err = (&FileSource{Path: t.TempDir()}).Read(context.Background())
	assert.Error(t, err, "reading a directory must fail")
}

func TestFileWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "applications.yaml")
	require.NoError(t, os.WriteFile(path, []byte("applications: []\n"), 0644))

	reg := New(&FileSource{Path: path})
	require.NoError(t, reg.Reload(context.Background()))
	require.Equal(t, 0, reg.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewFileWatcher(path, 20*time.Millisecond, reg.Reload)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0644))

	assert.Eventually(t, func() bool { return reg.Len() == 3 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("file watcher did not stop")
	}
}

func TestFileWatcher_Relevant(t *testing.T) {
	w := NewFileWatcher("/etc/selfscan/applications.yaml", 0, nil)
	assert.Equal(t, 500*time.Millisecond, w.debounce)

	assert.True(t, w.relevant(fsnotify.Event{Name: "/etc/selfscan/applications.yaml", Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "/etc/selfscan/..data", Op: fsnotify.Create}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/etc/selfscan/other.yaml", Op: fsnotify.Write}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/etc/selfscan/applications.yaml", Op: fsnotify.Chmod}))
}
