package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sir_venger/chunkmerge/internal/app/uploadhttp"
	"github.com/sir_venger/chunkmerge/internal/metrics"
	meta "github.com/sir_venger/chunkmerge/internal/repo"
	"github.com/sir_venger/chunkmerge/internal/upload"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	URL     string
	Root    string
	Journal *meta.MemoryStore
}

func newEnv(t *testing.T) testEnv {
	t.Helper()
	root := t.TempDir()
	journal := meta.NewMemoryStore()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	svc, err := upload.New(upload.Deps{Root: root, Journal: journal, Metrics: m, MergeWorkers: 4})
	require.NoError(t, err)

	s := httptest.NewServer(uploadhttp.New(svc, uploadhttp.Options{Metrics: m, Gatherer: reg}))
	t.Cleanup(s.Close)

	return testEnv{URL: s.URL, Root: root, Journal: journal}
}
