package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonesheet/internal/app"
	"zonesheet/internal/config"
	apperrors "zonesheet/internal/errors"
	"zonesheet/internal/shared/testutil"
)

func newRuntime(t *testing.T) *app.Runtime {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.ExecutableDir = t.TempDir()
	cfg.Locator.RPS = 1000
	cfg.Locator.Burst = 100
	rt, err := app.New("locator", cfg)
	require.NoError(t, err)
	logger, _ := testutil.NewTestLogger(t)
	rt.Logger = logger
	t.Cleanup(func() { rt.Close(context.Background()) })
	return rt
}

func docServer(t *testing.T, names ...string) *httptest.Server {
	t.Helper()
	exists := make(map[string]bool)
	for _, n := range names {
		exists["/docs/"+n] = true
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if exists[r.URL.Path] {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunPrintsURLsAndWritesReport(t *testing.T) {
	srv := docServer(t, "00000-00399.pdf")
	rt := newRuntime(t)

	var out bytes.Buffer
	err := run(context.Background(), rt, options{baseURL: srv.URL + "/docs", codes: []string{"00150", "00210", "00450"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/docs/00000-00399.pdf\n", out.String())

	data, err := os.ReadFile(rt.Paths.GetReportPath(reportFile))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "00150,00000-00399,"+srv.URL+"/docs/00000-00399.pdf")
	assert.Contains(t, text, "00210,00000-00399,")
	assert.True(t, strings.Contains(text, "00450,,"), "uncovered code listed without a block")
}

func TestRunMappingCodes(t *testing.T) {
	srv := docServer(t, "00500-00599.pdf")
	rt := newRuntime(t)
	mappings := testutil.WriteWorkbook(t, t.TempDir(), "ssl.xlsx", map[string][][]any{
		"Sheet1": {{"Name", "Postal Code", "SSL"}, {"Holtsville", "00501", "NYC1"}},
	})

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), rt, options{baseURL: srv.URL + "/docs", mappings: mappings}, &out))
	assert.Equal(t, srv.URL+"/docs/00500-00599.pdf\n", out.String())
}

func TestRunRequiresBaseURLAndCodes(t *testing.T) {
	rt := newRuntime(t)
	err := run(context.Background(), rt, options{codes: []string{"00150"}}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	err = run(context.Background(), rt, options{baseURL: "http://127.0.0.1:1"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"00150", "00210"}, splitList("00150, 00210,"))
}
