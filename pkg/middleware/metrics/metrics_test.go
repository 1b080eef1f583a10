package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joeydtaylor/steeze-connect/pkg/dispatch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchObserver(t *testing.T) {
	ok := dispatchTotal.WithLabelValues("math", "add", dispatch.OutcomeOK)
	bad := dispatchTotal.WithLabelValues(unresolved, unresolved, dispatch.OutcomeUnsupported)
	okBefore, badBefore := testutil.ToFloat64(ok), testutil.ToFloat64(bad)

	var obs dispatch.Observer = Dispatch{}
	obs.ObserveDispatch("math", "add", dispatch.OutcomeOK, time.Millisecond)
	obs.ObserveDispatch("math", "mul", dispatch.OutcomeUnsupported, time.Millisecond)
	obs.ObserveDispatch("whatever", "x", dispatch.OutcomeUnsupported, time.Millisecond)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, badBefore+2, testutil.ToFloat64(bad))
}

func TestDispatchObserver_UnavailableDropsCallerLabels(t *testing.T) {
	down := dispatchTotal.WithLabelValues(unresolved, unresolved, dispatch.OutcomeUnavailable)
	before := testutil.ToFloat64(down)

	var obs dispatch.Observer = Dispatch{}
	for _, name := range []string{"a", "b", "c"} {
		obs.ObserveDispatch(name, "op-"+name, dispatch.OutcomeUnavailable, time.Millisecond)
	}

	assert.Equal(t, before+3, testutil.ToFloat64(down))
	for _, name := range []string{"a", "b", "c"} {
		assert.Zero(t, countWithName(t, name), name)
	}
}

// countWithName counts csp_dispatch_total series whose name label equals name.
func countWithName(t *testing.T, name string) int {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	n := 0
	for _, mf := range mfs {
		if mf.GetName() != "csp_dispatch_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "name" && lp.GetValue() == name {
					n++
				}
			}
		}
	}
	return n
}

func TestCollect_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Collect())
	r.Post("/csp/{name}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {})

	c := totalHttpRequestsToUri.WithLabelValues("200", "/csp/{name}", http.MethodPost)
	scrape := totalHttpRequestsToUri.WithLabelValues("200", "/metrics", http.MethodGet)
	before, scrapeBefore := testutil.ToFloat64(c), testutil.ToFloat64(scrape)

	for _, name := range []string{"math", "strings", "anything"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/csp/"+name, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, before+3, testutil.ToFloat64(c))
	assert.Equal(t, scrapeBefore, testutil.ToFloat64(scrape))
}

func TestCollect_SkipPaths(t *testing.T) {
	AddMetricsSkipPaths("/healthz", " ")
	r := chi.NewRouter()
	r.Use(Collect())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {})

	c := totalHttpRequests.WithLabelValues("200", http.MethodGet)
	before := testutil.ToFloat64(c)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, before, testutil.ToFloat64(c))
}
