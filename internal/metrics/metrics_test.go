package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/metta/pkg/cancel"
	"github.com/aretw0/metta/pkg/domain"
	"github.com/aretw0/metta/pkg/engine"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ engine.Observer = (*Collector)(nil)

func TestCollector_Outcomes(t *testing.T) {
	c := NewCollector()

	ok := domain.Values([][]string{{"3"}})
	ok.Duration = 20 * time.Millisecond
	c.ObserveOutcome(ok)
	c.ObserveOutcome(ok)
	c.ObserveOutcome(domain.Cancelled())

	assert.Equal(t, 2.0, testutil.ToFloat64(c.evaluations.WithLabelValues("values")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.evaluations.WithLabelValues("cancelled")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestCollector_Interrupts(t *testing.T) {
	c := NewCollector()

	c.ObserveInterrupt(cancel.Idle, cancel.ClearInput)
	c.ObserveInterrupt(cancel.EvaluationInFlight, cancel.CancelEvaluation)
	c.ObserveInterrupt(cancel.EvaluationInFlight, cancel.Escalate)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.interrupts.WithLabelValues("idle", "clear_input")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.interrupts.WithLabelValues("evaluation_in_flight", "escalate")))
}

func TestCollector_Workers(t *testing.T) {
	c := NewCollector()

	c.WorkerAbandoned()
	c.WorkerAbandoned()
	c.WorkerReclaimed()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.abandoned))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.late))
}

func TestHandler(t *testing.T) {
	c := NewCollector()
	c.ObserveOutcome(domain.Values(nil))
	srv := httptest.NewServer(NewHandler(c))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `metta_evaluations_total{outcome="values"} 1`)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok\n", string(body))
}

func TestServer_Lifecycle(t *testing.T) {
	s, err := Start("127.0.0.1:0", NewCollector(), nil)
	require.NoError(t, err)

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancelFn := context.WithTimeout(context.Background(), time.Second)
	defer cancelFn()
	require.NoError(t, s.Shutdown(ctx))

	_, err = http.Get("http://" + s.Addr() + "/healthz")
	assert.Error(t, err)
}

func TestStart_BadAddress(t *testing.T) {
	_, err := Start("not-an-address", NewCollector(), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "metrics listen"))
}
