package api_test

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypernode-network/hypernode/api"
	"github.com/hypernode-network/hypernode/app/ledger"
	testconfig "github.com/hypernode-network/hypernode/testutil/config"
	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

var (
	testRequirements = "Qm" + strings.Repeat("r", 44)
	testResultHash   = "Qm" + strings.Repeat("o", 44)
)

func init() {
	gin.SetMode(gin.TestMode)
}

type signer struct {
	pub  types.PublicKey
	priv ed25519.PrivateKey
}

func newSigner(t *testing.T) signer {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return signer{pub: types.PublicKeyFromEd25519(pub), priv: priv}
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	now     time.Time
}

func setupTestServer(t *testing.T, mutations ...func(*types.Config)) *testServer {
	t.Helper()
	cfg := testconfig.Rebuild(t, mutations...)
	ts := &testServer{t: t, now: time.Unix(1_700_000_000, 0).UTC()}

	l, err := ledger.Open(dbm.NewMemDB(), cfg, log.NewNopLogger(),
		ledger.WithClock(func() time.Time { return ts.now }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	apiCfg := api.DefaultConfig()
	apiCfg.Clock = func() time.Time { return ts.now }
	ts.handler = api.NewServer(l, cfg, apiCfg, log.NewNopLogger()).Handler()
	return ts
}

// do sends body signed by s. A nil signer sends no auth headers.
func (ts *testServer) do(method, path string, s *signer, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(ts.t, err)
	}
	return ts.doRaw(method, path, s, raw)
}

func (ts *testServer) doRaw(method, path string, s *signer, raw []byte) *httptest.ResponseRecorder {
	ts.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if s != nil {
		for name, value := range s.headers(method, req.URL.Path, ts.now.Unix(), raw) {
			req.Header.Set(name, value)
		}
	}
	return ts.serve(req)
}

func (ts *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// headers returns the auth headers for one request.
func (s signer) headers(method, path string, timestamp int64, raw []byte) map[string]string {
	return map[string]string{
		api.HeaderSigner:    s.pub.String(),
		api.HeaderTimestamp: strconv.FormatInt(timestamp, 10),
		api.HeaderSignature: api.SignRequest(func(b []byte) []byte {
			return ed25519.Sign(s.priv, b)
		}, method, path, timestamp, raw),
	}
}

// withHeaders builds a request carrying previously produced auth headers.
func withHeaders(method, path string, raw []byte, headers map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) api.ErrorResponse {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	resp := decode[api.ErrorResponse](t, rec)
	require.Equal(t, code, resp.Code)
	return resp
}

type txResponse struct {
	Address types.Address   `json:"address"`
	Record  json.RawMessage `json:"record"`
	Events  []types.Event   `json:"events"`
}

func TestRequestIDIsGenerated(t *testing.T) {
	ts := setupTestServer(t)
	rec := ts.do(http.MethodGet, "/v1/config", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(api.HeaderRequestID))
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := setupTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/config", nil)
	req.Header.Set(api.HeaderRequestID, "req-123")
	rec := ts.serve(req)
	require.Equal(t, "req-123", rec.Header().Get(api.HeaderRequestID))
}

func TestHealthIsLeftToHealthServer(t *testing.T) {
	ts := setupTestServer(t)
	rec := ts.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/jobs", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	ts := setupTestServer(t)
	operator, client, orchestrator := newSigner(t), newSigner(t), newSigner(t)

	rec := ts.do(http.MethodPost, "/v1/splitter", &orchestrator, types.DefaultShares())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/v1/nodes", &operator, api.RegisterNodeRequest{
		NodeID:            "gpu-1",
		GPUSpecsHash:      "h100-80gb",
		Location:          "us-east",
		MaxConcurrentJobs: 4,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	nodeAddr := decode[txResponse](t, rec).Address
	require.Equal(t, types.NodeAddress(operator.pub, "gpu-1"), nodeAddr)

	rec = ts.do(http.MethodPost, "/v1/jobs", &client, map[string]interface{}{
		"job_id":            "job-1",
		"job_type":          "llm_inference",
		"price":             "1000000",
		"requirements_hash": testRequirements,
		"definition":        map[string]interface{}{"model": "llama-3-8b", "params": map[string]interface{}{}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[txResponse](t, rec)
	jobAddr := created.Address
	require.Equal(t, types.JobAddress(client.pub, "job-1"), jobAddr)
	require.NotEmpty(t, created.Events)

	rec = ts.do(http.MethodPost, "/v1/jobs/"+jobAddr.String()+"/assign", &orchestrator, api.AssignJobRequest{
		NodeOwner: operator.pub,
		NodeID:    "gpu-1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// only the assigned operator may submit
	rec = ts.do(http.MethodPost, "/v1/jobs/"+jobAddr.String()+"/result", &client, map[string]interface{}{
		"result_hash": testResultHash,
		"result":      map[string]string{"output": "42"},
	})
	requireError(t, rec, http.StatusForbidden, "UNAUTHORIZED")

	rec = ts.do(http.MethodPost, "/v1/jobs/"+jobAddr.String()+"/result", &operator, map[string]interface{}{
		"result_hash": testResultHash,
		"logs_url":    "https://logs.example/1",
		"result":      map[string]string{"output": "42"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, "/v1/jobs/"+jobAddr.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	job := decode[types.Job](t, rec)
	require.Equal(t, types.JobStatusCompleted, job.Status)
	require.True(t, job.PaymentSettled)

	rec = ts.do(http.MethodGet, "/v1/nodes/"+nodeAddr.String(), nil, nil)
	node := decode[types.Node](t, rec)
	require.Equal(t, "780000", node.TotalEarned.String())
	require.Equal(t, uint64(1), node.JobsCompleted)

	rec = ts.do(http.MethodGet, "/v1/splitter", nil, nil)
	splitter := decode[types.SplitterConfig](t, rec)
	require.Equal(t, "110000", splitter.TreasuryBalance.String())

	// a second submission is refused and changes nothing
	rec = ts.do(http.MethodPost, "/v1/jobs/"+jobAddr.String()+"/result", &operator, map[string]interface{}{
		"result_hash": testResultHash,
		"result":      map[string]string{"output": "42"},
	})
	requireError(t, rec, http.StatusConflict, "ALREADY_SETTLED")

	rec = ts.do(http.MethodGet, "/v1/jobs?status=completed", nil, nil)
	require.Len(t, decode[[]types.Job](t, rec), 1)
	rec = ts.do(http.MethodGet, "/v1/jobs?status=pending", nil, nil)
	require.Empty(t, decode[[]types.Job](t, rec))
}

func TestOwnerNodeOperations(t *testing.T) {
	ts := setupTestServer(t)
	operator := newSigner(t)

	rec := ts.do(http.MethodPost, "/v1/nodes", &operator, api.RegisterNodeRequest{
		NodeID: "gpu-1", GPUSpecsHash: "a100", Location: "eu-west", MaxConcurrentJobs: 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/v1/own/nodes/gpu-1/status", &operator, map[string]string{"status": "offline"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, "/v1/eligible-nodes", nil, nil)
	require.Empty(t, decode[[]types.Node](t, rec))

	rec = ts.do(http.MethodPost, "/v1/own/nodes/gpu-1/status", &operator, map[string]string{"status": "slashed"})
	requireError(t, rec, http.StatusForbidden, "UNAUTHORIZED_STATUS")

	ts.now = ts.now.Add(time.Minute)
	rec = ts.do(http.MethodPost, "/v1/own/nodes/gpu-1/heartbeat", &operator, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// a heartbeat brings an offline node back
	rec = ts.do(http.MethodPost, "/v1/own/nodes/gpu-1/status", &operator, map[string]string{"status": "online"})
	requireError(t, rec, http.StatusBadRequest, "STATUS_UNCHANGED")

	rec = ts.do(http.MethodGet, "/v1/eligible-nodes?location=eu-west", nil, nil)
	require.Len(t, decode[[]types.Node](t, rec), 1)

	rec = ts.do(http.MethodDelete, "/v1/own/nodes/gpu-1", &operator, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, "/v1/nodes", nil, nil)
	require.Empty(t, decode[[]types.Node](t, rec))
}

func TestStakeOverHTTP(t *testing.T) {
	ts := setupTestServer(t)
	staker := newSigner(t)

	rec := ts.do(http.MethodPost, "/v1/stakes", &staker, map[string]interface{}{
		"stake_id":         "s1",
		"amount":           "1000000000",
		"duration_seconds": 14 * types.SecondsPerDay,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stakeAddr := decode[txResponse](t, rec).Address

	rec = ts.do(http.MethodGet, "/v1/stakes/"+stakeAddr.String()+"/pending", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "0", decode[api.PendingRewardsResponse](t, rec).Pending.String())

	rec = ts.do(http.MethodPost, "/v1/own/stakes/s1/unstake", &staker, nil)
	requireError(t, rec, http.StatusBadRequest, "STAKE_LOCKED")

	rec = ts.do(http.MethodGet, "/v1/pool", nil, nil)
	pool := decode[types.RewardPool](t, rec)
	require.Equal(t, "1000000000", pool.TotalStaked.String())
	require.Equal(t, uint64(1), pool.TotalStakers)
}

func TestSignedTxRejections(t *testing.T) {
	ts := setupTestServer(t)
	client := newSigner(t)
	validJob := map[string]interface{}{
		"job_id":            "job-1",
		"price":             "1000000",
		"requirements_hash": testRequirements,
	}

	t.Run("missing signer", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/v1/jobs", nil, validJob)
		requireError(t, rec, http.StatusUnauthorized, "MISSING_SIGNER")
	})

	t.Run("invalid signer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/jobs", strings.NewReader("{}"))
		req.Header.Set(api.HeaderSigner, "not-a-key")
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		requireError(t, rec, http.StatusBadRequest, "INVALID_PUBLIC_KEY")
	})

	t.Run("signature over other body", func(t *testing.T) {
		raw, err := json.Marshal(validJob)
		require.NoError(t, err)
		headers := client.headers(http.MethodPost, "/v1/jobs", ts.now.Unix(), []byte("{}"))
		rec := ts.serve(withHeaders(http.MethodPost, "/v1/jobs", raw, headers))
		requireError(t, rec, http.StatusUnauthorized, "INVALID_SIGNATURE")
	})

	t.Run("missing timestamp", func(t *testing.T) {
		raw, err := json.Marshal(validJob)
		require.NoError(t, err)
		headers := client.headers(http.MethodPost, "/v1/jobs", ts.now.Unix(), raw)
		delete(headers, api.HeaderTimestamp)
		rec := ts.serve(withHeaders(http.MethodPost, "/v1/jobs", raw, headers))
		requireError(t, rec, http.StatusUnauthorized, "TIMESTAMP_OUT_OF_RANGE")
	})

	t.Run("timestamp in the future", func(t *testing.T) {
		raw, err := json.Marshal(validJob)
		require.NoError(t, err)
		headers := client.headers(http.MethodPost, "/v1/jobs", ts.now.Add(10*time.Minute).Unix(), raw)
		rec := ts.serve(withHeaders(http.MethodPost, "/v1/jobs", raw, headers))
		requireError(t, rec, http.StatusUnauthorized, "TIMESTAMP_OUT_OF_RANGE")
	})

	t.Run("body too large", func(t *testing.T) {
		rec := ts.doRaw(http.MethodPost, "/v1/jobs", &client, bytes.Repeat([]byte(" "), 2000))
		resp := requireError(t, rec, http.StatusRequestEntityTooLarge, "TRANSACTION_TOO_LARGE")
		require.NotEmpty(t, resp.Hint)
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := ts.doRaw(http.MethodPost, "/v1/jobs", &client, []byte(`{"job_id":`))
		requireError(t, rec, http.StatusBadRequest, "MALFORMED_REQUEST")
	})

	t.Run("unknown job type", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/v1/jobs", &client, map[string]interface{}{
			"job_id":            "job-2",
			"job_type":          "mining",
			"price":             "1000000",
			"requirements_hash": testRequirements,
		})
		requireError(t, rec, http.StatusBadRequest, "INVALID_JOB_TYPE")
	})

	t.Run("null definition", func(t *testing.T) {
		rec := ts.doRaw(http.MethodPost, "/v1/jobs", &client,
			[]byte(`{"job_id":"job-3","price":"1000000","requirements_hash":"`+testRequirements+`","definition":null}`))
		requireError(t, rec, http.StatusBadRequest, "NULL_JOB_DEF")
	})

	t.Run("budget below minimum", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/v1/jobs", &client, map[string]interface{}{
			"job_id":            "job-4",
			"price":             "10",
			"requirements_hash": testRequirements,
		})
		resp := requireError(t, rec, http.StatusBadRequest, "JOB_BUDGET_TOO_SMALL")
		require.NotEmpty(t, resp.Hint)
	})

	t.Run("bad path address", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/v1/jobs/xyz/cancel", &client, nil)
		requireError(t, rec, http.StatusBadRequest, "INVALID_ADDRESS")
	})
}

func TestSignatureIsBoundToRequest(t *testing.T) {
	ts := setupTestServer(t)
	operator := newSigner(t)

	rec := ts.do(http.MethodPost, "/v1/nodes", &operator, api.RegisterNodeRequest{
		NodeID: "gpu-1", GPUSpecsHash: "a100", Location: "eu-west", MaxConcurrentJobs: 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	nodePath := "/v1/nodes/" + types.NodeAddress(operator.pub, "gpu-1").String()

	ts.now = ts.now.Add(time.Minute)
	heartbeat := operator.headers(http.MethodPost, "/v1/own/nodes/gpu-1/heartbeat", ts.now.Unix(), nil)
	rec = ts.serve(withHeaders(http.MethodPost, "/v1/own/nodes/gpu-1/heartbeat", nil, heartbeat))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"deregister", http.MethodDelete, "/v1/own/nodes/gpu-1"},
		{"other node", http.MethodPost, "/v1/own/nodes/gpu-2/heartbeat"},
		{"claim", http.MethodPost, "/v1/own/stakes/s1/claim"},
		{"unstake", http.MethodPost, "/v1/own/stakes/s1/unstake"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.serve(withHeaders(tt.method, tt.path, nil, heartbeat))
			requireError(t, rec, http.StatusUnauthorized, "INVALID_SIGNATURE")
		})
	}

	rec = ts.do(http.MethodGet, nodePath, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the same headers go stale once the window has passed
	ts.now = ts.now.Add(6 * time.Minute)
	rec = ts.serve(withHeaders(http.MethodPost, "/v1/own/nodes/gpu-1/heartbeat", nil, heartbeat))
	requireError(t, rec, http.StatusUnauthorized, "TIMESTAMP_OUT_OF_RANGE")

	rec = ts.do(http.MethodPost, "/v1/own/nodes/gpu-1/heartbeat", &operator, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSplitterSharesOutOfRange(t *testing.T) {
	ts := setupTestServer(t)
	authority := newSigner(t)

	bodies := map[string]string{
		"negative operator":   `{"operator":-10,"treasury":100,"incentive":5,"orchestrator":5}`,
		"operator above 255":  `{"operator":300,"treasury":-100,"incentive":-50,"orchestrator":-50}`,
		"treasury above 100":  `{"operator":0,"treasury":150,"incentive":-25,"orchestrator":-25}`,
		"sum is not hundred":  `{"operator":80,"treasury":10,"incentive":5,"orchestrator":4}`,
		"orchestrator at 256": `{"operator":0,"treasury":0,"incentive":0,"orchestrator":256}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rec := ts.doRaw(http.MethodPost, "/v1/splitter", &authority, []byte(body))
			requireError(t, rec, http.StatusBadRequest, "InvalidSharePercentages")
		})
	}

	rec := ts.doRaw(http.MethodPost, "/v1/splitter", &authority, []byte(`{"operator":"80"}`))
	requireError(t, rec, http.StatusBadRequest, "MALFORMED_REQUEST")

	rec = ts.do(http.MethodPost, "/v1/splitter", &authority, types.DefaultShares())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.doRaw(http.MethodPut, "/v1/splitter", &authority, []byte(`{"operator":-5,"treasury":95,"incentive":5,"orchestrator":5}`))
	requireError(t, rec, http.StatusBadRequest, "InvalidSharePercentages")

	rec = ts.do(http.MethodGet, "/v1/splitter", nil, nil)
	require.Equal(t, types.DefaultShares(), decode[types.SplitterConfig](t, rec).Shares)
}

func TestUnsignedRequestsWhenVerificationDisabled(t *testing.T) {
	ts := setupTestServer(t, func(c *types.Config) {
		c.Security.RequireSignerVerification = false
	})
	client := newSigner(t)

	raw, err := json.Marshal(map[string]interface{}{
		"job_id":            "job-1",
		"price":             "1000000",
		"requirements_hash": testRequirements,
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", bytes.NewReader(raw))
	req.Header.Set(api.HeaderSigner, client.pub.String())
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRateLimitPerSigner(t *testing.T) {
	ts := setupTestServer(t, func(c *types.Config) {
		c.Security.RateLimit = 2
	})
	a, b := newSigner(t), newSigner(t)

	for i := 0; i < 2; i++ {
		rec := ts.do(http.MethodPost, "/v1/own/nodes/missing/heartbeat", &a, nil)
		requireError(t, rec, http.StatusNotFound, "NODE_NOT_FOUND")
	}
	rec := ts.do(http.MethodPost, "/v1/own/nodes/missing/heartbeat", &a, nil)
	requireError(t, rec, http.StatusTooManyRequests, "RATE_LIMITED")

	// other signers keep their own budget
	rec = ts.do(http.MethodPost, "/v1/own/nodes/missing/heartbeat", &b, nil)
	requireError(t, rec, http.StatusNotFound, "NODE_NOT_FOUND")
}

func TestQueries(t *testing.T) {
	ts := setupTestServer(t)
	owner := newSigner(t)

	t.Run("unknown job", func(t *testing.T) {
		addr := types.JobAddress(owner.pub, "nope")
		rec := ts.do(http.MethodGet, "/v1/jobs/"+addr.String(), nil, nil)
		requireError(t, rec, http.StatusNotFound, "JOB_NOT_FOUND")
	})

	t.Run("splitter before init", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/v1/splitter", nil, nil)
		requireError(t, rec, http.StatusNotFound, "SPLITTER_NOT_INITIALIZED")
	})

	t.Run("bad status filter", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/v1/nodes?status=asleep", nil, nil)
		requireError(t, rec, http.StatusBadRequest, "INVALID_NODE_STATUS")
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/v1/jobs?limit=-1", nil, nil)
		requireError(t, rec, http.StatusBadRequest, "MALFORMED_REQUEST")
	})

	t.Run("multiplier", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/v1/multiplier?amount=100000000&duration=1209600", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Equal(t, uint64(1000), decode[api.MultiplierResponse](t, rec).Multiplier)

		rec = ts.do(http.MethodGet, "/v1/multiplier?amount=100000000&duration=60", nil, nil)
		requireError(t, rec, http.StatusBadRequest, "DURATION_TOO_SHORT")

		rec = ts.do(http.MethodGet, "/v1/multiplier?amount=abc&duration=60", nil, nil)
		requireError(t, rec, http.StatusBadRequest, "NOT_INTEGER")
	})

	t.Run("derived address", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/v1/address/job?owner="+owner.pub.String()+"&id=job-9", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Equal(t, types.JobAddress(owner.pub, "job-9"), decode[api.AddressResponse](t, rec).Address)

		rec = ts.do(http.MethodGet, "/v1/address/splitter_config", nil, nil)
		require.Equal(t, types.SplitterConfigAddress(), decode[api.AddressResponse](t, rec).Address)

		rec = ts.do(http.MethodGet, "/v1/address/bogus", nil, nil)
		requireError(t, rec, http.StatusBadRequest, "MALFORMED_REQUEST")
	})

	t.Run("config is sanitized", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/v1/config", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		cfg := decode[map[string]interface{}](t, rec)
		require.True(t, strings.HasSuffix(cfg["rpc_url"].(string), "..."))
	})
}
