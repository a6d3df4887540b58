package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"pyrochain/core"
	"pyrochain/native/emission"
	"pyrochain/native/nodepool"
	"pyrochain/storage"
)

const testToken = "test-token"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := core.Config{
		Schedule: emission.Schedule{
			BaseReward:    big.NewInt(100),
			HalvingPeriod: 1 << 30,
		},
		Pool: nodepool.DefaultPool(),
		Params: core.Params{
			MinBurn:        big.NewInt(10),
			MaxSingleBurn:  big.NewInt(1_000_000),
			MaxTotalPower:  big.NewInt(1_000_000_000),
			MaxClaimDays:   30,
			CalcWindowDays: 365,
			TickSeconds:    3600,
			StartYear:      2025,
		},
	}
	engine, err := core.NewEngine(storage.NewMemDB(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, engine.Start())
	return &Server{engine: engine, authToken: testToken}
}

func call(t *testing.T, s *Server, method string, params interface{}, token string) (*RPCResponse, int) {
	t.Helper()
	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	httpReq := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handle(rec, httpReq)
	resp := &RPCResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
	return resp, rec.Code
}

func mustOK(t *testing.T, s *Server, method string, params interface{}) *RPCResponse {
	t.Helper()
	resp, status := call(t, s, method, params, testToken)
	require.Nil(t, resp.Error, "method %s: %+v", method, resp.Error)
	require.Equal(t, http.StatusOK, status)
	return resp
}

const (
	userAddr   = "0x0000000000000000000000000000000000000001"
	collabAddr = "0x00000000000000000000000000000000000000c8"
	nullAddr   = "0x0000000000000000000000000000000000000000"
)

func setupBoundUser(t *testing.T, s *Server) {
	t.Helper()
	mustOK(t, s, "admin_setCollaborator", map[string]interface{}{"address": collabAddr})
	mustOK(t, s, "nft_notifyTransfer", map[string]interface{}{
		"caller": collabAddr, "from": nullAddr, "to": userAddr, "tokenId": 1,
	})
	mustOK(t, s, "pyro_bindToken", map[string]interface{}{"address": userAddr, "tokenId": 1})
	mustOK(t, s, "admin_deposit", map[string]interface{}{"address": userAddr, "amount": "1000"})
}

func TestMutatingMethodsRequireAuth(t *testing.T) {
	s := newTestServer(t)
	for _, method := range []string{"pyro_burn", "pyro_claim", "admin_pause", "nft_notifyTransfer"} {
		resp, status := call(t, s, method, map[string]interface{}{}, "")
		require.Equal(t, http.StatusUnauthorized, status, method)
		require.NotNil(t, resp.Error, method)
		require.Equal(t, codeUnauthorized, resp.Error.Code, method)
	}
	resp, status := call(t, s, "pyro_burn", map[string]interface{}{}, "wrong-token")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)
}

func TestQueriesAreOpen(t *testing.T) {
	s := newTestServer(t)
	resp, status := call(t, s, "pyro_getGlobal", nil, "")
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)
	result, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	global := &GlobalResult{}
	require.NoError(t, json.Unmarshal(result, global))
	require.True(t, global.Started)
}

func TestMethodNotFound(t *testing.T) {
	s := newTestServer(t)
	resp, status := call(t, s, "pyro_unknown", nil, "")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestBurnFlowOverRPC(t *testing.T) {
	s := newTestServer(t)
	setupBoundUser(t, s)
	mustOK(t, s, "pyro_burn", map[string]interface{}{"address": userAddr, "amount": "100"})

	resp := mustOK(t, s, "pyro_getUser", map[string]interface{}{"address": userAddr})
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	user := &UserResult{}
	require.NoError(t, json.Unmarshal(raw, user))
	require.Equal(t, "100", user.Power.String())
	require.Equal(t, "900", user.Balance.String())
	require.Equal(t, uint64(1), user.TokenID)
}

func TestRejectionsMapToRejectedCode(t *testing.T) {
	s := newTestServer(t)
	setupBoundUser(t, s)
	resp, status := call(t, s, "pyro_burn", map[string]interface{}{"address": userAddr, "amount": "5"}, testToken)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeRejected, resp.Error.Code)
}

func TestInvalidAddressRejected(t *testing.T) {
	s := newTestServer(t)
	resp, status := call(t, s, "pyro_getUser", map[string]interface{}{"address": "not-an-address"}, "")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestMalformedRequests(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name string
		body string
		code int
	}{
		{"empty", "", codeInvalidRequest},
		{"garbage", "{not json", codeParseError},
		{"version", `{"jsonrpc":"1.0","method":"pyro_getGlobal","id":1}`, codeInvalidRequest},
		{"nomethod", `{"jsonrpc":"2.0","id":1}`, codeInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			httpReq := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(tc.body)))
			rec := httptest.NewRecorder()
			s.handle(rec, httpReq)
			resp := &RPCResponse{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
			require.NotNil(t, resp.Error)
			require.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestBulkImportOverRPC(t *testing.T) {
	cfg := core.Config{
		Schedule: emission.Schedule{
			BaseReward:    big.NewInt(100),
			HalvingPeriod: 1 << 30,
		},
		Pool: nodepool.DefaultPool(),
		Params: core.Params{
			MinBurn:        big.NewInt(10),
			MaxSingleBurn:  big.NewInt(1_000_000),
			MaxTotalPower:  big.NewInt(1_000_000_000),
			MaxClaimDays:   30,
			CalcWindowDays: 365,
			TickSeconds:    3600,
			StartYear:      2025,
		},
	}
	engine, err := core.NewEngine(storage.NewMemDB(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	s := &Server{engine: engine, authToken: testToken}

	entries := []ImportEntryParam{
		{Address: userAddr, Power: "500", BurnTotal: "500", TokenID: 7},
	}
	resp := mustOK(t, s, "admin_bulkImport", map[string]interface{}{"entries": entries})
	require.Equal(t, float64(1), resp.Result)

	mustOK(t, s, "admin_start", nil)
	resp, status := call(t, s, "admin_bulkImport", map[string]interface{}{"entries": entries}, testToken)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeRejected, resp.Error.Code)
}

func TestEventsQuery(t *testing.T) {
	s := newTestServer(t)
	setupBoundUser(t, s)
	mustOK(t, s, "pyro_burn", map[string]interface{}{"address": userAddr, "amount": "100"})
	resp := mustOK(t, s, "pyro_getEvents", nil)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var events []EventResult
	require.NoError(t, json.Unmarshal(raw, &events))
	var sawBurn bool
	for _, evt := range events {
		if evt.Type == "engine.burn" {
			sawBurn = true
			require.Equal(t, "100", evt.Attributes["amount"])
		}
	}
	require.True(t, sawBurn, "burn event missing: %v", events)
}
