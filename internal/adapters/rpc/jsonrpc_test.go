package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"maskvault/go-backend/internal/app"
	"maskvault/go-backend/internal/identity"
	"maskvault/go-backend/internal/storage"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	t.Setenv(requireRPCTokenEnv, "false")
	if opts.Service == nil {
		svc, err := app.NewService(context.Background(), app.ServiceOptions{
			Store: storage.NewMemStateStore(),
			Seeds: identity.NewSeedManager(),
		})
		if err != nil {
			t.Fatalf("build service: %v", err)
		}
		if _, err := svc.CreateIdentity(context.Background(), "test-password"); err != nil {
			t.Fatalf("create identity: %v", err)
		}
		opts.Service = svc
	}
	s := NewServer(opts)
	if s.initErr != nil {
		t.Fatalf("unexpected init error: %v", s.initErr)
	}
	return s
}

func rpcCall(t *testing.T, s *Server, body string, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Maskd-RPC-Token", token)
	}
	rec := httptest.NewRecorder()
	s.handleRPC(rec, req)
	return rec
}

func decodeRPCResponse(t *testing.T, rec *httptest.ResponseRecorder) rpcResponse {
	t.Helper()
	var resp rpcResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode rpc response: %v", err)
	}
	return resp
}

func resultMap(t *testing.T, resp rpcResponse) map[string]any {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", resp.Error)
	}
	m, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("expected map result, got %#v", resp.Result)
	}
	return m
}

func TestHealthzContract(t *testing.T) {
	s := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health payload: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status=ok, got %q", body["status"])
	}
}

func TestHealthCheckMethod(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := rpcCall(t, s, `{"jsonrpc":"2.0","id":1,"method":"health_check","params":{}}`, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	m := resultMap(t, decodeRPCResponse(t, rec))
	if m["status"] != "ok" {
		t.Fatalf("expected status=ok, got %v", m["status"])
	}
}

func TestRejectsRequestWithoutToken(t *testing.T) {
	svc := newTestServer(t, Options{}).service
	t.Setenv(requireRPCTokenEnv, "true")
	t.Setenv(rpcTokenEnv, "secret-token")
	s := NewServer(Options{Service: svc})
	if s.initErr != nil {
		t.Fatalf("unexpected init error: %v", s.initErr)
	}

	rec := rpcCall(t, s, `{"jsonrpc":"2.0","id":1,"method":"health_check","params":{}}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}

	rec = rpcCall(t, s, `{"jsonrpc":"2.0","id":1,"method":"health_check","params":{}}`, "secret-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d with token, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequireTokenWithoutValueFailsInit(t *testing.T) {
	t.Setenv(requireRPCTokenEnv, "true")
	t.Setenv(rpcTokenEnv, "")

	svc := newTestServer(t, Options{}).service
	t.Setenv(requireRPCTokenEnv, "true")
	s := NewServer(Options{Service: svc})
	if s.initErr == nil {
		t.Fatal("expected init error when token is required but unset")
	}
}

func TestRejectsNonPost(t *testing.T) {
	s := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/rpc", nil)
	rec := httptest.NewRecorder()
	s.handleRPC(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestParseErrorAndInvalidRequest(t *testing.T) {
	s := newTestServer(t, Options{})

	resp := decodeRPCResponse(t, rpcCall(t, s, `{broken`, ""))
	if resp.Error == nil || resp.Error.Code != -32700 {
		t.Fatalf("expected parse error -32700, got %+v", resp.Error)
	}

	resp = decodeRPCResponse(t, rpcCall(t, s, `{"jsonrpc":"1.0","id":1,"method":"health_check"}`, ""))
	if resp.Error == nil || resp.Error.Code != -32600 {
		t.Fatalf("expected invalid request -32600, got %+v", resp.Error)
	}

	resp = decodeRPCResponse(t, rpcCall(t, s, `{"jsonrpc":"2.0","id":1,"method":"health_check"}{}`, ""))
	if resp.Error == nil || resp.Error.Code != -32600 {
		t.Fatalf("expected trailing data rejection, got %+v", resp.Error)
	}
}

func TestMethodNotFound(t *testing.T) {
	s := newTestServer(t, Options{})

	resp := decodeRPCResponse(t, rpcCall(t, s, `{"jsonrpc":"2.0","id":1,"method":"mask.unknown","params":{}}`, ""))
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Fatalf("expected method not found, got %+v", resp.Error)
	}
}

func TestUnknownParamFieldRejected(t *testing.T) {
	s := newTestServer(t, Options{})

	resp := decodeRPCResponse(t, rpcCall(t, s, `{"jsonrpc":"2.0","id":1,"method":"mask.add","params":{"origin":"a.example","bogus":true}}`, ""))
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", resp.Error)
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	s := newTestServer(t, Options{})

	huge := fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"health_check","params":{"x":%q}}`, strings.Repeat("a", int(maxRPCBodyBytes)))
	rec := rpcCall(t, s, huge, "")
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status %d, got %d", http.StatusRequestEntityTooLarge, rec.Code)
	}
}

func TestMaskLifecycleOverRPC(t *testing.T) {
	s := newTestServer(t, Options{})

	m := resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"mask.add","params":{"origin":"Site.Example"}}`, "")))
	if m["origin"] != "site.example" {
		t.Fatalf("expected normalized origin, got %v", m["origin"])
	}
	if m["address"] == "" {
		t.Fatal("expected mask address")
	}

	m = resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":2,"method":"mask.list","params":{"origin":"site.example"}}`, "")))
	list, ok := m["masks"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("expected one mask, got %#v", m["masks"])
	}

	m = resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":3,"method":"session.login","params":{"origin":"site.example","derivation_origin":"site.example","identity_index":0}}`, "")))
	if m["origin"] != "site.example" {
		t.Fatalf("expected session for site.example, got %v", m)
	}

	m = resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":4,"method":"session.status","params":{"origin":"site.example"}}`, "")))
	if m["authenticated"] != true {
		t.Fatalf("expected authenticated=true, got %v", m)
	}

	m = resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":5,"method":"mask.sign","params":{"origin":"site.example","message":"aGVsbG8="}}`, "")))
	if m["signature"] == "" || m["public_key"] == "" {
		t.Fatalf("expected signature payload, got %v", m)
	}

	m = resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":6,"method":"session.logout","params":{"origin":"site.example"}}`, "")))
	if m["performed"] != true {
		t.Fatalf("expected logout performed, got %v", m)
	}
}

func TestLinkFlowOverRPC(t *testing.T) {
	s := newTestServer(t, Options{})

	resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"mask.add","params":{"origin":"hub.example"}}`, "")))

	m := resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":2,"method":"link.add","params":{"grantor":"hub.example","grantee":"spoke.example"}}`, "")))
	if m["performed"] != true {
		t.Fatalf("expected link performed, got %v", m)
	}

	m = resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":3,"method":"link.exists","params":{"grantor":"hub.example","grantee":"spoke.example"}}`, "")))
	if m["exists"] != true {
		t.Fatalf("expected link to exist, got %v", m)
	}

	m = resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":4,"method":"link.remove","params":{"origin":"hub.example","other_origin":"spoke.example"}}`, "")))
	if m["performed"] != true {
		t.Fatalf("expected unlink performed, got %v", m)
	}

	m = resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":5,"method":"link.exists","params":{"grantor":"hub.example","grantee":"spoke.example"}}`, "")))
	if m["exists"] != false {
		t.Fatalf("expected link removed, got %v", m)
	}
}

func TestSelfLinkMapsToInvalidParams(t *testing.T) {
	s := newTestServer(t, Options{})

	resp := decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"link.add","params":{"grantor":"same.example","grantee":"same.example"}}`, ""))
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params for self link, got %+v", resp.Error)
	}
}

func TestUnauthorizedLoginMapsToUnauthorizedCode(t *testing.T) {
	s := newTestServer(t, Options{})

	resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"mask.add","params":{"origin":"keeper.example"}}`, "")))

	resp := decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":2,"method":"session.login","params":{"origin":"stranger.example","derivation_origin":"keeper.example","identity_index":0}}`, ""))
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized code, got %+v", resp.Error)
	}
}

func TestLockedSeedMapsToSeedCode(t *testing.T) {
	s := newTestServer(t, Options{})

	resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"seed.lock","params":{}}`, "")))

	resp := decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":2,"method":"mask.add","params":{"origin":"site.example"}}`, ""))
	if resp.Error == nil || resp.Error.Code != codeSeed {
		t.Fatalf("expected seed code for locked seed, got %+v", resp.Error)
	}
}

func TestSeedStatusAndValidate(t *testing.T) {
	s := newTestServer(t, Options{})

	resp := decodeRPCResponse(t, rpcCall(t, s, `{"jsonrpc":"2.0","id":1,"method":"seed.status","params":{}}`, ""))
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", resp.Error)
	}
	status, ok := resp.Result.(map[string]any)
	if !ok || status["exists"] != true || status["unlocked"] != true {
		t.Fatalf("expected existing unlocked seed, got %#v", resp.Result)
	}

	m := resultMap(t, decodeRPCResponse(t, rpcCall(t, s,
		`{"jsonrpc":"2.0","id":2,"method":"seed.validate","params":{"mnemonic":"not a mnemonic"}}`, "")))
	if m["valid"] != false {
		t.Fatalf("expected invalid mnemonic verdict, got %v", m)
	}
}

func TestRateLimitReturns429(t *testing.T) {
	s := newTestServer(t, Options{RateLimitRPS: 1, RateLimitBurst: 1})

	rec := rpcCall(t, s, `{"jsonrpc":"2.0","id":1,"method":"health_check","params":{}}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rec.Code)
	}
	rec = rpcCall(t, s, `{"jsonrpc":"2.0","id":2,"method":"health_check","params":{}}`, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, rec.Code)
	}
}
