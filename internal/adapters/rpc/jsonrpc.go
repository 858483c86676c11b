package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"maskvault/go-backend/internal/identity"
	"maskvault/go-backend/internal/masks"
	"maskvault/go-backend/internal/securestore"
	"maskvault/go-backend/internal/storage"
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

const maxRPCBodyBytes int64 = 1 << 20 // 1 MiB

const (
	codeInvalidParams = -32602
	codeUnauthorized  = -32001
	codeInvariant     = -32002
	codeSeed          = -32003
	codeStorage       = -32010
	codeInternal      = -32000
)

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeRPC(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRPCBodyBytes)
	var req rpcRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeRPC(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32700, Message: "parse error"},
		})
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeRPCInvalidRequest(w, req.ID)
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeRPCInvalidRequest(w, req.ID)
		return
	}

	reqID := fmt.Sprintf("rpc_%d", time.Now().UnixNano())
	started := time.Now()
	slog.Default().Info("rpc request", "request_id", reqID, "method", req.Method)

	result, rpcErr := s.dispatch(r.Context(), req.Method, req.Params)
	if rpcErr != nil {
		slog.Default().Error("rpc failed", "request_id", reqID, "method", req.Method, "rpc_code", rpcErr.Code, "latency_ms", time.Since(started).Milliseconds())
	} else {
		slog.Default().Info("rpc response", "request_id", reqID, "method", req.Method, "latency_ms", time.Since(started).Milliseconds())
	}
	writeRPC(w, rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	})
}

// mapError translates domain errors into JSON-RPC error codes. The
// message carries the sentinel chain; internals never leak stack detail.
func mapError(err error) *rpcError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errInvalidParams), errors.Is(err, masks.ErrInvalidInput):
		return &rpcError{Code: codeInvalidParams, Message: err.Error()}
	case errors.Is(err, masks.ErrUnauthorized):
		return &rpcError{Code: codeUnauthorized, Message: err.Error()}
	case errors.Is(err, masks.ErrInvariant):
		return &rpcError{Code: codeInvariant, Message: err.Error()}
	case errors.Is(err, identity.ErrInvalidPassword),
		errors.Is(err, identity.ErrInvalidMnemonic),
		errors.Is(err, identity.ErrPasswordRequired),
		errors.Is(err, identity.ErrMnemonicRequired),
		errors.Is(err, identity.ErrPasswordLocked),
		errors.Is(err, identity.ErrSeedLocked),
		errors.Is(err, identity.ErrSeedNotAvailable),
		errors.Is(err, identity.ErrSeedExists):
		return &rpcError{Code: codeSeed, Message: err.Error()}
	case errors.Is(err, storage.ErrStateCorrupted),
		errors.Is(err, securestore.ErrAuthFailed),
		errors.Is(err, securestore.ErrInvalid):
		return &rpcError{Code: codeStorage, Message: err.Error()}
	default:
		return &rpcError{Code: codeInternal, Message: err.Error()}
	}
}

func writeRPC(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeRPCInvalidRequest(w http.ResponseWriter, id json.RawMessage) {
	writeRPC(w, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: -32600, Message: "invalid request"},
	})
}
