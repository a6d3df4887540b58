package rpc

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pyrochain/core"
	"pyrochain/native/boost"
	"pyrochain/native/nodepool"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRejected       = -32030
)

// Server exposes the engine over JSON-RPC 2.0. Mutating methods require the
// bearer token from PYRO_RPC_TOKEN; queries and ticks are open.
type Server struct {
	engine    *core.Engine
	authToken string

	mu   sync.Mutex
	http *http.Server
}

func NewServer(engine *core.Engine) *Server {
	token := strings.TrimSpace(os.Getenv("PYRO_RPC_TOKEN"))
	return &Server{
		engine:    engine,
		authToken: token,
	}
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps engine rejections onto stable RPC codes so clients
// can distinguish an invalid call from a refused one.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidParam), errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	case errors.Is(err, core.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case isRejection(err):
		writeError(w, http.StatusOK, id, codeRejected, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}

func isRejection(err error) bool {
	for _, sentinel := range []error{
		core.ErrPaused, core.ErrNotStarted, core.ErrAlreadyStarted,
		core.ErrBelowMinBurn, core.ErrAboveMaxBurn, core.ErrPowerCeiling,
		core.ErrInsufficientBalance, core.ErrInsufficientPool,
		core.ErrEventActive, core.ErrEventInactive,
		core.ErrNotBound, core.ErrAlreadyBound, core.ErrTokenUsed,
		core.ErrTokenNotHeld, core.ErrZeroToken, core.ErrCollaboratorUnset,
		core.ErrImportClosed, core.ErrReentrant,
		boost.ErrUnderpayment, boost.ErrAlreadyEntered, boost.ErrNoPower,
		boost.ErrMultiplierUnder, boost.ErrTotalPowerZero,
		nodepool.ErrSeatOutOfRange, nodepool.ErrUnauthorizedAddr,
		nodepool.ErrSeatAddressUnset, nodepool.ErrNothingToClaim,
		nodepool.ErrWithdrawnExceeds,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	if requiresAuth(req.Method) {
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
	}

	switch req.Method {
	case "pyro_tick":
		s.handleTick(w, req)
	case "pyro_burn":
		s.handleBurn(w, req)
	case "pyro_eventBurn":
		s.handleEventBurn(w, req)
	case "pyro_claim":
		s.handleClaim(w, req)
	case "pyro_previewClaim":
		s.handlePreviewClaim(w, req)
	case "pyro_bindToken":
		s.handleBindToken(w, req)
	case "pyro_nodeClaim":
		s.handleNodeClaim(w, req)
	case "pyro_getGlobal":
		s.handleGetGlobal(w, req)
	case "pyro_getUser":
		s.handleGetUser(w, req)
	case "pyro_getBalance":
		s.handleGetBalance(w, req)
	case "pyro_getPowerOn":
		s.handleGetPowerOn(w, req)
	case "pyro_getTotalPowerOn":
		s.handleGetTotalPowerOn(w, req)
	case "pyro_getPowerHistory":
		s.handleGetPowerHistory(w, req)
	case "pyro_getRelation":
		s.handleGetRelation(w, req)
	case "pyro_getNodeSeat":
		s.handleGetNodeSeat(w, req)
	case "pyro_getHoldings":
		s.handleGetHoldings(w, req)
	case "pyro_isTokenUsed":
		s.handleIsTokenUsed(w, req)
	case "pyro_getEvents":
		s.handleGetEvents(w, req)
	case "nft_notifyTransfer":
		s.handleNotifyTransfer(w, req)
	case "admin_start":
		s.handleAdminStart(w, req)
	case "admin_pause":
		s.handleAdminPause(w, req)
	case "admin_unpause":
		s.handleAdminUnpause(w, req)
	case "admin_setCollaborator":
		s.handleAdminSetCollaborator(w, req)
	case "admin_setEventOverride":
		s.handleAdminSetEventOverride(w, req)
	case "admin_setBurnBounds":
		s.handleAdminSetBurnBounds(w, req)
	case "admin_setCalcWindow":
		s.handleAdminSetCalcWindow(w, req)
	case "admin_setMaxClaimDays":
		s.handleAdminSetMaxClaimDays(w, req)
	case "admin_setNodeSeat":
		s.handleAdminSetNodeSeat(w, req)
	case "admin_deposit":
		s.handleAdminDeposit(w, req)
	case "admin_establishRelation":
		s.handleAdminEstablishRelation(w, req)
	case "admin_bulkImport":
		s.handleAdminBulkImport(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %s not found", req.Method), nil)
	}
}

func requiresAuth(method string) bool {
	if strings.HasPrefix(method, "admin_") || strings.HasPrefix(method, "nft_") {
		return true
	}
	switch method {
	case "pyro_burn", "pyro_eventBurn", "pyro_claim", "pyro_bindToken", "pyro_nodeClaim":
		return true
	}
	return false
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}
