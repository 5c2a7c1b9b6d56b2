package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/venturelab/adsgw/internal/logger"
	"github.com/venturelab/adsgw/internal/toolhost"
)

var logHandlers = logger.New("server:handlers")

// InfoResponse is the body of GET /api/info.
type InfoResponse struct {
	Client     string `json:"client"`
	CustomerID string `json:"customer_id"`
	MCCID      string `json:"mcc_id"`
	Tool       string `json:"tool"`
	Version    string `json:"version,omitempty"`
}

// SearchResponse is the body of a successful POST /api/search.
type SearchResponse struct {
	Result any `json:"result"`
}

// ErrorResponse is the body of every failed /api call.
type ErrorResponse struct {
	Error string `json:"error"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	logHandlers.Printf("Info request: remote=%s", r.RemoteAddr)
	writeJSON(w, http.StatusOK, InfoResponse{
		Client:     s.opts.ClientName,
		CustomerID: s.opts.CustomerID,
		MCCID:      s.opts.LoginCustomerID,
		Tool:       s.searcher.SearchTool(),
		Version:    s.opts.Version,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req toolhost.SearchRequest
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		logHandlers.Printf("Rejecting search body: %v", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	logHandlers.Printf("Search request: request_id=%s, resource=%s", requestIDFrom(r.Context()), req.Resource)
	result, err := s.searcher.Search(r.Context(), req, s.opts.CustomerID)
	if err != nil {
		status := searchErrorStatus(err)
		logger.LogWarn("server", "Search failed: request_id=%s, status=%d, error=%v", requestIDFrom(r.Context()), status, err)
		if status == http.StatusBadGateway {
			logRuntimeError("search_failed", err.Error(), r)
		}
		writeError(w, status, err.Error())
		return
	}

	if shape, err := resultShape(result); err == nil {
		logger.LogDebug("search", "Result shape: request_id=%s, shape=%s", requestIDFrom(r.Context()), shape)
	} else {
		logHandlers.Printf("Failed to compute result shape: %v", err)
	}

	writeJSON(w, http.StatusOK, SearchResponse{Result: result})
}

// searchErrorStatus maps the invoker's errors onto HTTP statuses. Every
// failure that reached the tool host surfaces as 502.
func searchErrorStatus(err error) int {
	if errors.Is(err, toolhost.ErrInvalidSearch) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to encode response: %v", err)
		status = http.StatusInternalServerError
		data = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
