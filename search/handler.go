// Package search expõe POST /api/search.json. A busca em si é delegada a um
// content.SearchService; aqui ficam só a validação do corpo e a forma da resposta.
package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"docsearch-gateway/content"
	"docsearch-gateway/httpjson"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	DefaultLimit          = 10
	DefaultMaxLimit       = 20
	DefaultMaxQueryLength = 500

	// MaxBodyBytes limita o corpo lido. Acima disso a request vira "Invalid JSON".
	MaxBodyBytes = 64 << 10
)

// Mensagens devolvidas ao cliente.
const (
	msgInvalidJSON   = "Invalid JSON"
	msgQueryRequired = "Query parameter is required"
	msgQueryType     = "Query must be a string"
	msgQueryTooLong  = "Query too long"
	msgSearchFailed  = "Search failed"
	msgSearchDetail  = "An error occurred while processing your search"
)

type Options struct {
	Service        content.SearchService
	DefaultLimit   int
	MaxLimit       int
	MaxQueryLength int
	Embedding      content.EmbeddingOptions
	Logger         *zap.Logger
}

// Request é o corpo aceito. Os campos ficam crus para distinguir ausência, tipo
// errado e valor vazio.
type Request struct {
	Query json.RawMessage `json:"query"`
	Limit json.RawMessage `json:"limit"`
}

type Response struct {
	Results []content.SearchResult `json:"results"`
	Count   int                    `json:"count"`
	Query   string                 `json:"query"`
}

type Handler struct {
	svc          content.SearchService
	defaultLimit int
	maxLimit     int
	maxQueryLen  int
	embedding    content.EmbeddingOptions
	logger       *zap.Logger
}

func NewHandler(opts Options) *Handler {
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = DefaultMaxLimit
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	opts.DefaultLimit = min(opts.DefaultLimit, opts.MaxLimit)
	if opts.MaxQueryLength <= 0 {
		opts.MaxQueryLength = DefaultMaxQueryLength
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Handler{
		svc:          opts.Service,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
		maxQueryLen:  opts.MaxQueryLength,
		embedding:    opts.Embedding,
		logger:       opts.Logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := decode(w, r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, msgInvalidJSON, "")
		return
	}

	query, msg := h.parseQuery(req.Query)
	if msg != "" {
		httpjson.Error(w, http.StatusBadRequest, msg, "")
		return
	}
	limit := h.parseLimit(req.Limit)

	results, err := h.svc.Search(r.Context(), query, content.SearchOptions{
		Limit:     limit,
		Embedding: h.embedding,
	})
	if err != nil {
		h.logger.Error("search failed",
			zap.Error(err),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int("query_len", utf8.RuneCountInString(query)),
			zap.Int("limit", limit),
		)
		httpjson.Error(w, http.StatusInternalServerError, msgSearchFailed, msgSearchDetail)
		return
	}
	if results == nil {
		results = []content.SearchResult{}
	}
	// tags é sempre lista no JSON, nunca null.
	for i := range results {
		if results[i].Tags == nil {
			results[i].Tags = []string{}
		}
	}

	httpjson.Write(w, http.StatusOK, Response{
		Results: results,
		Count:   len(results),
		Query:   query,
	})
}

func decode(w http.ResponseWriter, r *http.Request) (Request, error) {
	var req Request
	if r.Body == nil {
		return req, errors.New("empty body")
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return req, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return req, errors.New("body is not a JSON object")
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}
	return req, nil
}

// parseQuery devolve a consulta aparada, ou a mensagem de erro para o cliente.
func (h *Handler) parseQuery(raw json.RawMessage) (string, string) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", msgQueryRequired
	}
	var q string
	if err := json.Unmarshal(raw, &q); err != nil {
		return "", msgQueryType
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return "", msgQueryRequired
	}
	if utf8.RuneCountInString(q) > h.maxQueryLen {
		return "", msgQueryTooLong
	}
	return q, ""
}

// parseLimit aceita número ou string numérica. Valor ilegível cai no padrão;
// o resto é truncado e limitado a [1, maxLimit].
func (h *Handler) parseLimit(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return h.defaultLimit
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return h.defaultLimit
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return h.defaultLimit
		}
	}

	f = math.Trunc(f)
	switch {
	case f < 1:
		return 1
	case f > float64(h.maxLimit):
		return h.maxLimit
	}
	return int(f)
}

// MethodNotAllowed responde 405 para qualquer método que não seja POST.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	httpjson.Error(w, http.StatusMethodNotAllowed, "Method not allowed", "")
}
