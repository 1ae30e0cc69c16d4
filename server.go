package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pdfqa/internal/logger"
	"pdfqa/rag"
)

type Server struct {
	session   *rag.Session
	prompt    string // automatic summary prompt
	maxUpload int64
	staticDir string
}

func NewServer(session *rag.Session, prompt string, maxUpload int64, staticDir string) *Server {
	if prompt == "" {
		prompt = rag.SummaryPrompt
	}
	return &Server{
		session:   session,
		prompt:    prompt,
		maxUpload: maxUpload,
		staticDir: staticDir,
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/upload", s.uploadHandler)
	mux.HandleFunc("/upload-pdf", s.uploadPDFHandler)
	mux.HandleFunc("/query", s.queryHandler)
	mux.HandleFunc("/summary", s.summaryHandler)
	mux.HandleFunc("/document", s.documentHandler)
	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	}
	return logRequests(mux)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintln(w, "ok")
}

type segmentJSON struct {
	Seq   int     `json:"seq"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

type queryResponse struct {
	Prompt          string        `json:"prompt"`
	Answer          string        `json:"answer"`
	Document        string        `json:"document"`
	Model           string        `json:"model"`
	ContextSegments int           `json:"context_segments"`
	Segments        []segmentJSON `json:"segments"`
}

func newQueryResponse(res *rag.QueryResult) queryResponse {
	out := queryResponse{
		Prompt:          res.Prompt,
		Answer:          res.Answer,
		Document:        res.Document,
		Model:           res.Model,
		ContextSegments: res.Used,
		Segments:        make([]segmentJSON, 0, len(res.Retrieved)),
	}
	for _, h := range res.Retrieved {
		out.Segments = append(out.Segments, segmentJSON{Seq: h.Segment.Seq, Score: h.Score, Text: h.Segment.Text})
	}
	return out
}

type uploadResponse struct {
	DocumentID    string         `json:"document_id"`
	Filename      string         `json:"filename"`
	SegmentsAdded int            `json:"segments_added"`
	Summary       *queryResponse `json:"summary,omitempty"`
}

// POST /upload?name=notes.txt  (body: raw text)
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.txt"
	}
	s.ingest(w, r, rag.NewDocument(name, body))
}

// POST /upload-pdf  (multipart form, field "file")
func (s *Server) uploadPDFHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}
	s.ingest(w, r, rag.NewDocument(header.Filename, data))
}

// ingest replaces the active document. With ?summarize=true the summary
// prompt is run right away and returned with the upload result.
func (s *Server) ingest(w http.ResponseWriter, r *http.Request, doc rag.Document) {
	idx, err := s.session.Ingest(r.Context(), doc)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := uploadResponse{
		DocumentID:    idx.DocumentID(),
		Filename:      idx.DocumentName(),
		SegmentsAdded: idx.Len(),
	}
	if summarize := r.URL.Query().Get("summarize"); summarize == "1" || summarize == "true" {
		res, err := s.session.QueryIndex(r.Context(), idx, s.prompt, 0)
		if err != nil {
			writeError(w, err)
			return
		}
		qr := newQueryResponse(res)
		resp.Summary = &qr
	}
	writeJSON(w, http.StatusOK, resp)
}

type queryRequest struct {
	Prompt string `json:"prompt"`
	Query  string `json:"query"` // alias for prompt
	K      int    `json:"k"`
}

// POST /query  { "prompt": "your question", "k": 3 }
func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = req.Query
	}
	if strings.TrimSpace(prompt) == "" {
		http.Error(w, "prompt is required", http.StatusBadRequest)
		return
	}

	res, err := s.session.Query(r.Context(), prompt, req.K)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newQueryResponse(res))
}

// POST /summary  runs the configured summary prompt
func (s *Server) summaryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res, err := s.session.Query(r.Context(), s.prompt, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newQueryResponse(res))
}

// GET /document
func (s *Server) documentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	idx := s.session.Current()
	if idx == nil {
		writeError(w, rag.ErrNoDocument)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": idx.DocumentID(),
		"filename":    idx.DocumentName(),
		"segments":    idx.Len(),
		"model":       idx.Model(),
		"dimension":   idx.Dimension(),
		"indexed_at":  idx.CreatedAt().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response: %v", err)
	}
}

// writeError maps core errors to status codes; the message goes to the client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var pe *rag.ProviderError
	switch {
	case errors.Is(err, rag.ErrParse), errors.Is(err, rag.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, rag.ErrNoDocument), errors.Is(err, rag.ErrEmbeddingMismatch), errors.Is(err, rag.ErrSuperseded):
		status = http.StatusConflict
	case errors.As(err, &pe), errors.Is(err, rag.ErrEmbedding), errors.Is(err, rag.ErrCompletion):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
