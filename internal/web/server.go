// Package web serves the latest AUM report and a live report stream.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/coinops/aumfetch/internal/domain"
)

const reportPollInterval = 2 * time.Second

type reportReader interface {
	Latest() (domain.AumReport, bool, error)
	ReportsAfter(index uint64) ([]domain.AumReportRecord, error)
}

// Server exposes HTTP endpoints serving the report JSON and an SSE stream.
type Server struct {
	Addr    string
	Store   reportReader
	Domains []string
	CertDir string
}

// NewServer creates a new web server instance. When domains are provided the
// server terminates TLS with autocert certificates cached under certDir.
func NewServer(addr string, store reportReader, domains []string, certDir string) *Server {
	return &Server{Addr: addr, Store: store, Domains: domains, CertDir: certDir}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/report/latest", s.handleLatest)
	mux.HandleFunc("/report/stream", s.handleStream)

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	var err error
	if len(s.Domains) > 0 {
		manager := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(s.Domains...),
			Cache:      autocert.DirCache(s.CertDir),
		}
		server.TLSConfig = &tls.Config{GetCertificate: manager.GetCertificate}
		err = server.ListenAndServeTLS("", "")
	} else {
		err = server.ListenAndServe()
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "report store not available", http.StatusServiceUnavailable)
		return
	}

	report, ok, err := s.Store.Latest()
	if err != nil {
		http.Error(w, "failed to load latest report", http.StatusInternalServerError)
		log.Printf("latest report load: %v", err)
		return
	}
	if !ok {
		http.Error(w, "no reports yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		log.Printf("encode latest report: %v", err)
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "report store not available", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// comment heartbeat every 30s so proxies keep the connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(reportPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	sendReports := func() error {
		records, err := s.Store.ReportsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Report)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: report\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendReports(); err != nil {
		http.Error(w, "failed to load reports", http.StatusInternalServerError)
		log.Printf("report stream initial load: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendReports(); err != nil {
				log.Printf("report stream poll: %v", err)
				return
			}
		}
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>aumfetch</title>
<style>
body { font-family: monospace; background: #101014; color: #d8d8d8; margin: 2rem; }
h1 { color: #f2a900; }
pre { background: #18181f; padding: 1rem; border-radius: 6px; overflow-x: auto; }
</style>
</head>
<body>
<h1>aumfetch</h1>
<p>Latest AUM valuation:</p>
<pre id="report">waiting for reports...</pre>
<script>
const pre = document.getElementById('report');
fetch('/report/latest').then(r => r.ok ? r.json() : null).then(data => {
  if (data) pre.textContent = JSON.stringify(data, null, 2);
});
const source = new EventSource('/report/stream');
source.addEventListener('report', ev => {
  pre.textContent = JSON.stringify(JSON.parse(ev.data), null, 2);
});
</script>
</body>
</html>
`
