// Package server exposes the scan, analysis and trash boundary to the
// browser UI over a small JSON API.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"photosweep/internal/catalog"
	"photosweep/internal/cluster"
	"photosweep/internal/models"
	"photosweep/internal/pipeline"
	"photosweep/internal/trash"
)

//go:embed static/*
var staticFiles embed.FS

// Server serves the web UI for one project root. All collaborators are
// injected; there is no hidden shared state beyond the catalog database
// and the trash sidecars on disk.
type Server struct {
	root     string
	catalog  *catalog.Catalog
	pipeline *pipeline.Pipeline
	ledger   *trash.Ledger
	logger   *slog.Logger

	port        int
	idleTimeout time.Duration
	threshold   float64
	httpServer  *http.Server

	mu           sync.Mutex
	lastActivity time.Time
	shutdownChan chan struct{}
}

// Config bundles the server dependencies.
type Config struct {
	Root        string
	Catalog     *catalog.Catalog
	Pipeline    *pipeline.Pipeline
	Port        int
	IdleTimeout time.Duration
	Threshold   float64
	Logger      *slog.Logger
}

// New creates a new Server
func New(cfg Config) (*Server, error) {
	if cfg.Catalog == nil || cfg.Pipeline == nil {
		return nil, errors.New("server requires a catalog and a pipeline")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ledger, err := trash.NewLedger(afero.NewOsFs(), cfg.Root, trash.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &Server{
		root:         cfg.Root,
		catalog:      cfg.Catalog,
		pipeline:     cfg.Pipeline,
		ledger:       ledger,
		logger:       logger,
		port:         cfg.Port,
		idleTimeout:  cfg.IdleTimeout,
		threshold:    cfg.Threshold,
		lastActivity: time.Now(),
		shutdownChan: make(chan struct{}),
	}, nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/groups", s.handleGroups)
	mux.HandleFunc("GET /api/progress", s.handleProgress)
	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("GET /api/trash", s.handleTrashStatus)
	mux.HandleFunc("POST /api/trash", s.handleTrash)
	mux.HandleFunc("POST /api/restore", s.handleRestore)
	mux.HandleFunc("POST /api/trash/empty", s.handleEmptyTrash)
	mux.HandleFunc("GET /api/image", s.handleImage)
	mux.HandleFunc("GET /api/thumbnail", s.handleThumbnail)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return err
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	if s.idleTimeout > 0 {
		go s.idleTimeoutChecker()
	}
	go s.handleShutdownSignals()

	err = s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleShutdownSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		s.logger.Info("shutting down server")
	case <-s.shutdownChan:
		s.logger.Info("idle timeout reached, shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.httpServer.Shutdown(ctx)
	s.catalog.Close()
}

func (s *Server) idleTimeoutChecker() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			idle := time.Since(s.lastActivity)
			s.mu.Unlock()

			// A running scan counts as activity.
			if s.pipeline.Progress().Active {
				s.recordActivity()
				continue
			}
			if idle >= s.idleTimeout {
				close(s.shutdownChan)
				return
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *Server) recordActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// API handlers

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	s.recordActivity()

	groups, err := s.catalog.DuplicateGroups()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, group := range groups {
		cluster.Rank(group)
	}
	s.writeJSON(w, groups)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.pipeline.Progress())
}

// handleScan starts a scan of the project root in the background. A scan
// already in flight is rejected with 409; it is never queued.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	s.recordActivity()

	var req struct {
		Threshold float64 `json:"threshold,omitempty"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = s.threshold
	}

	if s.pipeline.Progress().Active {
		http.Error(w, models.ErrScanInProgress.Error(), http.StatusConflict)
		return
	}

	go func() {
		if err := s.runScan(threshold); err != nil {
			if errors.Is(err, models.ErrScanInProgress) {
				return
			}
			s.logger.Error("scan failed", "root", s.root, "error", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	s.writeJSON(w, map[string]string{"status": "started"})
}

func (s *Server) runScan(threshold float64) error {
	records, err := s.pipeline.Scan(context.Background(), s.root)
	if err != nil {
		return err
	}

	analysis := s.pipeline.Analyze(records, threshold)
	if err := s.catalog.SavePhotos(records); err != nil {
		return err
	}
	if err := s.catalog.UpdateGroups(analysis.Groups); err != nil {
		return err
	}

	result := summarize(s.root, records, analysis)
	return s.catalog.RecordScan(s.root, result, threshold)
}

func summarize(root string, records []*models.PhotoRecord, analysis *models.AnalysisResult) *models.ScanResult {
	result := &models.ScanResult{
		Root:         root,
		TotalScanned: len(records),
		TotalGroups:  len(analysis.Groups),
	}
	for _, g := range analysis.Groups {
		result.TotalDuplicates += len(g.PhotoIDs) - 1
	}
	for _, rec := range records {
		if rec.Blurry {
			result.TotalBlurry++
		}
	}
	return result
}

func (s *Server) handleTrashStatus(w http.ResponseWriter, r *http.Request) {
	s.recordActivity()

	status, err := s.ledger.Status()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, status)
}

func (s *Server) handleTrash(w http.ResponseWriter, r *http.Request) {
	s.recordActivity()

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var records []*models.PhotoRecord
	for _, id := range req.IDs {
		rec, err := s.catalog.PhotoByID(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if rec != nil {
			records = append(records, rec)
		}
	}

	entries := s.ledger.MoveToTrash(records)
	for _, entry := range entries {
		if err := s.catalog.DeletePhoto(entry.ID); err != nil {
			s.logger.Warn("failed to remove trashed photo from catalog", "id", entry.ID, "error", err)
		}
	}

	s.writeJSON(w, map[string]any{
		"trashed": len(entries),
		"skipped": len(req.IDs) - len(entries),
		"entries": entries,
	})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	s.recordActivity()

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	restored, err := s.ledger.Restore(req.IDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]any{
		"restored": restored,
		"skipped":  len(req.IDs) - restored,
	})
}

func (s *Server) handleEmptyTrash(w http.ResponseWriter, r *http.Request) {
	s.recordActivity()

	result, err := s.ledger.Empty()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, result)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	s.recordActivity()
	rec := s.photoFromQuery(w, r)
	if rec == nil {
		return
	}
	http.ServeFile(w, r, rec.Path)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	s.recordActivity()
	rec := s.photoFromQuery(w, r)
	if rec == nil {
		return
	}
	thumb := pipeline.ThumbPath(filepath.Join(s.root, pipeline.ThumbDirName), rec.ID)
	if _, err := os.Stat(thumb); err != nil {
		// No thumbnail yet; fall back to the original.
		http.ServeFile(w, r, rec.Path)
		return
	}
	http.ServeFile(w, r, thumb)
}

func (s *Server) photoFromQuery(w http.ResponseWriter, r *http.Request) *models.PhotoRecord {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return nil
	}
	rec, err := s.catalog.PhotoByID(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil
	}
	if rec == nil {
		http.Error(w, "unknown photo id", http.StatusNotFound)
		return nil
	}
	return rec
}
