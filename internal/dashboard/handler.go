package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mapwatch/internal/logging"
	"mapwatch/internal/mapdetect"
	"mapwatch/internal/poller"
	"mapwatch/internal/sinks"
	"mapwatch/internal/store"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Reader is the read side of the detection store.
type Reader interface {
	Get(ctx context.Context, id int64) (*store.Detection, error)
	List(ctx context.Context, filter store.Filter) ([]store.Detection, error)
	Latest(ctx context.Context) (*store.Detection, error)
	Stats(ctx context.Context, filter store.Filter) (store.Stats, error)
}

// BoardReader exposes the Redis latest-map board and its counters.
type BoardReader interface {
	Board(ctx context.Context) ([]sinks.BoardEntry, error)
	Counters(ctx context.Context) (total, unknown int64, err error)
	MapCounts(ctx context.Context) ([]store.Count, error)
}

// StatusProvider exposes the watch loop progress.
type StatusProvider interface {
	LastCycle() (poller.CycleReport, bool)
	Cycles() int64
}

// Handler implements the dashboard endpoints.
type Handler struct {
	reader    Reader
	catalog   *mapdetect.Catalog
	board     BoardReader
	status    StatusProvider
	framesDir string
	logger    *slog.Logger
}

// HandlerOption configures optional handler collaborators.
type HandlerOption func(*Handler)

// WithBoard enables GET /api/board.
func WithBoard(b BoardReader) HandlerOption {
	return func(h *Handler) { h.board = b }
}

// WithStatus enables GET /api/status and the cycle metrics.
func WithStatus(s StatusProvider) HandlerOption {
	return func(h *Handler) { h.status = s }
}

// WithCatalog overrides the catalog served by GET /api/catalog.
func WithCatalog(c *mapdetect.Catalog) HandlerOption {
	return func(h *Handler) {
		if c != nil {
			h.catalog = c
		}
	}
}

// NewHandler builds a handler. Frames are only served from framesDir.
func NewHandler(reader Reader, framesDir string, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		reader:    reader,
		catalog:   mapdetect.DefaultCatalog(),
		framesDir: framesDir,
		logger:    logging.NewComponentLogger(logger, "dashboard"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListDetections(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	detections, err := h.reader.List(c.Request.Context(), filter)
	if err != nil {
		h.internalError(c, "list detections", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detections": detections, "count": len(detections)})
}

func (h *Handler) GetDetection(c *gin.Context) {
	d, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) Frame(c *gin.Context) {
	d, ok := h.lookup(c)
	if !ok {
		return
	}
	path, err := h.framePath(d.FramePath)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "frame not found"})
		return
	}
	c.File(path)
}

func (h *Handler) Latest(c *gin.Context) {
	d, err := h.reader.Latest(c.Request.Context())
	if err != nil {
		h.internalError(c, "latest detection", err)
		return
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no detections yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detection": d, "known": d.Known()})
}

func (h *Handler) Stats(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	stats, err := h.reader.Stats(c.Request.Context(), filter)
	if err != nil {
		h.internalError(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"labels":  h.catalog.Labels(),
		"entries": h.catalog.Entries(),
	})
}

func (h *Handler) Board(c *gin.Context) {
	if h.board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "redis board disabled"})
		return
	}
	ctx := c.Request.Context()
	entries, err := h.board.Board(ctx)
	if err != nil {
		h.internalError(c, "board", err)
		return
	}
	total, unknown, err := h.board.Counters(ctx)
	if err != nil {
		h.internalError(c, "board counters", err)
		return
	}
	maps, err := h.board.MapCounts(ctx)
	if err != nil {
		h.internalError(c, "board map counts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"board": entries,
		"counters": gin.H{
			"detections_total": total,
			"unknown_total":    unknown,
		},
		"maps": maps,
	})
}

func (h *Handler) Status(c *gin.Context) {
	if h.status == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "watch loop not running in this process"})
		return
	}
	resp := gin.H{"cycles": h.status.Cycles()}
	if last, ok := h.status.LastCycle(); ok {
		resp["last_cycle"] = last
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) bindFilter(c *gin.Context) (store.Filter, bool) {
	filter := store.Filter{
		Streamer: strings.TrimSpace(c.Query("streamer")),
		MapLabel: strings.TrimSpace(c.Query("map")),
		Limit:    defaultListLimit,
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return store.Filter{}, false
		}
		filter.Limit = min(n, maxListLimit)
	}
	return filter, true
}

func (h *Handler) lookup(c *gin.Context) (*store.Detection, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid detection id"})
		return nil, false
	}
	d, err := h.reader.Get(c.Request.Context(), id)
	if err != nil {
		h.internalError(c, "get detection", err)
		return nil, false
	}
	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "detection not found"})
		return nil, false
	}
	return d, true
}

// framePath resolves p and rejects anything outside the frames directory.
func (h *Handler) framePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", errors.New("detection has no frame")
	}
	root, err := filepath.Abs(h.framesDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.New("frame outside frames directory")
	}
	return abs, nil
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	logging.ErrorWithContext(logging.WithContext(c.Request.Context(), h.logger), "dashboard query failed", "dashboard_query_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the storage backend"),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + op})
}
