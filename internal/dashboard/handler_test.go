package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"mapwatch/internal/dashboard"
	"mapwatch/internal/logging"
	"mapwatch/internal/mapdetect"
	"mapwatch/internal/poller"
	"mapwatch/internal/sinks"
	"mapwatch/internal/store"
)

type fakeBoard struct {
	entries []sinks.BoardEntry
	total   int64
	unknown int64
	maps    []store.Count
	err     error
}

func (f *fakeBoard) Board(context.Context) ([]sinks.BoardEntry, error) {
	return f.entries, f.err
}

func (f *fakeBoard) Counters(context.Context) (int64, int64, error) {
	return f.total, f.unknown, f.err
}

func (f *fakeBoard) MapCounts(context.Context) ([]store.Count, error) {
	return f.maps, f.err
}

type fakeStatus struct {
	cycles int64
	last   *poller.CycleReport
}

func (f *fakeStatus) LastCycle() (poller.CycleReport, bool) {
	if f.last == nil {
		return poller.CycleReport{}, false
	}
	return *f.last, true
}

func (f *fakeStatus) Cycles() int64 { return f.cycles }

func writePNG(path string) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	f, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	Expect(png.Encode(f, img)).To(Succeed())
}

var _ = Describe("Dashboard", func() {
	var (
		ctx       context.Context
		st        *store.SQLiteStore
		framesDir string
		router    *gin.Engine
		base      time.Time
	)

	serve := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	insert := func(streamer, label string, offset time.Duration, score int) store.Detection {
		d := store.Detection{
			Streamer:   streamer,
			DetectedAt: base.Add(offset),
			MapLabel:   label,
			FramePath:  filepath.Join(framesDir, streamer+".png"),
			Score:      score,
		}
		Expect(st.Insert(ctx, &d)).To(Succeed())
		return d
	}

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		ctx = context.Background()
		base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

		dir, err := os.MkdirTemp("", "mapwatch-dashboard-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		framesDir = filepath.Join(dir, "frames")
		Expect(os.MkdirAll(framesDir, 0o755)).To(Succeed())

		st, err = store.OpenSQLite(ctx, filepath.Join(dir, "detections.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(st.Close)

		router = dashboard.NewRouter(dashboard.NewHandler(st, framesDir, logging.NewNop()))
	})

	Describe("GET /healthz", func() {
		It("reports ok", func() {
			w := serve("/healthz")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"ok"`))
		})
	})

	Describe("GET /api/detections", func() {
		BeforeEach(func() {
			insert("sypherpk", "Yggsgard Yggdrasill Path", 0, 175)
			insert("sypherpk", mapdetect.UnknownMap, time.Minute, 0)
			insert("necros", "Tokyo 2099 Shin-Shibuya", 2*time.Minute, 140)
		})

		It("returns detections newest first", func() {
			w := serve("/api/detections")
			Expect(w.Code).To(Equal(http.StatusOK))

			var body struct {
				Detections []store.Detection `json:"detections"`
				Count      int               `json:"count"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Count).To(Equal(3))
			Expect(body.Detections[0].Streamer).To(Equal("necros"))
			Expect(body.Detections[2].MapLabel).To(Equal("Yggsgard Yggdrasill Path"))
		})

		It("filters by streamer and map", func() {
			w := serve("/api/detections?streamer=sypherpk&map=Unknown%20Map")
			Expect(w.Code).To(Equal(http.StatusOK))

			var body struct {
				Detections []store.Detection `json:"detections"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Detections).To(HaveLen(1))
			Expect(body.Detections[0].Known()).To(BeFalse())
		})

		It("honours the limit", func() {
			w := serve("/api/detections?limit=1")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"count":1`))
		})

		It("rejects a bad limit", func() {
			Expect(serve("/api/detections?limit=zero").Code).To(Equal(http.StatusBadRequest))
			Expect(serve("/api/detections?limit=-4").Code).To(Equal(http.StatusBadRequest))
		})

		It("returns an empty list rather than null", func() {
			w := serve("/api/detections?streamer=nobody")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"detections":[]`))
		})
	})

	Describe("GET /api/detections/:id", func() {
		It("returns 404 for a missing id", func() {
			Expect(serve("/api/detections/42").Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a malformed id", func() {
			Expect(serve("/api/detections/abc").Code).To(Equal(http.StatusBadRequest))
		})

		It("returns a stored detection", func() {
			d := insert("sypherpk", "Klyntar Symbiotic Surface", 0, 150)
			w := serve("/api/detections/" + itoa(d.ID))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"map":"Klyntar Symbiotic Surface"`))
		})
	})

	Describe("GET /api/detections/:id/frame", func() {
		It("serves the stored frame", func() {
			d := insert("sypherpk", "Klyntar Symbiotic Surface", 0, 150)
			writePNG(d.FramePath)

			w := serve("/api/detections/" + itoa(d.ID) + "/frame")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("image/png"))
		})

		It("returns 404 when the file was pruned", func() {
			d := insert("sypherpk", "Klyntar Symbiotic Surface", 0, 150)
			Expect(serve("/api/detections/" + itoa(d.ID) + "/frame").Code).To(Equal(http.StatusNotFound))
		})

		It("refuses paths outside the frames directory", func() {
			d := store.Detection{
				Streamer:   "sypherpk",
				DetectedAt: base,
				MapLabel:   "Klyntar Symbiotic Surface",
				FramePath:  "/etc/passwd",
				Score:      150,
			}
			Expect(st.Insert(ctx, &d)).To(Succeed())
			Expect(serve("/api/detections/" + itoa(d.ID) + "/frame").Code).To(Equal(http.StatusForbidden))
		})
	})

	Describe("GET /api/latest", func() {
		It("returns 404 when nothing is stored", func() {
			Expect(serve("/api/latest").Code).To(Equal(http.StatusNotFound))
		})

		It("prefers the newest identified map", func() {
			insert("sypherpk", "Yggsgard Yggdrasill Path", 0, 175)
			insert("necros", mapdetect.UnknownMap, time.Minute, 0)

			w := serve("/api/latest")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"map":"Yggsgard Yggdrasill Path"`))
			Expect(w.Body.String()).To(ContainSubstring(`"known":true`))
		})

		It("falls back to an unknown detection", func() {
			insert("necros", mapdetect.UnknownMap, 0, 0)

			w := serve("/api/latest")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"known":false`))
		})
	})

	Describe("GET /api/stats", func() {
		It("aggregates the detection log", func() {
			insert("sypherpk", "Yggsgard Yggdrasill Path", 0, 175)
			insert("sypherpk", "Yggsgard Yggdrasill Path", time.Minute, 175)
			insert("necros", mapdetect.UnknownMap, 2*time.Minute, 0)

			w := serve("/api/stats")
			Expect(w.Code).To(Equal(http.StatusOK))

			var stats store.Stats
			Expect(json.Unmarshal(w.Body.Bytes(), &stats)).To(Succeed())
			Expect(stats.TotalDetections).To(Equal(3))
			Expect(stats.UniqueMaps).To(Equal(2))
			Expect(stats.UniqueStreamers).To(Equal(2))
			Expect(stats.TopStreamers[0]).To(Equal(store.Count{Name: "sypherpk", Count: 2}))
			Expect(stats.MapFrequency).To(Equal([]store.Count{{Name: "Yggsgard Yggdrasill Path", Count: 2}}))
		})
	})

	Describe("GET /api/catalog", func() {
		It("lists labels in declaration order", func() {
			w := serve("/api/catalog")
			Expect(w.Code).To(Equal(http.StatusOK))

			var body struct {
				Labels []string `json:"labels"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Labels).To(Equal(mapdetect.DefaultCatalog().Labels()))
		})
	})

	Describe("optional collaborators", func() {
		It("returns 404 for board and status when not wired", func() {
			Expect(serve("/api/board").Code).To(Equal(http.StatusNotFound))
			Expect(serve("/api/status").Code).To(Equal(http.StatusNotFound))
		})

		It("serves the board and loop status when wired", func() {
			board := &fakeBoard{
				entries: []sinks.BoardEntry{{Streamer: "sypherpk", MapLabel: "Klyntar Symbiotic Surface", Score: 150}},
				total:   4,
				unknown: 1,
				maps:    []store.Count{{Name: "Klyntar Symbiotic Surface", Count: 3}},
			}
			status := &fakeStatus{cycles: 7, last: &poller.CycleReport{ID: "cycle-7"}}
			router = dashboard.NewRouter(dashboard.NewHandler(st, framesDir, logging.NewNop(),
				dashboard.WithBoard(board), dashboard.WithStatus(status)))

			w := serve("/api/board")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"streamer":"sypherpk"`))
			Expect(w.Body.String()).To(ContainSubstring(`"detections_total":4`))
			Expect(w.Body.String()).To(ContainSubstring(`"unknown_total":1`))
			Expect(w.Body.String()).To(ContainSubstring(`{"name":"Klyntar Symbiotic Surface","count":3}`))

			w = serve("/api/status")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"cycles":7`))
			Expect(w.Body.String()).To(ContainSubstring(`"cycle-7"`))
		})

		It("reads counters back from a redis board", func() {
			mr, err := miniredis.Run()
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(mr.Close)
			board := sinks.NewRedisBoard(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "dash")
			DeferCleanup(board.Close)

			ctx := context.Background()
			at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
			Expect(board.Publish(ctx, store.Detection{ID: 1, Streamer: "necros", DetectedAt: at, MapLabel: "Hydra Charteris Base", Score: 110})).To(Succeed())
			Expect(board.Publish(ctx, store.Detection{ID: 2, Streamer: "dezign", DetectedAt: at, MapLabel: "Hydra Charteris Base", Score: 120})).To(Succeed())
			Expect(board.Publish(ctx, store.Detection{ID: 3, Streamer: "necros", DetectedAt: at.Add(time.Minute), MapLabel: mapdetect.UnknownMap})).To(Succeed())

			router = dashboard.NewRouter(dashboard.NewHandler(st, framesDir, logging.NewNop(), dashboard.WithBoard(board)))
			w := serve("/api/board")
			Expect(w.Code).To(Equal(http.StatusOK))

			var body struct {
				Board    []sinks.BoardEntry `json:"board"`
				Counters struct {
					Total   int64 `json:"detections_total"`
					Unknown int64 `json:"unknown_total"`
				} `json:"counters"`
				Maps []store.Count `json:"maps"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Board).To(HaveLen(2))
			Expect(body.Counters.Total).To(Equal(int64(3)))
			Expect(body.Counters.Unknown).To(Equal(int64(1)))
			Expect(body.Maps).To(Equal([]store.Count{{Name: "Hydra Charteris Base", Count: 2}}))
		})

		It("maps board failures to 500", func() {
			router = dashboard.NewRouter(dashboard.NewHandler(st, framesDir, logging.NewNop(),
				dashboard.WithBoard(&fakeBoard{err: errors.New("redis down")})))
			Expect(serve("/api/board").Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("GET /metrics", func() {
		It("renders Prometheus text", func() {
			insert("sypherpk", "Yggsgard Yggdrasill Path", 0, 175)
			insert("necros", mapdetect.UnknownMap, time.Minute, 0)
			router = dashboard.NewRouter(dashboard.NewHandler(st, framesDir, logging.NewNop(),
				dashboard.WithStatus(&fakeStatus{cycles: 3})))

			w := serve("/metrics")
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(HavePrefix("text/plain"))

			body := w.Body.String()
			Expect(body).To(ContainSubstring("# TYPE mapwatch_detections_total counter\nmapwatch_detections_total 2\n"))
			Expect(body).To(ContainSubstring("mapwatch_unique_streamers 2\n"))
			Expect(body).To(ContainSubstring("mapwatch_poll_cycles_total 3\n"))
			Expect(body).To(ContainSubstring(`mapwatch_map_detections_total{map="Yggsgard Yggdrasill Path"} 1`))
			Expect(strings.Count(body, "mapwatch_map_detections_total{")).To(Equal(1))
		})
	})

	Describe("request ids", func() {
		It("echoes a caller supplied id", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("X-Request-ID", "abc-123")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Header().Get("X-Request-ID")).To(Equal("abc-123"))
		})

		It("generates one otherwise", func() {
			Expect(serve("/healthz").Header().Get("X-Request-ID")).NotTo(BeEmpty())
		})
	})
})
