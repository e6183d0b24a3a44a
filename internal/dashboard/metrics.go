package dashboard

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mapwatch/internal/store"
)

type metricDef struct {
	name  string
	help  string
	kind  string
	value int64
}

// Metrics renders store and loop counters in the Prometheus text format.
func (h *Handler) Metrics(c *gin.Context) {
	stats, err := h.reader.Stats(c.Request.Context(), store.Filter{})
	if err != nil {
		h.internalError(c, "metrics", err)
		return
	}
	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.Status(http.StatusOK)
	writeMetrics(c.Writer, stats, h.status)
}

func writeMetrics(w io.Writer, stats store.Stats, status StatusProvider) {
	defs := []metricDef{
		{"mapwatch_detections_total", "Detections recorded.", "counter", int64(stats.TotalDetections)},
		{"mapwatch_unique_maps", "Distinct map labels recorded, including Unknown Map.", "gauge", int64(stats.UniqueMaps)},
		{"mapwatch_unique_streamers", "Distinct streamers with at least one detection.", "gauge", int64(stats.UniqueStreamers)},
	}
	if status != nil {
		defs = append(defs, metricDef{"mapwatch_poll_cycles_total", "Completed poll cycles.", "counter", status.Cycles()})
	}
	for _, m := range defs {
		fmt.Fprintf(w, "# HELP %s %s\n", m.name, m.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", m.name, m.kind)
		fmt.Fprintf(w, "%s %d\n", m.name, m.value)
	}

	fmt.Fprintf(w, "# HELP mapwatch_map_detections_total Detections per identified map.\n")
	fmt.Fprintf(w, "# TYPE mapwatch_map_detections_total counter\n")
	for _, c := range stats.MapFrequency {
		fmt.Fprintf(w, "mapwatch_map_detections_total{map=\"%s\"} %d\n", escapeLabel(c.Name), c.Count)
	}
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func escapeLabel(v string) string {
	return labelEscaper.Replace(v)
}
