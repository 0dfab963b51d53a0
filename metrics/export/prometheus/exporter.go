package prometheus

import (
	"bufio"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/jwtlab"
	"github.com/MrEthical07/jwtlab/metrics/export/internaldefs"
)

// ContentType is the Prometheus text exposition format served by Handler.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

type metricsSource interface {
	MetricsSnapshot() jwtlab.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter renders session metrics in Prometheus text exposition format.
type Exporter struct {
	source metricsSource
}

// NewExporter returns an exporter reading from session.
func NewExporter(session *jwtlab.Session) *Exporter {
	return &Exporter{source: session}
}

// NewExporterFromSource returns an exporter reading from any snapshot source.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the current metrics. Nothing is written while metrics are disabled.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		_, _ = e.WriteTo(w)
	})
}

// Render returns the exposition text.
func (e *Exporter) Render() string {
	var b strings.Builder
	_, _ = e.WriteTo(&b)
	return b.String()
}

// WriteTo writes the exposition text to w.
func (e *Exporter) WriteTo(w io.Writer) (int64, error) {
	if e == nil || e.source == nil {
		return 0, nil
	}

	snapshot := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return 0, nil
	}

	cw := &countingWriter{w: bufio.NewWriterSize(w, 4096)}
	for _, def := range internaldefs.CounterDefs {
		writeCounter(cw, def.Name, def.Help, snapshot.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		writeHistogram(cw, def.Name, def.Help, internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw)))
	}
	writeCounter(cw, internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, dropped)

	if err := cw.w.Flush(); err != nil && cw.err == nil {
		cw.err = err
	}
	return cw.n, cw.err
}

type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) line(parts ...string) {
	if c.err != nil {
		return
	}
	for _, p := range parts {
		n, err := c.w.WriteString(p)
		c.n += int64(n)
		if err != nil {
			c.err = err
			return
		}
	}
	if err := c.w.WriteByte('\n'); err != nil {
		c.err = err
		return
	}
	c.n++
}

func writeHeader(c *countingWriter, name, help, kind string) {
	c.line("# HELP ", name, " ", escapeHelp(help))
	c.line("# TYPE ", name, " ", kind)
}

func writeCounter(c *countingWriter, name, help string, value uint64) {
	writeHeader(c, name, help, "counter")
	c.line(name, " ", strconv.FormatUint(value, 10))
}

func writeHistogram(c *countingWriter, name, help string, cumulative [internaldefs.BucketCount]uint64) {
	writeHeader(c, name, help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		c.line(name, `_bucket{le="`, le, `"} `, strconv.FormatUint(cumulative[i], 10))
	}
	c.line(name, "_count ", strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	// Session histograms keep bucket counts only.
	c.line(name, "_sum 0")
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, `\`, `\\`)
	return strings.ReplaceAll(help, "\n", `\n`)
}
