package arithmetic

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"imagemath/internal/models"
	"imagemath/pkg/conformance"
	"imagemath/pkg/pixelop"
	"imagemath/pkg/stats"
)

// ResultCode reports how a computation went.
type ResultCode int

const (
	// Success means every pixel was computed without a guard firing.
	Success ResultCode = iota
	// Failure means the output is complete but some pixels hold the
	// sentinel or were saturated to the element type's range.
	Failure
	// Disaster means nothing was computed and there is no output.
	Disaster
)

func (c ResultCode) String() string {
	switch c {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Disaster:
		return "disaster"
	}
	return fmt.Sprintf("ResultCode(%d)", int(c))
}

// Params holds the engine configuration. It is passed in by the caller;
// the engine keeps no other state.
type Params struct {
	// NumCores bounds the number of frames processed concurrently.
	// Zero or less means runtime.NumCPU().
	NumCores int

	// Sentinel is stored wherever a guard fires. pixelop.DefaultSentinel
	// is the documented default.
	Sentinel float64

	// ResultDescription, when set, replaces the generated description.
	ResultDescription string

	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger
}

// GuardCounts tallies the recoverable conditions met during a computation.
type GuardCounts struct {
	ZeroDivisor    int64 `yaml:"zeroDivisor"`
	NonPositiveLog int64 `yaml:"nonPositiveLog"`
	NonFinite      int64 `yaml:"nonFinite"`
	Clamped        int64 `yaml:"clamped"`
}

// Total returns the number of affected pixels.
func (g GuardCounts) Total() int64 {
	return g.ZeroDivisor + g.NonPositiveLog + g.NonFinite + g.Clamped
}

// Any reports whether at least one pixel was affected.
func (g GuardCounts) Any() bool { return g.Total() > 0 }

func (g GuardCounts) add(o GuardCounts) GuardCounts {
	return GuardCounts{
		ZeroDivisor:    g.ZeroDivisor + o.ZeroDivisor,
		NonPositiveLog: g.NonPositiveLog + o.NonPositiveLog,
		NonFinite:      g.NonFinite + o.NonFinite,
		Clamped:        g.Clamped + o.Clamped,
	}
}

// Result is the detailed outcome of Evaluate.
type Result struct {
	// Output is nil when Code is Disaster.
	Output      *models.Series
	Code        ResultCode
	Status      conformance.Status
	Operation   pixelop.Operation
	Description string
	Guards      GuardCounts
	// Summaries holds per-frame statistics of Output.
	Summaries []stats.Summary
	Elapsed   time.Duration
}

// Engine combines two conformant series pixel by pixel.
type Engine struct {
	params Params
	logger *slog.Logger

	// order returns the frame visitation order; identity when nil. Only
	// tests set it, to check that results do not depend on frame order.
	order func(n int) []int
}

// NewEngine creates an engine with the provided parameters.
func NewEngine(params *Params) *Engine {
	p := Params{Sentinel: pixelop.DefaultSentinel}
	if params != nil {
		p = *params
	}
	if p.NumCores <= 0 {
		p.NumCores = runtime.NumCPU()
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{params: p, logger: logger}
}

// Compute is the host entry point. It returns the output series, the result
// code and a description naming both inputs and the operation. On Disaster
// the output is nil and the description is empty; use Evaluate or
// ComputeSelected to learn the conformance status.
func (e *Engine) Compute(a, b *models.Series, op pixelop.Operation) (*models.Series, ResultCode, string) {
	res, err := e.Evaluate(a, b, op)
	if err != nil {
		return nil, Disaster, ""
	}
	return res.Output, res.Code, res.Description
}

// ComputeSelected checks the pair (i, j) from the host's list of loaded
// series and, if it is conformant, computes it.
func (e *Engine) ComputeSelected(candidates []*models.Series, i, j int, op pixelop.Operation) (*Result, error) {
	status, err := conformance.Check(candidates, i, j)
	if err != nil {
		e.logger.Warn("Series selection rejected", "status", status, "error", err)
		return &Result{Code: Disaster, Status: status, Operation: op}, err
	}
	return e.Evaluate(candidates[i], candidates[j], op)
}

// Evaluate runs the computation and returns the full Result. The error is
// non-nil exactly when the code is Disaster.
func (e *Engine) Evaluate(a, b *models.Series, op pixelop.Operation) (*Result, error) {
	res := &Result{Code: Disaster, Operation: op}

	if !op.Valid() {
		res.Status = conformance.Conformant
		return res, fmt.Errorf("invalid operation %d", int(op))
	}
	if err := conformance.Verify(a, b); err != nil {
		res.Status = conformance.StatusOf(err)
		e.logger.Warn("Series rejected", "status", res.Status, "error", err)
		return res, err
	}
	res.Status = conformance.Conformant

	start := time.Now()
	out := e.allocate(a)
	guards := e.traverse(a, b, out, op)

	res.Output = out
	res.Guards = guards
	res.Code = Success
	if guards.Any() {
		res.Code = Failure
	}
	res.Description = e.describe(a, b, op)
	out.Description = res.Description
	res.Summaries = stats.SummarizeSeries(out)
	res.Elapsed = time.Since(start)

	e.logger.Info("Series computed",
		"operation", op,
		"frames", out.FrameCount(),
		"width", out.Width,
		"height", out.Height,
		"result", res.Code,
		"guarded", guards.Total(),
		"elapsed", res.Elapsed)
	if guards.Any() {
		e.logger.Debug("Guards fired",
			"zeroDivisor", guards.ZeroDivisor,
			"nonPositiveLog", guards.NonPositiveLog,
			"nonFinite", guards.NonFinite,
			"clamped", guards.Clamped)
	}
	return res, nil
}

// allocate creates the output series with the shape of a. Frame index and
// acquisition time follow series a.
func (e *Engine) allocate(a *models.Series) *models.Series {
	out := models.NewSeries("", a.ElementType, a.Width, a.Height, a.FrameCount())
	out.UID = uuid.NewString()
	for i := range out.Frames {
		src := &a.Frames[i]
		out.Frames[i].Index = src.Index
		out.Frames[i].Time = src.Time
		out.Frames[i].Width = src.Width
		out.Frames[i].Height = src.Height
		out.Frames[i].Data = make([]float64, src.Len())
	}
	return out
}

// traverse computes every frame of out. Frames are independent, so they are
// spread over a bounded pool; the guard totals are sums and do not depend on
// the order in which frames finish.
func (e *Engine) traverse(a, b, out *models.Series, op pixelop.Operation) GuardCounts {
	n := out.FrameCount()
	order := identity(n)
	if e.order != nil {
		order = e.order(n)
	}

	var zeroDiv, nonPosLog, nonFinite, clamped atomic.Int64

	var g errgroup.Group
	g.SetLimit(e.params.NumCores)
	for _, i := range order {
		g.Go(func() error {
			c := computeFrame(&out.Frames[i], &a.Frames[i], &b.Frames[i], out.ElementType, op, e.params.Sentinel)
			zeroDiv.Add(c.ZeroDivisor)
			nonPosLog.Add(c.NonPositiveLog)
			nonFinite.Add(c.NonFinite)
			clamped.Add(c.Clamped)
			return nil
		})
	}
	// Workers never return an error.
	_ = g.Wait()

	return GuardCounts{
		ZeroDivisor:    zeroDiv.Load(),
		NonPositiveLog: nonPosLog.Load(),
		NonFinite:      nonFinite.Load(),
		Clamped:        clamped.Load(),
	}
}

// computeFrame applies op to every pixel pair of fa and fb and stores the
// converted result into dst.
func computeFrame(dst, fa, fb *models.Frame, et models.ElementType, op pixelop.Operation, sentinel float64) GuardCounts {
	var c GuardCounts
	for p := range dst.Data {
		v, guard := pixelop.Apply(op, fa.Data[p], fb.Data[p], sentinel)
		switch guard {
		case pixelop.ZeroDivisor:
			c.ZeroDivisor++
		case pixelop.NonPositiveLog:
			c.NonPositiveLog++
		case pixelop.NonFinite:
			c.NonFinite++
		}
		stored, sat := et.Store(v)
		if sat && guard == pixelop.None {
			c.Clamped++
		}
		dst.Data[p] = stored
	}
	return c
}

func (e *Engine) describe(a, b *models.Series, op pixelop.Operation) string {
	if e.params.ResultDescription != "" {
		return e.params.ResultDescription
	}
	return op.Format(nameOf(a, "series 1"), nameOf(b, "series 2"))
}

func nameOf(s *models.Series, fallback string) string {
	if s.Description != "" {
		return s.Description
	}
	return fallback
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
