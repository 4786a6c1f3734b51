// Package pipeline provides the orchestration for turning an uploaded resume
// into delivered chat messages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/growly/resume-bot/internal/analysis"
	"github.com/growly/resume-bot/internal/llm"
	"github.com/growly/resume-bot/internal/observability"
	"github.com/growly/resume-bot/internal/rendering"
	"github.com/growly/resume-bot/internal/types"
)

// DefaultTimeout bounds a whole run, retries and delivery included.
const DefaultTimeout = 3 * time.Minute

// State is a step of the per-document state machine. Transitions are linear.
type State string

const (
	StateReceived  State = "received"
	StateFormatted State = "formatted"
	StateChunked   State = "chunked"
	StateSending   State = "sending"
	StateDelivered State = "delivered"
	StateFailed    State = "failed"
)

// Format selects how a Sender should render a chunk.
type Format int

const (
	FormatMarkdownV2 Format = iota
	FormatPlain
)

func (f Format) String() string {
	if f == FormatPlain {
		return "plain"
	}
	return "markdown_v2"
}

// Analyzer produces the raw model text for a document.
type Analyzer interface {
	Analyze(ctx context.Context, doc llm.Document) (string, error)
	Model() string
}

// Sender delivers one chunk to the chat. A rejected markup must be reported
// as *MarkupParseError; any other error aborts delivery.
type Sender interface {
	Send(ctx context.Context, chunk string, format Format) error
}

// Recorder persists a finished analysis and returns its identifier, later
// used to correlate a rating.
type Recorder interface {
	RecordAnalysis(ctx context.Context, req *types.AnalysisRequest, result *types.AnalysisResult) (uuid.UUID, error)
}

// ProgressEvent represents a state transition during a run
type ProgressEvent struct {
	RequestID uuid.UUID
	State     State
	Message   string
}

// ProgressCallback is called on every state transition
type ProgressCallback func(event ProgressEvent)

// Options holds configuration for a Pipeline
type Options struct {
	MaxMessageLength int
	Timeout          time.Duration
	Recorder         Recorder
	Logger           *log.Logger
	OnProgress       ProgressCallback
}

// Outcome is what a run produced, whether or not it succeeded.
type Outcome struct {
	RequestID  uuid.UUID
	State      State
	Result     *types.AnalysisResult
	Chunks     []string
	FellBack   bool
	AnalysisID uuid.UUID
}

// Pipeline runs analyze, extract+format, chunk and send for one document at a
// time. It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	analyzer Analyzer
	opts     Options
}

// New creates a Pipeline, filling unset options with defaults.
func New(analyzer Analyzer, opts Options) *Pipeline {
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = rendering.DefaultMaxLength
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	return &Pipeline{analyzer: analyzer, opts: opts}
}

// Run processes req end to end and delivers the result through sender.
// The returned Outcome is never nil; on failure err is a *DeliveryError.
func (p *Pipeline) Run(ctx context.Context, req *types.AnalysisRequest, sender Sender) (*Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	out, err := p.Prepare(ctx, req)
	if err != nil {
		return out, err
	}

	p.transition(out, StateSending, fmt.Sprintf("Sending %d chunk(s)", len(out.Chunks)))
	fellBack, err := Deliver(ctx, out.Chunks, sender)
	out.FellBack = fellBack
	if fellBack {
		withRequest(p.opts.Logger.Warn(), out, req).Msg("markup rejected, resent analysis as plain text")
	}
	if err != nil {
		return p.fail(out, req, ReasonRender, err)
	}

	p.transition(out, StateDelivered, "Analysis delivered")
	return out, nil
}

// Prepare runs every step up to and including chunking and persistence,
// without sending anything.
func (p *Pipeline) Prepare(ctx context.Context, req *types.AnalysisRequest) (*Outcome, error) {
	out := &Outcome{RequestID: uuid.New(), State: StateReceived}
	p.transition(out, StateReceived, "Analyzing document")

	raw, err := p.analyzer.Analyze(ctx, llm.Document{Data: req.Data, MIMEType: req.MIMEType})
	if err != nil {
		return p.fail(out, req, ReasonUpstream, err)
	}
	if strings.TrimSpace(raw) == "" {
		// Extraction, formatting and chunking are skipped; the attempt is still
		// recorded with no job positions.
		out.Result = &types.AnalysisResult{RawText: raw, Model: p.analyzer.Model(), JobPositions: []string{}}
		p.record(ctx, out, req)
		return p.fail(out, req, ReasonEmptyResult, &analysis.EmptyResultError{Model: p.analyzer.Model()})
	}

	result := &types.AnalysisResult{RawText: raw, Model: p.analyzer.Model()}

	var g errgroup.Group
	g.Go(func() error {
		result.JobPositions = analysis.ExtractJobPositions(raw)
		return nil
	})
	g.Go(func() error {
		result.FormattedText = rendering.Format(raw)
		return nil
	})
	if err := g.Wait(); err != nil {
		return p.fail(out, req, ReasonRender, err)
	}
	out.Result = result
	p.transition(out, StateFormatted, fmt.Sprintf("Formatted analysis, %d job position(s)", len(result.JobPositions)))

	out.Chunks = rendering.Split(result.FormattedText, p.opts.MaxMessageLength)
	p.transition(out, StateChunked, fmt.Sprintf("Split into %d chunk(s)", len(out.Chunks)))

	p.record(ctx, out, req)

	return out, nil
}

// record persists out.Result when a Recorder is configured. A failure is
// logged and leaves AnalysisID unset.
func (p *Pipeline) record(ctx context.Context, out *Outcome, req *types.AnalysisRequest) {
	if p.opts.Recorder == nil {
		return
	}
	id, err := p.opts.Recorder.RecordAnalysis(ctx, req, out.Result)
	if err != nil {
		withRequest(p.opts.Logger.Error(), out, req).Err(err).Msg("failed to record analysis")
		return
	}
	out.AnalysisID = id
}

// Deliver sends chunks in order as MarkdownV2. If any chunk is rejected with
// a *MarkupParseError, every chunk is sent again from the first one with the
// markup stripped. Chunks already sent are not retracted. It reports whether
// the plain-text resend happened.
func Deliver(ctx context.Context, chunks []string, sender Sender) (bool, error) {
	err := sendAll(ctx, chunks, sender, FormatMarkdownV2)
	if err == nil {
		return false, nil
	}

	var markupErr *MarkupParseError
	if !errors.As(err, &markupErr) {
		return false, err
	}

	plain := make([]string, len(chunks))
	for i, chunk := range chunks {
		plain[i] = rendering.StripMarkup(chunk)
	}
	return true, sendAll(ctx, plain, sender, FormatPlain)
}

func sendAll(ctx context.Context, chunks []string, sender Sender, format Format) error {
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sender.Send(ctx, chunk, format); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) fail(out *Outcome, req *types.AnalysisRequest, reason FailureReason, cause error) (*Outcome, error) {
	failedAt := out.State
	out.State = StateFailed
	withRequest(p.opts.Logger.Error(), out, req).
		Str("state", string(failedAt)).
		Str("reason", string(reason)).
		Err(cause).
		Msg("analysis pipeline failed")
	p.emit(out, fmt.Sprintf("Failed: %s", reason))
	return out, &DeliveryError{State: failedAt, Reason: reason, Cause: cause}
}

func (p *Pipeline) transition(out *Outcome, state State, message string) {
	out.State = state
	p.opts.Logger.Debug().
		Str("request_id", out.RequestID.String()).
		Str("state", string(state)).
		Msg(message)
	p.emit(out, message)
}

func (p *Pipeline) emit(out *Outcome, message string) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(ProgressEvent{RequestID: out.RequestID, State: out.State, Message: message})
	}
}

func withRequest(e *log.Entry, out *Outcome, req *types.AnalysisRequest) *log.Entry {
	return e.
		Str("request_id", out.RequestID.String()).
		Int64("user_id", req.UserID).
		Int64("chat_id", req.ChatID)
}
