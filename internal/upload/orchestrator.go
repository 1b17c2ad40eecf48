// Package upload drives the receipt image workflow: stage the file in storage,
// ask the backend to parse it, then refresh the receipt list.
package upload

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/receipts-web/internal/failure"
	"github.com/rs/zerolog"
)

// State is a step of the upload workflow.
type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StateParsing   State = "parsing"
	StateSuccess   State = "success"
	StateError     State = "error"
)

const (
	// DefaultContentType is assumed for files that do not declare one.
	DefaultContentType = "image/jpeg"
	// DefaultRevertAfter is how long a success stays on screen.
	DefaultRevertAfter = 3 * time.Second
)

// User-facing messages.
const (
	msgUploading    = "Uploading image..."
	msgParsing      = "Parsing receipt..."
	msgSuccess      = "Receipt uploaded and parsed."
	msgNotImage     = "Please choose an image file."
	msgBusy         = "An upload is already in progress."
	msgUploadFailed = "Upload failed. Please try again."
	msgParseFailed  = "Failed to parse receipt. Please try again."
)

// File is one selected file.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Status is a snapshot of the workflow.
type Status struct {
	State     State
	Message   string
	ImageID   string
	ObjectKey string
	UploadURL string
}

// Parser triggers backend parsing of a stored image.
type Parser interface {
	ParseReceipt(ctx context.Context, imageID, objectKey string) (any, error)
}

// Orchestrator runs one upload at a time.
type Orchestrator struct {
	stager  Stager
	parser  Parser
	refresh func(context.Context) error
	log     zerolog.Logger

	// RevertAfter is how long success is shown before returning to idle. Set it
	// before the first Upload.
	RevertAfter time.Duration

	notifyMu sync.Mutex

	mu        sync.Mutex
	status    Status
	observers []func(Status)
	busy      bool
	closed    bool
	revert    *time.Timer
	gen       int
}

// New creates an orchestrator. refresh may be nil.
func New(stager Stager, parser Parser, refresh func(context.Context) error, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		stager:      stager,
		parser:      parser,
		refresh:     refresh,
		log:         log,
		RevertAfter: DefaultRevertAfter,
		status:      Status{State: StateIdle},
	}
}

// OnChange registers fn to receive every state transition.
func (o *Orchestrator) OnChange(fn func(Status)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

// Status returns the current snapshot.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Close cancels a pending return to idle. Later transitions are not reported.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	if o.revert != nil {
		o.revert.Stop()
		o.revert = nil
	}
}

// Upload runs the whole workflow for f and returns the final status. Errors at
// any step end in StateError with a user-facing message; nothing is retried.
// A call made while another upload is running is refused and leaves the
// running upload's status alone.
func (o *Orchestrator) Upload(ctx context.Context, f File) Status {
	if strings.TrimSpace(f.ContentType) == "" {
		f.ContentType = DefaultContentType
	}

	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return Status{State: StateError, Message: msgBusy}
	}
	o.busy = true
	o.gen++
	if o.revert != nil {
		o.revert.Stop()
		o.revert = nil
	}
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.busy = false
		o.mu.Unlock()
	}()

	log := o.log.With().Str("file_name", f.Name).Logger()

	if !strings.HasPrefix(strings.ToLower(f.ContentType), "image/") {
		return o.set(Status{State: StateError, Message: msgNotImage})
	}

	o.set(Status{State: StateUploading, Message: msgUploading})
	staged, err := o.stager.Stage(ctx, f)
	if err != nil {
		log.Error().Err(err).Msg("Failed to stage upload")
		return o.set(Status{State: StateError, Message: failure.UserMessage(err, msgUploadFailed)})
	}

	st := Status{
		State:     StateParsing,
		Message:   msgParsing,
		ImageID:   staged.ImageID,
		ObjectKey: staged.ObjectKey,
		UploadURL: staged.UploadURL,
	}
	o.set(st)
	log.Info().Str("image_id", staged.ImageID).Str("object_key", staged.ObjectKey).Msg("Image staged")

	if _, err := o.parser.ParseReceipt(ctx, staged.ImageID, staged.ObjectKey); err != nil {
		log.Error().Err(err).Str("image_id", staged.ImageID).Msg("Failed to parse receipt")
		st.State, st.Message = StateError, failure.UserMessage(err, msgParseFailed)
		return o.set(st)
	}

	st.State, st.Message = StateSuccess, msgSuccess
	final := o.set(st)

	if o.refresh != nil {
		if err := o.refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to refresh receipts after upload")
		}
	}

	o.scheduleRevert()
	return final
}

func (o *Orchestrator) scheduleRevert() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.status.State != StateSuccess {
		return
	}
	gen := o.gen
	o.revert = time.AfterFunc(o.RevertAfter, func() {
		o.transition(Status{State: StateIdle}, func() bool {
			return !o.closed && o.gen == gen && o.status.State == StateSuccess
		})
	})
}

// set records st and notifies observers in transition order.
func (o *Orchestrator) set(st Status) Status {
	return o.transition(st, nil)
}

// transition applies st unless ok, evaluated under the lock, returns false.
func (o *Orchestrator) transition(st Status, ok func() bool) Status {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	if ok != nil && !ok() {
		cur := o.status
		o.mu.Unlock()
		return cur
	}
	o.status = st
	var observers []func(Status)
	if !o.closed {
		observers = append(observers, o.observers...)
	}
	o.mu.Unlock()

	for _, fn := range observers {
		fn(st)
	}
	return st
}
