package logging

import (
	"context"
	"log/slog"
	"sync"
)

// Message keys. They identify translatable messages, the text shown to users lives elsewhere.
const (
	KeyAlreadyAccounted        = "document-already-accounted"
	KeyZeroTotal               = "zero-total"
	KeyClosedExercise          = "closed-exercise"
	KeyExerciseNotFound        = "exercise-not-found"
	KeyNoAccountingPlan        = "exercise-without-accounting-plan"
	KeyTaxSubtotalsError       = "tax-subtotals-error"
	KeyAccountingLinesError    = "accounting-lines-error"
	KeyEntrySaveError          = "accounting-entry-error"
	KeySpecialAccountNotFound  = "special-account-not-found"
	KeySubaccountNotFound      = "subaccount-not-found"
	KeyPartySubaccountNotFound = "party-subaccount-not-found"
	KeyNoFreeSubaccountCode    = "no-free-subaccount-code"
	KeyAccountCreationError    = "account-creation-error"
	KeyTaxNotFound             = "tax-not-found"
	KeyRetentionNotFound       = "retention-not-found"
	KeyPaymentMethodNotFound   = "payment-method-not-found"
	KeyClosingStageError       = "closing-stage-error"
	KeyClosingCompleted        = "closing-completed"
	KeyClosingDeleted          = "closing-deleted"
	KeyEntryPosted             = "accounting-entry-created"
	KeyReportDataError         = "report-data-error"
	KeyPlanRowInvalid          = "accounting-plan-row-invalid"
	KeyInvalidDocument         = "invalid-document"
	KeyDateOutsideExercise     = "date-outside-exercise"
)

// MessageLog is the keyed logging collaborator used for every caller-visible outcome.
type MessageLog interface {
	Info(ctx context.Context, key string, attrs ...any)
	Warning(ctx context.Context, key string, attrs ...any)
	Error(ctx context.Context, key string, attrs ...any)
}

// SlogMessageLog writes keyed messages to the context logger.
type SlogMessageLog struct{}

// NewMessageLog returns a MessageLog backed by log/slog.
func NewMessageLog() *SlogMessageLog {
	return &SlogMessageLog{}
}

func (SlogMessageLog) Info(ctx context.Context, key string, attrs ...any) {
	FromContext(ctx).InfoContext(ctx, key, append([]any{slog.String("message_key", key)}, attrs...)...)
}

func (SlogMessageLog) Warning(ctx context.Context, key string, attrs ...any) {
	FromContext(ctx).WarnContext(ctx, key, append([]any{slog.String("message_key", key)}, attrs...)...)
}

func (SlogMessageLog) Error(ctx context.Context, key string, attrs ...any) {
	FromContext(ctx).ErrorContext(ctx, key, append([]any{slog.String("message_key", key)}, attrs...)...)
}

// Entry is a message kept by Recorder.
type Entry struct {
	Level slog.Level
	Key   string
}

// Recorder is a MessageLog that keeps the keys it receives and forwards them to slog.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	next    SlogMessageLog
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(level slog.Level, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Key: key})
}

func (r *Recorder) Info(ctx context.Context, key string, attrs ...any) {
	r.record(slog.LevelInfo, key)
	r.next.Info(ctx, key, attrs...)
}

func (r *Recorder) Warning(ctx context.Context, key string, attrs ...any) {
	r.record(slog.LevelWarn, key)
	r.next.Warning(ctx, key, attrs...)
}

func (r *Recorder) Error(ctx context.Context, key string, attrs ...any) {
	r.record(slog.LevelError, key)
	r.next.Error(ctx, key, attrs...)
}

// Keys returns the recorded keys of the given level, or of every level when none is given.
func (r *Recorder) Keys(levels ...slog.Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for _, e := range r.entries {
		if len(levels) == 0 {
			keys = append(keys, e.Key)
			continue
		}
		for _, l := range levels {
			if e.Level == l {
				keys = append(keys, e.Key)
				break
			}
		}
	}
	return keys
}

// Has reports whether key was recorded at any level.
func (r *Recorder) Has(key string) bool {
	for _, k := range r.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// Reset forgets every recorded message.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

var (
	_ MessageLog = (*SlogMessageLog)(nil)
	_ MessageLog = (*Recorder)(nil)
)
