package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/erp_accounting/internal/core/ports/services"
	"github.com/SscSPs/erp_accounting/internal/logging"
	"github.com/SscSPs/erp_accounting/internal/metrics"
	"github.com/SscSPs/erp_accounting/internal/utils/accounting"
)

// keyedError carries the message key logged when a posting aborts.
type keyedError struct {
	key string
	err error
}

func (e *keyedError) Error() string { return e.err.Error() }
func (e *keyedError) Unwrap() error { return e.err }

func keyed(key string, err error) error {
	return &keyedError{key: key, err: err}
}

// missingSpecial reports a sub-account that could not be resolved for role.
func missingSpecial(role string, err error) error {
	return keyed(logging.KeySpecialAccountNotFound, fmt.Errorf("%w: %s: %w", apperrors.ErrMissingSpecialAccount, role, err))
}

// PostingOption is a functional option for configuring the document posters
type PostingOption func(*poster)

// WithDecimals sets the money precision used to round lines and check the balance.
func WithDecimals(decimals int32) PostingOption {
	return func(p *poster) {
		p.decimals = decimals
	}
}

// poster holds what every document poster needs: guards, the transaction frame and the builder.
type poster struct {
	BaseService
	document  string
	tx        portsrepo.TransactionManager
	exercises portsrepo.ExerciseRepository
	entries   portsrepo.EntryWriter
	documents portsrepo.DocumentRepository
	parties   portsrepo.PartyRepository
	balances  portsrepo.BalanceReader
	master    portsrepo.MasterDataRepository
	resolver  portssvc.SubaccountResolverSvc
	validate  *validator.Validate
	decimals  int32
}

func newPoster(document string, repos portsrepo.RepositoryProvider, resolver portssvc.SubaccountResolverSvc, messages logging.MessageLog, options []PostingOption) poster {
	p := poster{
		BaseService: newBaseService(messages),
		document:    document,
		tx:          repos.Tx,
		exercises:   repos.ExerciseRepo,
		entries:     repos.EntryRepo,
		documents:   repos.DocumentRepo,
		parties:     repos.PartyRepo,
		balances:    repos.BalanceReader,
		master:      repos.MasterRepo,
		resolver:    resolver,
		validate:    validator.New(),
		decimals:    accounting.DefaultDecimals,
	}
	for _, option := range options {
		option(&p)
	}
	return p
}

// fail logs and counts an aborted posting.
func (p *poster) fail(ctx context.Context, key string, err error, keyvals ...any) error {
	return p.postingFailed(ctx, p.document, key, err, keyvals...)
}

func (p *poster) checkDocument(ctx context.Context, doc any, entryID *int64) error {
	if err := p.validate.Struct(doc); err != nil {
		return p.fail(ctx, logging.KeyInvalidDocument, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
	}
	if entryID != nil {
		return p.fail(ctx, logging.KeyAlreadyAccounted,
			fmt.Errorf("%w: entry %d", apperrors.ErrAlreadyPosted, *entryID),
			slog.Int64("entry_id", *entryID))
	}
	return nil
}

// checkExercise rejects closed exercises and exercises without a chart of accounts.
func (p *poster) checkExercise(ctx context.Context, exercise *domain.Exercise) error {
	if !exercise.IsOpen() {
		return p.fail(ctx, logging.KeyClosedExercise,
			fmt.Errorf("exercise %s: %w", exercise.Code, apperrors.ErrExerciseClosed),
			slog.String("exercise", exercise.Code))
	}
	if !exercise.HasAccountingPlan {
		return p.fail(ctx, logging.KeyNoAccountingPlan,
			fmt.Errorf("exercise %s: %w", exercise.Code, apperrors.ErrNoAccountingPlan),
			slog.String("exercise", exercise.Code))
	}
	return nil
}

// checkDates rejects document dates that fall outside the exercise the entry is filed under.
func (p *poster) checkDates(ctx context.Context, exercise *domain.Exercise, dates ...time.Time) error {
	for _, date := range dates {
		if !exercise.Contains(date) {
			return p.fail(ctx, logging.KeyDateOutsideExercise,
				fmt.Errorf("%w: date %s outside exercise %s", apperrors.ErrValidation, date.Format(time.DateOnly), exercise.Code),
				slog.String("exercise", exercise.Code),
				slog.Time("date", date))
		}
	}
	return nil
}

func (p *poster) loadExercise(ctx context.Context, code string) (*domain.Exercise, error) {
	exercise, err := p.exercises.FindExercise(ctx, code)
	if err != nil {
		return nil, p.fail(ctx, logging.KeyExerciseNotFound, err, slog.String("exercise", code))
	}
	return exercise, p.checkExercise(ctx, exercise)
}

// run builds an entry inside a transaction and hands it to commit. When build, the
// balance check or commit fail the entry and its lines are deleted, even when the
// transaction belongs to the caller.
func (p *poster) run(ctx context.Context, build func(ctx context.Context, b *entryBuilder) error, commit func(ctx context.Context, entry *domain.JournalEntry) error) (*domain.JournalEntry, error) {
	var posted *domain.JournalEntry
	err := p.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		b := newEntryBuilder(p.entries, p.decimals)
		entry, err := func() (*domain.JournalEntry, error) {
			if err := build(ctx, b); err != nil {
				return nil, err
			}
			entry, err := b.finish(ctx)
			if err != nil {
				return nil, err
			}
			return entry, commit(ctx, entry)
		}()
		if err != nil {
			if derr := b.discard(ctx); derr != nil {
				p.LogError(ctx, derr, "Failed to delete partial journal entry")
			}
			return err
		}
		posted = entry
		return nil
	})
	if err != nil {
		key := logging.KeyAccountingLinesError
		var ke *keyedError
		if errors.As(err, &ke) {
			key = ke.key
		}
		return nil, p.fail(ctx, key, err)
	}

	metrics.RecordPosting(p.document)
	p.Messages.Info(ctx, logging.KeyEntryPosted,
		slog.String("document", p.document),
		slog.Int64("entry_id", posted.ID),
		slog.Int64("entry_number", posted.Number))
	return posted, nil
}

func channelOf(ch *int) *int {
	if ch == nil || *ch == 0 {
		return nil
	}
	v := *ch
	return &v
}
