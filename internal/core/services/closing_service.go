package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/erp_accounting/internal/core/ports/services"
	"github.com/SscSPs/erp_accounting/internal/dto"
	"github.com/SscSPs/erp_accounting/internal/logging"
	"github.com/SscSPs/erp_accounting/internal/metrics"
	"github.com/SscSPs/erp_accounting/internal/utils/accounting"
)

// ClosingService runs the regularization, closing and opening stages of an exercise.
type ClosingService struct {
	BaseService
	tx        portsrepo.TransactionManager
	exercises portsrepo.ExerciseRepository
	accounts  portsrepo.AccountReader
	subs      portsrepo.SubaccountReader
	entries   portsrepo.EntryRepository
	balances  portsrepo.BalanceReader
	resolver  portssvc.SubaccountResolverSvc
	creator   portssvc.AccountCreatorSvc
	validate  *validator.Validate
	decimals  int32

	regularization ClosingStage
	closing        ClosingStage
	opening        ClosingStage
}

// NewClosingService creates a ClosingService.
func NewClosingService(repos portsrepo.RepositoryProvider, resolver portssvc.SubaccountResolverSvc, creator portssvc.AccountCreatorSvc, messages logging.MessageLog, decimals int32) *ClosingService {
	if decimals <= 0 {
		decimals = accounting.DefaultDecimals
	}
	return &ClosingService{
		BaseService:    newBaseService(messages),
		tx:             repos.Tx,
		exercises:      repos.ExerciseRepo,
		accounts:       repos.AccountRepo,
		subs:           repos.SubRepo,
		entries:        repos.EntryRepo,
		balances:       repos.BalanceReader,
		resolver:       resolver,
		creator:        creator,
		validate:       validator.New(),
		decimals:       decimals,
		regularization: regularizationStage{},
		closing:        closingStage{},
		opening:        openingStage{},
	}
}

var _ portssvc.ClosingSvc = (*ClosingService)(nil)

// loadOpen loads an exercise that must still accept entries.
func (s *ClosingService) loadOpen(ctx context.Context, code string) (*domain.Exercise, error) {
	exercise, err := s.exercises.FindExercise(ctx, code)
	if err != nil {
		return nil, s.warn(ctx, logging.KeyExerciseNotFound, err, slog.String("exercise", code))
	}
	if !exercise.IsOpen() {
		return nil, s.warn(ctx, logging.KeyClosedExercise,
			fmt.Errorf("exercise %s: %w", code, apperrors.ErrExerciseClosed),
			slog.String("exercise", code))
	}
	return exercise, nil
}

func (s *ClosingService) checkOptions(ctx context.Context, opts dto.ClosingOptions) error {
	if err := s.validate.Struct(opts); err != nil {
		return s.warn(ctx, logging.KeyClosingStageError, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
	}
	return nil
}

func (s *ClosingService) Exec(ctx context.Context, exerciseCode string, opts dto.ClosingOptions) error {
	ctx, _ = logging.WithOperation(ctx, "close_exercise", slog.String("exercise", exerciseCode))

	if err := s.checkOptions(ctx, opts); err != nil {
		return err
	}
	exercise, err := s.loadOpen(ctx, exerciseCode)
	if err != nil {
		return err
	}

	var successor *domain.Exercise
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.regularize(ctx, *exercise, opts.JournalID); err != nil {
			return err
		}
		if err := s.close(ctx, *exercise, opts.JournalID); err != nil {
			return err
		}
		if successor, err = s.open(ctx, *exercise, opts); err != nil {
			return err
		}
		closed := *exercise
		closed.State = domain.ExerciseClosed
		if err := s.exercises.SaveExercise(ctx, closed); err != nil {
			return fmt.Errorf("closing exercise %s: %w", exerciseCode, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Messages.Info(ctx, logging.KeyClosingCompleted,
		slog.String("exercise", exerciseCode),
		slog.String("successor", successor.Code))
	return nil
}

func (s *ClosingService) Regularize(ctx context.Context, exerciseCode string) error {
	ctx, _ = logging.WithOperation(ctx, "regularize_exercise", slog.String("exercise", exerciseCode))
	exercise, err := s.loadOpen(ctx, exerciseCode)
	if err != nil {
		return err
	}
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.regularize(ctx, *exercise, nil)
	})
}

func (s *ClosingService) Close(ctx context.Context, exerciseCode string) error {
	ctx, _ = logging.WithOperation(ctx, "close_balances", slog.String("exercise", exerciseCode))
	exercise, err := s.loadOpen(ctx, exerciseCode)
	if err != nil {
		return err
	}
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.close(ctx, *exercise, nil)
	})
}

// Open accepts a closed exercise so the opening of its successor can be regenerated.
func (s *ClosingService) Open(ctx context.Context, exerciseCode string, opts dto.ClosingOptions) error {
	ctx, _ = logging.WithOperation(ctx, "open_successor", slog.String("exercise", exerciseCode))

	if err := s.checkOptions(ctx, opts); err != nil {
		return err
	}
	exercise, err := s.exercises.FindExercise(ctx, exerciseCode)
	if err != nil {
		return s.warn(ctx, logging.KeyExerciseNotFound, err, slog.String("exercise", exerciseCode))
	}
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := s.open(ctx, *exercise, opts)
		return err
	})
}

func (s *ClosingService) Delete(ctx context.Context, exerciseCode string) error {
	ctx, _ = logging.WithOperation(ctx, "delete_closing", slog.String("exercise", exerciseCode))

	exercise, err := s.exercises.FindExercise(ctx, exerciseCode)
	if err != nil {
		return s.warn(ctx, logging.KeyExerciseNotFound, err, slog.String("exercise", exerciseCode))
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		start, _ := exercise.SuccessorDates()
		successor, err := s.exercises.FindExerciseForDate(ctx, exercise.CompanyID, start)
		switch {
		case err == nil:
			if err := s.deleteEntries(ctx, successor.Code, domain.OperationOpening); err != nil {
				return err
			}
		case !errors.Is(err, apperrors.ErrNotFound):
			return fmt.Errorf("finding successor of %s: %w", exercise.Code, err)
		}

		if err := s.deleteEntries(ctx, exercise.Code, domain.OperationClosing); err != nil {
			return err
		}
		if err := s.deleteEntries(ctx, exercise.Code, domain.OperationRegularization); err != nil {
			return err
		}

		reopened := *exercise
		reopened.State = domain.ExerciseOpen
		if err := s.exercises.SaveExercise(ctx, reopened); err != nil {
			return fmt.Errorf("reopening exercise %s: %w", exercise.Code, err)
		}
		return nil
	})
	if err != nil {
		return s.warn(ctx, logging.KeyClosingStageError, err, slog.String("stage", "delete"))
	}

	s.Messages.Info(ctx, logging.KeyClosingDeleted, slog.String("exercise", exerciseCode))
	return nil
}

// runStage times a stage, counts its outcome and logs a failure with the stage name.
func (s *ClosingService) runStage(ctx context.Context, stage ClosingStage, exercise domain.Exercise, fn func(ctx context.Context) (int, error)) error {
	start := time.Now()
	written, err := fn(ctx)
	metrics.RecordClosingStage(stage.Name(), err == nil, time.Since(start))
	if err != nil {
		s.Messages.Error(ctx, logging.KeyClosingStageError,
			slog.String("stage", stage.Name()),
			slog.String("exercise", exercise.Code),
			slog.String("error", err.Error()))
		return fmt.Errorf("%s stage of %s: %w", stage.Name(), exercise.Code, err)
	}
	s.LogDebug(ctx, "Closing stage completed",
		slog.String("stage", stage.Name()),
		slog.Int("entries", written))
	return nil
}

func (s *ClosingService) deleteEntries(ctx context.Context, exerciseCode string, op domain.Operation) error {
	entries, err := s.entries.FindEntriesByOperation(ctx, exerciseCode, op)
	if err != nil {
		return fmt.Errorf("listing %s entries of %s: %w", op, exerciseCode, err)
	}
	for _, entry := range entries {
		if err := s.entries.DeleteEntry(ctx, entry.ID); err != nil {
			return fmt.Errorf("deleting entry %d: %w", entry.ID, err)
		}
	}
	return nil
}

func (s *ClosingService) header(stage ClosingStage, exercise domain.Exercise, channel int, journalID *int) domain.JournalEntry {
	return domain.JournalEntry{
		ExerciseCode: exercise.Code,
		CompanyID:    exercise.CompanyID,
		Date:         stage.Date(exercise),
		Concept:      stage.Concept(exercise),
		Channel:      channelOf(&channel),
		JournalID:    journalID,
		Operation:    stage.Operation(),
	}
}

// postEntry writes one stage entry, deleting it again when a line or the balance check fails.
func (s *ClosingService) postEntry(ctx context.Context, header domain.JournalEntry, build func(b *entryBuilder) error) error {
	b := newEntryBuilder(s.entries, s.decimals)
	err := func() error {
		if err := b.begin(ctx, header); err != nil {
			return err
		}
		if err := build(b); err != nil {
			return err
		}
		_, err := b.finish(ctx)
		return err
	}()
	if err != nil {
		if derr := b.discard(ctx); derr != nil {
			s.LogError(ctx, derr, "Failed to delete partial closing entry")
		}
	}
	return err
}

func (s *ClosingService) stageBalances(ctx context.Context, stage ClosingStage, exercise domain.Exercise) ([]channelGroup, error) {
	rows, err := s.balances.SubaccountBalances(ctx, stage.BalanceQuery(exercise))
	if err != nil {
		return nil, fmt.Errorf("reading balances: %w", err)
	}
	return groupByChannel(rows), nil
}

func balanceSubaccount(row domain.SubaccountBalance) *domain.Subaccount {
	return &domain.Subaccount{ID: row.SubaccountID, Code: row.SubaccountCode, AccountID: row.AccountID, AccountCode: row.AccountCode}
}

// regularize moves the balance of every P&L sub-account to the profit and loss sub-account.
func (s *ClosingService) regularize(ctx context.Context, exercise domain.Exercise, journalID *int) error {
	stage := s.regularization
	return s.runStage(ctx, stage, exercise, func(ctx context.Context) (int, error) {
		if err := s.deleteEntries(ctx, exercise.Code, stage.Operation()); err != nil {
			return 0, err
		}
		pyg, err := s.resolver.ResolveSpecial(ctx, exercise, domain.RoleProfitLoss)
		if err != nil {
			return 0, missingSpecial(string(domain.RoleProfitLoss), err)
		}
		groups, err := s.stageBalances(ctx, stage, exercise)
		if err != nil {
			return 0, err
		}

		for _, group := range groups {
			total := decimal.Zero
			for _, row := range group.rows {
				total = total.Add(row.Net())
			}
			err := s.postEntry(ctx, s.header(stage, exercise, group.channel, journalID), func(b *entryBuilder) error {
				if err := b.addBalance(ctx, pyg, total); err != nil {
					return err
				}
				for _, row := range group.rows {
					if err := b.cancelBalance(ctx, balanceSubaccount(row), row.Net()); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return 0, err
			}
		}
		return len(groups), nil
	})
}

// close cancels the balance of every balance-sheet sub-account, one entry per channel.
// The entry only balances once the P&L groups have been regularized.
func (s *ClosingService) close(ctx context.Context, exercise domain.Exercise, journalID *int) error {
	stage := s.closing
	return s.runStage(ctx, stage, exercise, func(ctx context.Context) (int, error) {
		if err := s.deleteEntries(ctx, exercise.Code, stage.Operation()); err != nil {
			return 0, err
		}
		groups, err := s.stageBalances(ctx, stage, exercise)
		if err != nil {
			return 0, err
		}

		for _, group := range groups {
			err := s.postEntry(ctx, s.header(stage, exercise, group.channel, journalID), func(b *entryBuilder) error {
				for _, row := range group.rows {
					if err := b.cancelBalance(ctx, balanceSubaccount(row), row.Net()); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return 0, err
			}
		}
		return len(groups), nil
	})
}

// open writes the balance-sheet balances of exercise into its successor, creating the
// successor when needed. The profit and loss balance moves to the previous result sub-accounts.
func (s *ClosingService) open(ctx context.Context, exercise domain.Exercise, opts dto.ClosingOptions) (*domain.Exercise, error) {
	stage := s.opening
	var successor *domain.Exercise
	err := s.runStage(ctx, stage, exercise, func(ctx context.Context) (int, error) {
		var err error
		if successor, err = s.successor(ctx, exercise, opts); err != nil {
			return 0, err
		}
		if err := s.deleteEntries(ctx, successor.Code, stage.Operation()); err != nil {
			return 0, err
		}
		if opts.CopySubaccounts {
			if err := s.copyChart(ctx, exercise, successor.Code); err != nil {
				return 0, err
			}
		}

		pygCode := ""
		pyg, err := s.resolver.ResolveSpecial(ctx, exercise, domain.RoleProfitLoss)
		switch {
		case err == nil:
			pygCode = pyg.Code
		case !errors.Is(err, apperrors.ErrNotFound):
			return 0, err
		}

		groups, err := s.stageBalances(ctx, stage, exercise)
		if err != nil {
			return 0, err
		}
		for _, group := range groups {
			err := s.postEntry(ctx, s.header(stage, *successor, group.channel, opts.JournalID), func(b *entryBuilder) error {
				for _, row := range group.rows {
					target, err := s.openingTarget(ctx, exercise, successor.Code, row, pygCode)
					if err != nil {
						return err
					}
					if err := b.addBalance(ctx, target, row.Net()); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return 0, err
			}
		}
		return len(groups), nil
	})
	return successor, err
}

// openingTarget returns the successor sub-account receiving the balance of row.
func (s *ClosingService) openingTarget(ctx context.Context, exercise domain.Exercise, successorCode string, row domain.SubaccountBalance, pygCode string) (*domain.Subaccount, error) {
	var source *domain.Subaccount
	if row.SubaccountCode == pygCode {
		role := domain.RolePreviousNegativeResult
		if row.Net().IsNegative() {
			role = domain.RolePreviousPositiveResult
		}
		sub, err := s.resolver.ResolveSpecial(ctx, exercise, role)
		if err != nil {
			return nil, missingSpecial(string(role), err)
		}
		source = sub
	} else {
		sub, err := s.subs.FindSubaccountByCode(ctx, exercise.Code, row.SubaccountCode)
		if err != nil {
			return nil, fmt.Errorf("loading subaccount %s: %w", row.SubaccountCode, err)
		}
		source = sub
	}
	return s.creator.CopySubaccountToExercise(ctx, *source, successorCode)
}

// successor finds the exercise starting the day after exercise ends, or creates it.
func (s *ClosingService) successor(ctx context.Context, exercise domain.Exercise, opts dto.ClosingOptions) (*domain.Exercise, error) {
	start, end := exercise.SuccessorDates()
	next, err := s.exercises.FindExerciseForDate(ctx, exercise.CompanyID, start)
	if err == nil {
		if !next.IsOpen() {
			return nil, fmt.Errorf("successor %s: %w", next.Code, apperrors.ErrExerciseClosed)
		}
		return next, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("finding successor of %s: %w", exercise.Code, err)
	}

	code := opts.SuccessorCode
	if code == "" {
		n, err := strconv.Atoi(exercise.Code)
		if err != nil {
			return nil, fmt.Errorf("exercise code %s is not numeric, a successor code is required: %w", exercise.Code, apperrors.ErrValidation)
		}
		code = strconv.Itoa(n + 1)
	}
	if _, err := s.exercises.FindExercise(ctx, code); err == nil {
		return nil, fmt.Errorf("exercise %s: %w", code, apperrors.ErrDuplicate)
	}

	next = &domain.Exercise{
		Code:              code,
		CompanyID:         exercise.CompanyID,
		Name:              code,
		StartDate:         start,
		EndDate:           end,
		State:             domain.ExerciseOpen,
		SubaccountLength:  exercise.SubaccountLength,
		HasAccountingPlan: opts.CopySubaccounts,
	}
	if err := s.exercises.SaveExercise(ctx, *next); err != nil {
		return nil, fmt.Errorf("creating exercise %s: %w", code, err)
	}
	s.LogDebug(ctx, "Created successor exercise", slog.String("successor", code))
	return next, nil
}

// copyChart copies every account and sub-account of exercise into target.
func (s *ClosingService) copyChart(ctx context.Context, exercise domain.Exercise, target string) error {
	accounts, err := s.accounts.ListAccounts(ctx, exercise.Code)
	if err != nil {
		return fmt.Errorf("listing accounts of %s: %w", exercise.Code, err)
	}
	for _, account := range accounts {
		if _, err := s.creator.CopyAccountToExercise(ctx, account, target); err != nil {
			return err
		}
	}
	subs, err := s.subs.ListSubaccounts(ctx, exercise.Code)
	if err != nil {
		return fmt.Errorf("listing subaccounts of %s: %w", exercise.Code, err)
	}
	for _, sub := range subs {
		if _, err := s.creator.CopySubaccountToExercise(ctx, sub, target); err != nil {
			return err
		}
	}

	next, err := s.exercises.FindExercise(ctx, target)
	if err != nil {
		return err
	}
	if !next.HasAccountingPlan {
		next.HasAccountingPlan = true
		return s.exercises.SaveExercise(ctx, *next)
	}
	return nil
}
