package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SscSPs/erp_accounting/internal/apperrors"
	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/erp_accounting/internal/core/ports/services"
	"github.com/SscSPs/erp_accounting/internal/dto"
	"github.com/SscSPs/erp_accounting/internal/logging"
)

const planSeparator = ';'

var planHeader = []string{"code", "description", "parent", "special"}

// PlanService imports, exports and installs charts of accounts.
type PlanService struct {
	BaseService
	tx        portsrepo.TransactionManager
	exercises portsrepo.ExerciseRepository
	accounts  portsrepo.AccountRepository
	subs      portsrepo.SubaccountRepository
	validate  *validator.Validate
}

// NewPlanService creates a PlanService.
func NewPlanService(repos portsrepo.RepositoryProvider, messages logging.MessageLog) *PlanService {
	return &PlanService{
		BaseService: newBaseService(messages),
		tx:          repos.Tx,
		exercises:   repos.ExerciseRepo,
		accounts:    repos.AccountRepo,
		subs:        repos.SubRepo,
		validate:    newPlanValidator(),
	}
}

var _ portssvc.PlanSvc = (*PlanService)(nil)

// newPlanValidator returns a validator knowing the "specialaccount" tag.
func newPlanValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("specialaccount", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseSpecialAccountRole(fl.Field().String())
		return ok
	})
	return v
}

// Import reads code;description;parent;special rows. A first row whose code is not
// numeric is taken as a header.
func (s *PlanService) Import(ctx context.Context, exerciseCode string, r io.Reader) (*dto.PlanImportResult, error) {
	ctx, _ = logging.WithOperation(ctx, "import_plan", slog.String("exercise", exerciseCode))

	rows, err := readPlan(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading plan: %v", apperrors.ErrValidation, err)
	}
	return s.importRows(ctx, exerciseCode, rows)
}

func readPlan(r io.Reader) ([]dto.PlanRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = planSeparator
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []dto.PlanRow
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		for len(record) < len(planHeader) {
			record = append(record, "")
		}
		code := strings.TrimSpace(record[0])
		if first && !isDigits(code) {
			continue
		}
		rows = append(rows, dto.PlanRow{
			Code:        code,
			Description: strings.TrimSpace(record[1]),
			Parent:      strings.TrimSpace(record[2]),
			Special:     strings.TrimSpace(record[3]),
		})
	}
}

func (s *PlanService) importRows(ctx context.Context, exerciseCode string, rows []dto.PlanRow) (*dto.PlanImportResult, error) {
	exercise, err := s.exercises.FindExercise(ctx, exerciseCode)
	if err != nil {
		return nil, s.warn(ctx, logging.KeyExerciseNotFound, err, slog.String("exercise", exerciseCode))
	}
	if !exercise.IsOpen() {
		return nil, s.warn(ctx, logging.KeyClosedExercise,
			fmt.Errorf("exercise %s: %w", exerciseCode, apperrors.ErrExerciseClosed))
	}

	result := &dto.PlanImportResult{}
	valid := make([]dto.PlanRow, 0, len(rows))
	for _, row := range rows {
		if err := s.validate.Struct(row); err != nil {
			s.skip(ctx, result, row, err.Error())
			continue
		}
		valid = append(valid, row)
	}
	// parents before children
	sort.SliceStable(valid, func(i, j int) bool { return len(valid[i].Code) < len(valid[j].Code) })

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.accounts.ListAccounts(ctx, exercise.Code)
		if err != nil {
			return fmt.Errorf("listing accounts: %w", err)
		}
		chart := make(map[string]domain.Account, len(existing))
		for _, a := range existing {
			chart[a.Code] = a
		}

		length := exercise.SubaccountLen()
		for _, row := range valid {
			switch {
			case len(row.Code) < length:
				err = s.importAccount(ctx, *exercise, chart, row, result)
			case len(row.Code) == length:
				err = s.importSubaccount(ctx, *exercise, chart, row, result)
			default:
				s.skip(ctx, result, row, fmt.Sprintf("code longer than %d digits", length))
			}
			if err != nil {
				return err
			}
		}

		if !exercise.HasAccountingPlan {
			updated := *exercise
			updated.HasAccountingPlan = true
			if err := s.exercises.SaveExercise(ctx, updated); err != nil {
				return fmt.Errorf("marking plan of %s: %w", exercise.Code, err)
			}
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to import accounting plan")
		return nil, err
	}

	s.LogInfo(ctx, "Accounting plan imported",
		slog.Int("accounts", result.Accounts),
		slog.Int("subaccounts", result.Subaccounts),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

func (s *PlanService) skip(ctx context.Context, result *dto.PlanImportResult, row dto.PlanRow, reason string) {
	result.Skipped++
	s.Messages.Warning(ctx, logging.KeyPlanRowInvalid,
		slog.String("code", row.Code),
		slog.String("reason", reason))
}

// parentOf returns the explicit parent of row or the longest account whose code prefixes it.
func parentOf(chart map[string]domain.Account, row dto.PlanRow) (domain.Account, bool) {
	if row.Parent != "" {
		parent, ok := chart[row.Parent]
		return parent, ok
	}
	for n := len(row.Code) - 1; n > 0; n-- {
		if parent, ok := chart[row.Code[:n]]; ok {
			return parent, true
		}
	}
	return domain.Account{}, false
}

func (s *PlanService) importAccount(ctx context.Context, exercise domain.Exercise, chart map[string]domain.Account, row dto.PlanRow, result *dto.PlanImportResult) error {
	if _, ok := chart[row.Code]; ok {
		result.Skipped++
		return nil
	}
	role, _ := domain.ParseSpecialAccountRole(row.Special)
	account := &domain.Account{
		Code:           row.Code,
		ExerciseCode:   exercise.Code,
		Description:    row.Description,
		SpecialAccount: role,
	}
	if parent, ok := parentOf(chart, row); ok {
		account.ParentID = &parent.ID
		account.ParentCode = parent.Code
	} else if row.Parent != "" {
		s.skip(ctx, result, row, "unknown parent "+row.Parent)
		return nil
	}
	if err := s.accounts.SaveAccount(ctx, account); err != nil {
		return fmt.Errorf("saving account %s: %w", row.Code, err)
	}
	chart[account.Code] = *account
	result.Accounts++
	return nil
}

func (s *PlanService) importSubaccount(ctx context.Context, exercise domain.Exercise, chart map[string]domain.Account, row dto.PlanRow, result *dto.PlanImportResult) error {
	_, err := s.subs.FindSubaccountByCode(ctx, exercise.Code, row.Code)
	if err == nil {
		result.Skipped++
		return nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	parent, ok := parentOf(chart, row)
	if !ok {
		s.skip(ctx, result, row, "no parent account")
		return nil
	}
	role, _ := domain.ParseSpecialAccountRole(row.Special)
	description := row.Description
	if description == "" {
		description = parent.Description
	}
	sub := &domain.Subaccount{
		Code:           row.Code,
		ExerciseCode:   exercise.Code,
		AccountID:      parent.ID,
		AccountCode:    parent.Code,
		Description:    description,
		SpecialAccount: role,
	}
	if err := s.subs.SaveSubaccount(ctx, sub); err != nil {
		return fmt.Errorf("saving subaccount %s: %w", row.Code, err)
	}
	result.Subaccounts++
	return nil
}

// Export writes the chart of an exercise in the format Import reads, in code order.
func (s *PlanService) Export(ctx context.Context, exerciseCode string, w io.Writer) error {
	ctx, _ = logging.WithOperation(ctx, "export_plan", slog.String("exercise", exerciseCode))

	accounts, err := s.accounts.ListAccounts(ctx, exerciseCode)
	if err != nil {
		return fmt.Errorf("listing accounts of %s: %w", exerciseCode, err)
	}
	subs, err := s.subs.ListSubaccounts(ctx, exerciseCode)
	if err != nil {
		return fmt.Errorf("listing subaccounts of %s: %w", exerciseCode, err)
	}

	records := make([][]string, 0, len(accounts)+len(subs))
	for _, a := range accounts {
		records = append(records, []string{a.Code, a.Description, a.ParentCode, a.SpecialAccount.String()})
	}
	for _, sub := range subs {
		records = append(records, []string{sub.Code, sub.Description, sub.AccountCode, sub.SpecialAccount.String()})
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i][0] < records[j][0] })

	writer := csv.NewWriter(w)
	writer.Comma = planSeparator
	if err := writer.Write(planHeader); err != nil {
		return err
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("writing plan: %w", err)
	}
	s.LogInfo(ctx, "Accounting plan exported", slog.Int("rows", len(records)))
	return nil
}

// InstallDefault imports the built-in chart, sized to the exercise sub-account length.
func (s *PlanService) InstallDefault(ctx context.Context, exerciseCode string) (*dto.PlanImportResult, error) {
	ctx, _ = logging.WithOperation(ctx, "install_default_plan", slog.String("exercise", exerciseCode))

	exercise, err := s.exercises.FindExercise(ctx, exerciseCode)
	if err != nil {
		return nil, s.warn(ctx, logging.KeyExerciseNotFound, err, slog.String("exercise", exerciseCode))
	}
	return s.importRows(ctx, exerciseCode, defaultPlanRows(exercise.SubaccountLen()))
}
