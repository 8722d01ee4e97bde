package services

import (
	"fmt"
	"time"

	"github.com/SscSPs/erp_accounting/internal/core/domain"
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
)

// ClosingStage describes one step of the period closing pipeline: the operation tag of
// the entries it writes, their concept and date, and the balances it reads.
type ClosingStage interface {
	Name() string
	Operation() domain.Operation
	// Concept and Date describe the entries written into exercise.
	Concept(exercise domain.Exercise) string
	Date(exercise domain.Exercise) time.Time
	// BalanceQuery selects the balances of the exercise being closed.
	BalanceQuery(exercise domain.Exercise) portsrepo.BalanceQuery
}

type regularizationStage struct{}

func (regularizationStage) Name() string                { return "regularization" }
func (regularizationStage) Operation() domain.Operation { return domain.OperationRegularization }

func (regularizationStage) Concept(exercise domain.Exercise) string {
	return fmt.Sprintf("Regularization of exercise %s", exercise.Code)
}

func (regularizationStage) Date(exercise domain.Exercise) time.Time { return exercise.EndDate }

func (regularizationStage) BalanceQuery(exercise domain.Exercise) portsrepo.BalanceQuery {
	return portsrepo.BalanceQuery{
		ExerciseCode:      exercise.Code,
		CodeFrom:          "6",
		CodeTo:            "7",
		ExcludeOperations: []domain.Operation{domain.OperationRegularization, domain.OperationClosing},
		GroupByChannel:    true,
	}
}

type closingStage struct{}

func (closingStage) Name() string                { return "closing" }
func (closingStage) Operation() domain.Operation { return domain.OperationClosing }

func (closingStage) Concept(exercise domain.Exercise) string {
	return fmt.Sprintf("Closing of exercise %s", exercise.Code)
}

func (closingStage) Date(exercise domain.Exercise) time.Time { return exercise.EndDate }

func (closingStage) BalanceQuery(exercise domain.Exercise) portsrepo.BalanceQuery {
	return portsrepo.BalanceQuery{
		ExerciseCode:      exercise.Code,
		CodeFrom:          "1",
		CodeTo:            "5",
		ExcludeOperations: []domain.Operation{domain.OperationClosing},
		GroupByChannel:    true,
	}
}

// openingStage carries the balance-sheet balances the closing entries cancel into the
// successor exercise. Concept and Date take the successor.
type openingStage struct{}

func (openingStage) Name() string                { return "opening" }
func (openingStage) Operation() domain.Operation { return domain.OperationOpening }

func (openingStage) Concept(exercise domain.Exercise) string {
	return fmt.Sprintf("Opening of exercise %s", exercise.Code)
}

func (openingStage) Date(exercise domain.Exercise) time.Time { return exercise.StartDate }

func (openingStage) BalanceQuery(exercise domain.Exercise) portsrepo.BalanceQuery {
	return closingStage{}.BalanceQuery(exercise)
}

var (
	_ ClosingStage = regularizationStage{}
	_ ClosingStage = closingStage{}
	_ ClosingStage = openingStage{}
)

// channelGroup holds the balances of one channel, in sub-account code order.
type channelGroup struct {
	channel int
	rows    []domain.SubaccountBalance
}

// groupByChannel splits balances ordered by channel and code into one group per channel,
// dropping rows whose net balance is zero.
func groupByChannel(rows []domain.SubaccountBalance) []channelGroup {
	var groups []channelGroup
	for _, row := range rows {
		if row.Net().IsZero() {
			continue
		}
		if n := len(groups); n == 0 || groups[n-1].channel != row.Channel {
			groups = append(groups, channelGroup{channel: row.Channel})
		}
		groups[len(groups)-1].rows = append(groups[len(groups)-1].rows, row)
	}
	return groups
}
