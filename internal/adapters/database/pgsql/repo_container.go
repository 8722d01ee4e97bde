package pgsql

import (
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

// NewRepositoryProvider wires every repository on dbPool. Reports are served from
// reportDB when it is not nil, so they can run on a read replica.
func NewRepositoryProvider(dbPool *pgxpool.Pool, reportDB *sqlx.DB) portsrepo.RepositoryProvider {
	base := BaseRepository{Pool: dbPool}
	balances := &pgxBalanceReader{BaseRepository: base}

	var reports portsrepo.BalanceReader = balances
	if reportDB != nil {
		reports = newReportingRepository(reportDB)
	}

	return portsrepo.RepositoryProvider{
		Tx:            newTxManager(dbPool),
		ExerciseRepo:  &PgxExerciseRepository{BaseRepository: base},
		AccountRepo:   &PgxAccountRepository{BaseRepository: base},
		SubRepo:       &PgxSubaccountRepository{BaseRepository: base},
		EntryRepo:     &PgxEntryRepository{BaseRepository: base},
		PartyRepo:     &PgxPartyRepository{BaseRepository: base},
		MasterRepo:    &PgxMasterDataRepository{BaseRepository: base},
		DocumentRepo:  &PgxDocumentRepository{BaseRepository: base},
		BalanceReader: balances,
		ReportReader:  reports,
	}
}
