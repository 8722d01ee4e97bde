package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	Tx            TransactionManager
	ExerciseRepo  ExerciseRepository
	AccountRepo   AccountRepository
	SubRepo       SubaccountRepository
	EntryRepo     EntryRepository
	PartyRepo     PartyRepository
	MasterRepo    MasterDataRepository
	DocumentRepo  DocumentRepository
	BalanceReader BalanceReader
	// ReportReader serves the read-only reports; it may be a separate connection.
	ReportReader BalanceReader
}
