package services

import (
	portsrepo "github.com/SscSPs/erp_accounting/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/erp_accounting/internal/core/ports/services"
	"github.com/SscSPs/erp_accounting/internal/logging"
	"github.com/SscSPs/erp_accounting/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, messages logging.MessageLog) *portssvc.ServiceContainer {
	if messages == nil {
		messages = logging.NewMessageLog()
	}
	container := &portssvc.ServiceContainer{}

	// The creator comes first: the resolver creates party sub-accounts through it.
	creator := NewAccountCreator(repos, messages)
	resolver := NewSubaccountResolver(repos, creator, messages)
	container.Creator = creator
	container.Resolver = resolver

	posting := []PostingOption{WithDecimals(cfg.MoneyDecimals)}
	container.Invoices = NewInvoicePoster(repos, resolver, messages, posting...)
	container.Payments = NewPaymentPoster(repos, resolver, messages, posting...)
	container.VatRegularization = NewVatRegularizationPoster(repos, resolver, messages, posting...)

	container.Closing = NewClosingService(repos, resolver, creator, messages, cfg.MoneyDecimals)
	container.Reporting = NewReportingService(repos, messages,
		WithReportLanguage(cfg.ReportLanguage),
		WithReportDecimals(cfg.MoneyDecimals))
	container.Plan = NewPlanService(repos, messages)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountCreatorSvc          = (*AccountCreator)(nil)
	_ portssvc.SubaccountResolverSvc      = (*SubaccountResolver)(nil)
	_ portssvc.InvoicePosterSvc           = (*InvoicePoster)(nil)
	_ portssvc.PaymentPosterSvc           = (*PaymentPoster)(nil)
	_ portssvc.VatRegularizationPosterSvc = (*VatRegularizationPoster)(nil)
	_ portssvc.ClosingSvc                 = (*ClosingService)(nil)
	_ portssvc.ReportingSvc               = (*ReportingService)(nil)
	_ portssvc.PlanSvc                    = (*PlanService)(nil)
)
