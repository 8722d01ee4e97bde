package services

// ServiceContainer holds instances of all the application services.
// It is the entry point used by the command line.
type ServiceContainer struct {
	Resolver          SubaccountResolverSvc
	Creator           AccountCreatorSvc
	Invoices          InvoicePosterSvc
	Payments          PaymentPosterSvc
	VatRegularization VatRegularizationPosterSvc
	Closing           ClosingSvc
	Reporting         ReportingSvc
	Plan              PlanSvc
}
