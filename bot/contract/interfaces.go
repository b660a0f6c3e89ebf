package contract

import "context"

// Provider wraps one upstream data service. Query never returns an error:
// every failure is reported as a ProviderResult outcome.
type Provider interface {
	Name() ProviderID
	Supports(kind IdentifierKind) bool
	Query(ctx context.Context, req ProviderRequest) ProviderResult
}

type Registry interface {
	Registration() Provider
	Insurance() Provider
	Inspection() Provider
}

type QueryRunner interface {
	Run(ctx context.Context, id Identifier) (Consolidated, error)
	RunReport(ctx context.Context, id Identifier, report ReportKind) (Consolidated, error)
}

// Notifier delivers interim messages (progress notices) before the final reply.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, reply Reply) error
}
