package domain

import "context"

// QuoteFetcher is the capability through which the engine pulls quotes from
// one venue. Implementations own all venue-specific transport; the engine
// only ever sees normalized PriceQuotes. Fetch failures are tolerated: the
// venue's previous quotes simply age out.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context, venue VenueID) ([]PriceQuote, error)
}

// OpportunityBus delivers accepted opportunities to the execution
// collaborator. Publish must never block the detection pipeline.
type OpportunityBus interface {
	Publish(ctx context.Context, opp Opportunity) error
}

// OpportunityStore is an optional append-only audit log of accepted
// opportunities and their execution outcomes. The pipeline is correct
// without one.
type OpportunityStore interface {
	Insert(ctx context.Context, opp Opportunity) error
	MarkExecuted(ctx context.Context, id string) error
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
}

// OpportunityJournal archives accepted opportunities for offline analysis.
type OpportunityJournal interface {
	Append(ctx context.Context, opp Opportunity) error
	Flush(ctx context.Context) error
}

// ExecutionFeedback is exposed by the engine to the execution collaborator.
// The engine never assumes success itself: venue reliability and execution
// records are updated only from this authoritative callback.
type ExecutionFeedback interface {
	ReportOutcome(ctx context.Context, venue VenueID, opportunityID string, success bool)
}
