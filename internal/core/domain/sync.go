package domain

type ChangeAction string

const (
	ActionUpsert ChangeAction = "upsert"
	ActionDelete ChangeAction = "delete"
)

// Change is one client-side edit from an offline log. Changes are transient:
// consumed exactly once by the reconciliation engine, never persisted.
type Change struct {
	Action       ChangeAction `json:"action"`
	ID           string       `json:"id,omitempty"`
	Name         string       `json:"name,omitempty"`
	Quantity     int          `json:"quantity,omitempty"`
	Price        float64      `json:"price,omitempty"`
	PurchaseDate string       `json:"purchaseDate,omitempty"`
	Store        string       `json:"store,omitempty"`
	Location     string       `json:"location,omitempty"`
}

type SyncOutcome string

const (
	OutcomeCreated SyncOutcome = "created"
	OutcomeUpdated SyncOutcome = "updated"
	OutcomeDeleted SyncOutcome = "deleted"
	OutcomeNoop    SyncOutcome = "noop"
)

// SyncResult records what one change resulted in. ID is the id the record
// ended up with, so a client can correlate its proposed ids with server truth.
type SyncResult struct {
	ID      string      `json:"id"`
	Outcome SyncOutcome `json:"outcome"`
}

// SyncSummary preserves input order: Results[i] corresponds to changes[i].
// On a halted batch it covers only the changes applied before the failure.
type SyncSummary struct {
	Results []SyncResult `json:"results"`
}
