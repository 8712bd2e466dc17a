package catalogue

// Entity kinds and actions carried by change events.
const (
	EntityProduct   = "product"
	EntityCategory  = "category"
	EntityCluster   = "cluster"
	EntityCatalogue = "catalogue"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionLoaded  = "loaded"
)

// Event describes one applied mutation.
type Event struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
}

// Notifier receives events after the mutation is visible to readers.
// Implementations must not block.
type Notifier interface {
	Notify(Event)
}
