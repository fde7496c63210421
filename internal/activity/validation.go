package activity

import "fmt"

const (
	maxEntityIDLength = 64
	maxActorIDLength  = 64
	maxDataLength     = 4096
)

// ValidateEventPayload checks a decoded stream payload before persistence.
func ValidateEventPayload(p EventPayload) error {
	if !p.Type.IsValid() {
		return fmt.Errorf("unknown event type %q", p.Type)
	}
	if p.EntityID == "" {
		return fmt.Errorf("entity_id is required")
	}
	if len(p.EntityID) > maxEntityIDLength {
		return fmt.Errorf("entity_id too long")
	}
	if len(p.ActorID) > maxActorIDLength {
		return fmt.Errorf("actor_id too long")
	}
	if len(p.Data) > maxDataLength {
		return fmt.Errorf("data too large")
	}
	if len(p.Data) > 0 && !json.Valid(p.Data) {
		return fmt.Errorf("data is not valid JSON")
	}
	if p.OccurredAt <= 0 {
		return fmt.Errorf("occurred_at must be set")
	}
	return nil
}
