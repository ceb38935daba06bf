package model

// Service is a purchasable notification capability.
type Service struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"` // major currency units per service
}

// ServicePrice is the flat per-service price in major units (₹10 each).
const ServicePrice int64 = 10

// PaidServices is the fixed catalog of purchasable services.
var PaidServices = []Service{
	{ID: "ring", Name: "Ring Notification", Price: ServicePrice},
	{ID: "message", Name: "Message Notification", Price: ServicePrice},
	{ID: "broadcast", Name: "Broadcast Message", Price: ServicePrice},
}

// FreeServices are always granted alongside any redeemed code.
var FreeServices = []string{"statistics"}

// ValidServiceIDs returns the ids of all purchasable services.
func ValidServiceIDs() []string {
	ids := make([]string, 0, len(PaidServices))
	for _, s := range PaidServices {
		ids = append(ids, s.ID)
	}
	return ids
}

// IsValidServiceID reports whether id names a purchasable service.
func IsValidServiceID(id string) bool {
	for _, s := range PaidServices {
		if s.ID == id {
			return true
		}
	}
	return false
}

// ServiceName resolves a service id to its display name, falling back to the id.
func ServiceName(id string) string {
	for _, s := range PaidServices {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}

// DedupeServices filters ids down to the unique, valid subset, preserving order.
func DedupeServices(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !IsValidServiceID(id) || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// WithFreeServices returns services with the always-free set appended (no duplicates).
func WithFreeServices(services []string) []string {
	seen := make(map[string]bool, len(services)+len(FreeServices))
	out := make([]string, 0, len(services)+len(FreeServices))
	for _, id := range services {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range FreeServices {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
