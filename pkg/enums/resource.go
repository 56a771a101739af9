package enums

import "fmt"

// Resource names an entity collection on the remote backend. The value is
// also the URL path segment used by both the backend and the admin API.
type Resource string

const (
	ResourceUsers            Resource = "users"
	ResourceRoles            Resource = "roles"
	ResourceBusinesses       Resource = "businesses"
	ResourceCategories       Resource = "categories"
	ResourceItems            Resource = "items"
	ResourceSubscriptions    Resource = "subscriptions"
	ResourceOrders           Resource = "orders"
	ResourceTelegramContacts Resource = "telegram-contacts"
)

var validResources = []Resource{
	ResourceUsers,
	ResourceRoles,
	ResourceBusinesses,
	ResourceCategories,
	ResourceItems,
	ResourceSubscriptions,
	ResourceOrders,
	ResourceTelegramContacts,
}

// Resources returns every known resource in display order.
func Resources() []Resource {
	out := make([]Resource, len(validResources))
	copy(out, validResources)
	return out
}

func (r Resource) String() string {
	return string(r)
}

func (r Resource) IsValid() bool {
	for _, candidate := range validResources {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseResource(value string) (Resource, error) {
	for _, candidate := range validResources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid resource %q", value)
}
