package crm

import (
	"strings"
)

// Record is one sObject row as decoded from the REST JSON.
type Record map[string]any

// Contact is a contact linked to an opportunity through a contact role.
type Contact struct {
	Name  string
	Email string
}

// Get resolves a dotted relationship path such as "Account.Name".
// Returns nil when any segment is missing or not an object.
func (r Record) Get(path string) any {
	if r == nil {
		return nil
	}
	var current any = map[string]any(r)
	for _, segment := range strings.Split(path, ".") {
		obj, ok := asObject(current)
		if !ok {
			return nil
		}
		current = obj[segment]
	}
	return current
}

// String returns the value at path as a string, or "" when absent or non-text.
func (r Record) String(path string) string {
	s, _ := r.Get(path).(string)
	return s
}

// ID returns the record Id.
func (r Record) ID() string {
	return r.String("Id")
}

// Contacts returns the contacts attached through OpportunityContactRoles.
// Roles without a Contact are skipped.
func (r Record) Contacts() []Contact {
	roles, ok := asObject(r.Get("OpportunityContactRoles"))
	if !ok {
		return nil
	}
	items, _ := roles["records"].([]any)

	contacts := make([]Contact, 0, len(items))
	for _, item := range items {
		role, ok := asObject(item)
		if !ok {
			continue
		}
		contact, ok := asObject(role["Contact"])
		if !ok {
			continue
		}
		name, _ := contact["Name"].(string)
		email, _ := contact["Email"].(string)
		contacts = append(contacts, Contact{Name: name, Email: strings.TrimSpace(email)})
	}
	return contacts
}

func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case Record:
		return map[string]any(obj), true
	default:
		return nil, false
	}
}
