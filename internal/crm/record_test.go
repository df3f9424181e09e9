package crm

import (
	"encoding/json"
	"testing"
)

func TestRecordPathsAndContacts(t *testing.T) {
	raw := `{
		"Id": "006A",
		"Account": {"Name": "Acme"},
		"OpportunityContactRoles": {"records": [
			{"Contact": {"Name": "Dana Scully", "Email": " dana@acme.test "}},
			{"Contact": null},
			{"Contact": {"Name": "No Mail", "Email": null}}
		]}
	}`
	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if record.String("Account.Name") != "Acme" {
		t.Fatalf("expected account name Acme")
	}
	if record.Get("Account.Owner.Name") != nil {
		t.Fatalf("expected nil for missing path")
	}

	contacts := record.Contacts()
	if len(contacts) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(contacts))
	}
	if contacts[0].Email != "dana@acme.test" || contacts[1].Email != "" {
		t.Fatalf("unexpected contacts %+v", contacts)
	}
}

func TestRecordWithoutContactRoles(t *testing.T) {
	record := Record{"Id": "006A", "OpportunityContactRoles": nil}
	if len(record.Contacts()) != 0 {
		t.Fatalf("expected no contacts")
	}
}
