package domain

import "testing"

func TestUserRecordMatchesUsername(t *testing.T) {
	record := UserRecord{Username: "Alice"}
	if !record.MatchesUsername("alice") {
		t.Error("matching should ignore case")
	}
	if !record.MatchesUsername("ALICE") {
		t.Error("matching should ignore case")
	}
	if record.MatchesUsername("alicia") {
		t.Error("different username should not match")
	}
}

func TestLegacyUserMatches(t *testing.T) {
	legacy := LegacyUser{Username: "root", Password: "toor"}
	if !legacy.Matches("ROOT") {
		t.Error("matching should ignore case")
	}
	if legacy.Matches("toor") {
		t.Error("password must never match as a username")
	}
	if (LegacyUser{}).Matches("") {
		t.Error("an unset legacy pair matches nothing, not the empty username")
	}
}

func TestLegacyUserPromote(t *testing.T) {
	record := LegacyUser{Username: "root", Password: "toor"}.Promote()
	if record.Username != "root" || record.Password != "toor" {
		t.Errorf("credentials must carry over verbatim: %+v", record)
	}
	if record.Mobile != "N/A" || record.Farm != "Legacy Farm" {
		t.Errorf("unexpected placeholder metadata: %+v", record)
	}
}
