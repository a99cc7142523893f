package models

import (
	"strings"
	"testing"
)

const testToken = "ghp_0123456789abcdefghij"

func TestSyncSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		st      SyncSettings
		wantErr bool
	}{
		{"valid", SyncSettings{Repository: "acme/icons", Token: testToken}, false},
		{"missing repository", SyncSettings{Token: testToken}, true},
		{"missing token", SyncSettings{Repository: "acme/icons"}, true},
		{"no slash", SyncSettings{Repository: "acmeicons", Token: testToken}, true},
		{"extra slash", SyncSettings{Repository: "acme/icons/extra", Token: testToken}, true},
		{"whitespace in owner", SyncSettings{Repository: "ac me/icons", Token: testToken}, true},
		{"empty owner", SyncSettings{Repository: "/icons", Token: testToken}, true},
		{"empty repo", SyncSettings{Repository: "acme/", Token: testToken}, true},
		{"short token", SyncSettings{Repository: "acme/icons", Token: "tooshort"}, true},
		{"token at minimum length", SyncSettings{Repository: "acme/icons", Token: strings.Repeat("x", MinTokenLength)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.st.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	st := SyncSettings{Repository: "acme/icons", Token: testToken}
	red := st.Redacted()
	if red.Repository != "acme/icons" {
		t.Errorf("repository changed: %q", red.Repository)
	}
	if strings.Contains(red.Token, testToken[:len(testToken)-4]) {
		t.Error("token body not masked")
	}
	if !strings.HasSuffix(red.Token, testToken[len(testToken)-4:]) {
		t.Errorf("token suffix lost: %q", red.Token)
	}
	if len(red.Token) != len(testToken) {
		t.Errorf("token length changed: %d", len(red.Token))
	}

	// Original is untouched.
	if st.Token != testToken {
		t.Error("Redacted mutated the receiver")
	}
}
