package normalize

import "testing"

func TestProfile(t *testing.T) {
	p, ok := Profile(decode(t, `{"user":{"id":5,"username":"ana","email":"ana@example.com","currency":"EUR","isActive":true,"created_at":"2024-01-01"}}`))
	if !ok {
		t.Fatal("expected profile")
	}
	if p.ID != "5" || p.Username != "ana" || p.Email != "ana@example.com" || p.Currency != "EUR" {
		t.Errorf("unexpected profile: %+v", p)
	}
	if p.Active == nil || !*p.Active {
		t.Errorf("Active = %v, want true", p.Active)
	}
	if p.CreatedAt != "2024-01-01" || p.UpdatedAt != "" {
		t.Errorf("unexpected timestamps: %q %q", p.CreatedAt, p.UpdatedAt)
	}
}

func TestProfileWithoutIdentity(t *testing.T) {
	if _, ok := Profile(decode(t, `{"currency":"EUR"}`)); ok {
		t.Error("expected profile without identity to be rejected")
	}
}

func TestProfileDisplayName(t *testing.T) {
	tests := []struct {
		p    UserProfile
		want string
	}{
		{UserProfile{ID: "1", Username: "ana", Email: "a@x"}, "ana"},
		{UserProfile{ID: "1", Email: "a@x"}, "a@x"},
		{UserProfile{ID: "1"}, "1"},
	}
	for _, tt := range tests {
		if got := tt.p.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}
