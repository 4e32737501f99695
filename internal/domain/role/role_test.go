package role

import "testing"

func TestSet_WithWithout(t *testing.T) {
	s := NewSet(Admin)
	if !s.Has(Admin) {
		t.Fatal("expected ADMIN in set")
	}
	if s.Has(Operator) {
		t.Fatal("unexpected OPERATOR in set")
	}

	s = s.With(Operator)
	if !s.Has(Operator) {
		t.Fatal("expected OPERATOR after With")
	}

	s = s.Without(Admin)
	if s.Has(Admin) {
		t.Fatal("ADMIN still present after Without")
	}
	if s.IsEmpty() {
		t.Fatal("set should not be empty")
	}
	if s.Without(Operator) != 0 {
		t.Fatal("expected empty set")
	}
}

func TestSet_String(t *testing.T) {
	tests := []struct {
		set  Set
		want string
	}{
		{0, ""},
		{NewSet(Admin), "ADMIN"},
		{NewSet(Operator), "OPERATOR"},
		{NewSet(Operator, Admin), "ADMIN,OPERATOR"},
	}
	for _, tc := range tests {
		if got := tc.set.String(); got != tc.want {
			t.Errorf("Set(%d).String() = %q, want %q", tc.set, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Capability
		wantErr bool
	}{
		{"ADMIN", Admin, false},
		{"operator", Operator, false},
		{" Operator ", Operator, false},
		{"pauser", 0, true},
		{"", 0, true},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSet_RoundTrip(t *testing.T) {
	s, err := ParseSet("OPERATOR, admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != NewSet(Admin, Operator) {
		t.Fatalf("got %v", s)
	}

	empty, err := ParseSet("")
	if err != nil || !empty.IsEmpty() {
		t.Fatalf("expected empty set, got %v (%v)", empty, err)
	}

	if _, err := ParseSet("ADMIN,ROOT"); err == nil {
		t.Fatal("expected error for unknown capability")
	}
}

func TestCapability_IsValid(t *testing.T) {
	if !Admin.IsValid() || !Operator.IsValid() {
		t.Fatal("known capabilities must be valid")
	}
	if Capability(0).IsValid() || (Admin | Operator).IsValid() {
		t.Fatal("zero and combined values are not single capabilities")
	}
}
