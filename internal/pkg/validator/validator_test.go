package validator

import (
	"testing"
	"time"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b",
		"0188D0F2-7B8C-7B4A-8A2B-6B8B8B8B8B8B",
	}
	invalid := []string{
		"123e4567-e89b-12d3-a456-426614174000", // v1
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",
		"g188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b",
		"",
	}
	for _, uuid := range valid {
		if !IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = false, want true", uuid)
		}
	}
	for _, uuid := range invalid {
		if IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = true, want false", uuid)
		}
	}
}

func TestIsValidCardSerial(t *testing.T) {
	valid := []string{"ABC", "04A2:1B:FF", "0012345678", "E2-00-1A"}
	invalid := []string{"", "AB C", "card#1", "ключ"}
	for _, s := range valid {
		if !IsValidCardSerial(s) {
			t.Errorf("IsValidCardSerial(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsValidCardSerial(s) {
			t.Errorf("IsValidCardSerial(%q) = true, want false", s)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2023-01-01", "2000-12-31"}
	invalid := []string{"2023-13-01", "2023-01-32", "2023/01/01", "01-01-2023", ""}
	for _, s := range valid {
		_, ok := IsValidDate(s)
		if !ok {
			t.Errorf("IsValidDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		_, ok := IsValidDate(s)
		if ok {
			t.Errorf("IsValidDate(%q) = true, want false", s)
		}
	}
}

func TestIsInSlice(t *testing.T) {
	slice := []string{"a", "b", "c"}
	if !IsInSlice("a", slice) {
		t.Errorf("IsInSlice('a') = false, want true")
	}
	if IsInSlice("d", slice) {
		t.Errorf("IsInSlice('d') = true, want false")
	}
}

func TestParseLocalDateTime(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)

	cases := []struct {
		input string
		want  time.Time
	}{
		{"2025-06-25 08:00", time.Date(2025, 6, 25, 8, 0, 0, 0, loc)},
		{"2025-06-25 08:00:30", time.Date(2025, 6, 25, 8, 0, 30, 0, loc)},
		{"2025-06-25T17:05", time.Date(2025, 6, 25, 17, 5, 0, 0, loc)},
		{" 2025-06-25T17:05:09 ", time.Date(2025, 6, 25, 17, 5, 9, 0, loc)},
		{"2025-06-25T05:00:00Z", time.Date(2025, 6, 25, 8, 0, 0, 0, loc)},
	}
	for _, c := range cases {
		got, ok := ParseLocalDateTime(c.input, loc)
		if !ok {
			t.Errorf("ParseLocalDateTime(%q) failed", c.input)
			continue
		}
		if !got.Equal(c.want) || got.Hour() != c.want.Hour() {
			t.Errorf("ParseLocalDateTime(%q) = %v, want %v", c.input, got, c.want)
		}
	}

	for _, s := range []string{"", "yesterday", "2025-06-25", "25.06.2025 08:00", "2025-06-25 25:00"} {
		if _, ok := ParseLocalDateTime(s, loc); ok {
			t.Errorf("ParseLocalDateTime(%q) = ok, want failure", s)
		}
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "serial", Message: "required"},
		{Field: "time", Message: "invalid"},
	}
	got := errs.Error()
	want := "serial: required; time: invalid"
	if got != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", got, want)
	}
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "serial", Message: "required"},
		{Field: "time", Message: "invalid"},
	}
	got := errs.ToMap()
	want := map[string]string{"serial": "required", "time": "invalid"}
	if len(got) != len(want) {
		t.Errorf("ValidationErrors.ToMap() length = %d, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ValidationErrors.ToMap()[%q] = %q, want %q", k, got[k], v)
		}
	}
}
