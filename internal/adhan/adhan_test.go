package adhan

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		in      string
		want    Name
		wantErr bool
	}{
		{"Fajr", Fajr, false},
		{"fajr", Fajr, false},
		{"DHUHR", Dhuhr, false},
		{" asr ", Asr, false},
		{"Maghrib", Maghrib, false},
		{"isha", Isha, false},
		{"Sunrise", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseName(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownName) {
					t.Fatalf("ParseName(%q) error = %v, want ErrUnknownName", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseName(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestName_ValidAndShort(t *testing.T) {
	for _, n := range Names {
		if !n.Valid() {
			t.Errorf("%s.Valid() = false", n)
		}
		if len(n.Short()) != 1 {
			t.Errorf("%s.Short() = %q, want one letter", n, n.Short())
		}
	}
	if Name("Sunrise").Valid() {
		t.Error("Sunrise should not be valid")
	}
	if got := Name("Sunrise").Short(); got != "Sunrise" {
		t.Errorf("Short() for unknown = %q, want full name", got)
	}
}

func TestNames_CanonicalOrder(t *testing.T) {
	want := []Name{"Fajr", "Dhuhr", "Asr", "Maghrib", "Isha"}
	if diff := cmp.Diff(want, Names); diff != "" {
		t.Errorf("Names (-want +got):\n%s", diff)
	}
}

func TestTimings_UnmarshalKeepsDocumentOrder(t *testing.T) {
	raw := `{"12:00:00": "Dhuhr", "04:11:00": "Fajr", "05:00:00": "", "06:00:00": null, "07:00:00": false}`

	var got Timings
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := Timings{
		{Clock: "12:00:00", Label: Dhuhr},
		{Clock: "04:11:00", Label: Fajr},
		{Clock: "05:00:00", Label: ""},
		{Clock: "06:00:00", Label: ""},
		{Clock: "07:00:00", Label: ""},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Timings (-want +got):\n%s", diff)
	}
}

func TestTimings_UnmarshalEmptyAndNull(t *testing.T) {
	var empty Timings
	if err := json.Unmarshal([]byte(`{}`), &empty); err != nil {
		t.Fatalf("Unmarshal {}: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("len = %d, want 0", len(empty))
	}

	var day Day
	if err := json.Unmarshal([]byte(`{"date":"2022-12-29","timings":null}`), &day); err != nil {
		t.Fatalf("Unmarshal null timings: %v", err)
	}
	if len(day.Timings) != 0 {
		t.Errorf("len = %d, want 0", len(day.Timings))
	}
}

func TestTimings_UnmarshalRejectsBadShapes(t *testing.T) {
	tests := map[string]string{
		"array":         `["04:11:00"]`,
		"number label":  `{"04:11:00": 3}`,
		"true label":    `{"04:11:00": true}`,
		"object label":  `{"04:11:00": {"name": "Fajr"}}`,
		"string itself": `"Fajr"`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			var got Timings
			if err := json.Unmarshal([]byte(raw), &got); err == nil {
				t.Errorf("Unmarshal(%s) expected error, got %v", raw, got)
			}
		})
	}
}

func TestTimings_MarshalOrder(t *testing.T) {
	in := Timings{
		{Clock: "12:00:00", Label: Dhuhr},
		{Clock: "04:11:00", Label: Fajr},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"12:00:00":"Dhuhr","04:11:00":"Fajr"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	nilData, err := json.Marshal(Timings(nil))
	if err != nil {
		t.Fatalf("Marshal nil: %v", err)
	}
	if string(nilData) != "{}" {
		t.Errorf("Marshal(nil) = %s, want {}", nilData)
	}
}

func TestDay_DecodeBackendPayload(t *testing.T) {
	raw := `{
		"date": "2022-12-29",
		"timestamp": 1672257661,
		"timings": {"04:11:00": "Fajr", "12:00:00": "Dhuhr"},
		"play_adhan": {"Fajr": true, "Dhuhr": false, "Asr": false, "Maghrib": false, "Isha": false}
	}`

	var day Day
	if err := json.Unmarshal([]byte(raw), &day); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := Day{
		Date:      "2022-12-29",
		Timestamp: 1672257661,
		Timings:   Timings{{Clock: "04:11:00", Label: Fajr}, {Clock: "12:00:00", Label: Dhuhr}},
		PlayAdhan: map[Name]bool{Fajr: true, Dhuhr: false, Asr: false, Maghrib: false, Isha: false},
	}
	if diff := cmp.Diff(want, day); diff != "" {
		t.Errorf("Day (-want +got):\n%s", diff)
	}
}
