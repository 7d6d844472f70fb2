package normalization

import (
	"testing"
	"time"

	"escalationserver/canonical"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestNormalizer() *Normalizer {
	return NewNormalizerWithClock(
		canonical.NewResolver(canonical.DefaultDictionaries()),
		func() time.Time { return testNow },
	)
}

func TestCleanTicketURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "tracking params stripped",
			raw:  "https://t.example/x?utm_source=mail&utm_medium=link",
			want: "https://t.example/x",
		},
		{
			name: "junk marker truncated before params stripped",
			raw:  "https://t.example/x?utm=1Subject: hi",
			want: "https://t.example/x",
		},
		{
			name: "whitespace trimmed",
			raw:  "  https://t.example/y  ",
			want: "https://t.example/y",
		},
		{
			name: "unparseable kept truncated and trimmed",
			raw:  "not a url Subject: junk",
			want: "not a url",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
		{
			name: "only junk after marker",
			raw:  "Subject: all junk",
			want: "",
		},
		{
			name: "clean url unchanged",
			raw:  "https://t.example/z",
			want: "https://t.example/z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanTicketURL(tt.raw)
			if got != tt.want {
				t.Errorf("CleanTicketURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

// TestCleanTicketURLIdempotence повторная чистка уже очищенного URL ничего не меняет
func TestCleanTicketURLIdempotence(t *testing.T) {
	inputs := []string{
		"https://t.example/x?utm=1Subject: hi",
		"https://t.example/a/b/c?q=1&r=2",
		"not a url at all",
		"  https://t.example/y  ",
	}

	for _, raw := range inputs {
		once := CleanTicketURL(raw)
		twice := CleanTicketURL(once)
		if once != twice {
			t.Errorf("CleanTicketURL not idempotent for %q: %q != %q", raw, once, twice)
		}
	}
}

func TestCoerceTimestamp(t *testing.T) {
	n := newTestNormalizer()
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input any
		want  time.Time
	}{
		{name: "native time.Time", input: want, want: want},
		{name: "RFC 3339 string", input: "2024-03-01T10:00:00Z", want: want},
		{name: "date-only string", input: "2024-03-01", want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "space-separated string", input: "2024-03-01 10:00:00", want: want},
		{name: "garbage falls back to now", input: "not-a-date", want: testNow},
		{name: "nil falls back to now", input: nil, want: testNow},
		{name: "number falls back to now", input: 42.0, want: testNow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.CoerceTimestamp(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("CoerceTimestamp(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMonthBucket(t *testing.T) {
	tests := []struct {
		name string
		ts   time.Time
		want string
	}{
		{
			name: "zero-padded month",
			ts:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			want: "2024-03",
		},
		{
			name: "december",
			ts:   time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
			want: "2023-12",
		},
		{
			name: "UTC calendar fields, not local",
			ts:   time.Date(2024, 4, 1, 1, 0, 0, 0, time.FixedZone("UTC+5", 5*3600)),
			want: "2024-03", // 2024-04-01T01:00+05:00 == 2024-03-31T20:00Z
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthBucket(tt.ts)
			if got != tt.want {
				t.Errorf("MonthBucket(%v) = %q, want %q", tt.ts, got, tt.want)
			}
		})
	}
}

func TestNormalizeFieldAliasing(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name         string
		doc          map[string]any
		wantBuilding string
		wantTeam     string
	}{
		{
			name:         "primary keys",
			doc:          map[string]any{"building": "chinn", "escalatedTo": "infra"},
			wantBuilding: "CN",
			wantTeam:     "INFRA",
		},
		{
			name:         "alias keys",
			doc:          map[string]any{"buildingName": "plaza", "team": "apps"},
			wantBuilding: "PL",
			wantTeam:     "APPS",
		},
		{
			name:         "primary wins over alias",
			doc:          map[string]any{"building": "CN", "buildingName": "plaza", "escalatedTo": "DEV", "team": "apps"},
			wantBuilding: "CN",
			wantTeam:     "DEV",
		},
		{
			name:         "empty primary falls through to alias",
			doc:          map[string]any{"building": "  ", "buildingName": "walden", "escalatedTo": "", "team": "av"},
			wantBuilding: "WL",
			wantTeam:     "AV",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := n.Normalize(tt.doc)
			if fields.Building == nil {
				t.Fatalf("Normalize(%v).Building = nil", tt.doc)
			}
			if fields.Building.Code != tt.wantBuilding {
				t.Errorf("building code = %q, want %q", fields.Building.Code, tt.wantBuilding)
			}
			if fields.TeamCode != tt.wantTeam {
				t.Errorf("team code = %q, want %q", fields.TeamCode, tt.wantTeam)
			}
		})
	}
}

func TestNormalizeMissingFields(t *testing.T) {
	n := newTestNormalizer()

	fields := n.Normalize(map[string]any{"subject": "Printer down"})

	if fields.Building != nil {
		t.Errorf("Building should be nil for absent input, got %v", fields.Building)
	}
	if fields.TeamCode != "" {
		t.Errorf("TeamCode should be empty for absent input, got %q", fields.TeamCode)
	}
	if fields.DatePresent {
		t.Error("DatePresent should be false when no date keys exist")
	}
	if !fields.EscalationDate.Equal(testNow) {
		t.Errorf("EscalationDate should fall back to now, got %v", fields.EscalationDate)
	}
}

func TestNormalizeDateAliasing(t *testing.T) {
	n := newTestNormalizer()
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	fields := n.Normalize(map[string]any{"receivedDateTime": "2024-03-01T10:00:00Z"})
	if !fields.DatePresent {
		t.Error("DatePresent should be true for receivedDateTime alias")
	}
	if !fields.EscalationDate.Equal(want) {
		t.Errorf("EscalationDate = %v, want %v", fields.EscalationDate, want)
	}
	if fields.YYYYMM != "2024-03" {
		t.Errorf("YYYYMM = %q, want %q", fields.YYYYMM, "2024-03")
	}
}
