package reminders

import "testing"

func TestParseSchedule(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "five field cron", raw: "0 9 * * *", want: "0 9 * * *"},
		{name: "descriptor", raw: "@daily", want: "@daily"},
		{name: "duration", raw: "6h", want: "@every 6h0m0s"},
		{name: "duration minutes", raw: "90m", want: "@every 1h30m0s"},
		{name: "trimmed", raw: "  @hourly  ", want: "@hourly"},
		{name: "sub-minute rejected", raw: "30s", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "garbage", raw: "every tuesday", wantErr: true},
		{name: "six fields rejected", raw: "0 0 9 * * *", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchedule(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSchedule(%q) = %q, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSchedule(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseSchedule(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
