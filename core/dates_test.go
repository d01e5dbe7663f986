package core

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "empty", value: "", wantErr: true},
		{name: "not a date", value: "lmaooolol", wantErr: true},
		{name: "instant format", value: "2024-03-15T00:00:00Z", wantErr: true},
		{name: "Feb 30", value: "2024-02-30", wantErr: true},
		{name: "leap day", value: "2024-02-29"},
		{name: "valid", value: "2024-03-15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if d.Location() != time.Local {
					t.Errorf("ParseDate() location = %v; want local", d.Location())
				}
				if got := FormatDate(d); got != tt.value {
					t.Errorf("round-trip = %s; want %s", got, tt.value)
				}
			}
		})
	}
}

func TestValidateDate(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name       string
		value      string
		wantReason string
	}{
		{name: "invalid format", value: "15/03/2024", wantReason: errDateFormat},
		{name: "missing zero padding", value: "2024-3-5", wantReason: errDateFormat},
		{name: "invalid month", value: "2024-13-01", wantReason: errDateMonth},
		{name: "zero month", value: "2024-00-10", wantReason: errDateMonth},
		{name: "invalid day", value: "2024-01-32", wantReason: errDateDay},
		{name: "zero day", value: "2024-01-00", wantReason: errDateDay},
		{name: "Feb 30", value: "2024-02-30", wantReason: errDateNotReal},
		{name: "Feb 29 non-leap", value: "2023-02-29", wantReason: errDateNotReal},
		{name: "too old", value: "1899-12-31", wantReason: errDateYear},
		{name: "year too far ahead", value: "2099-01-01", wantReason: errDateYear},
		{name: "ten years and a day ahead", value: "2034-03-16", wantReason: errDateTooAhead},
		{name: "exactly ten years ahead", value: "2034-03-15"},
		{name: "min year", value: "1900-01-01"},
		{name: "leap day", value: "2024-02-29"},
		{name: "today", value: "2024-03-15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDate(tt.value, now)
			if tt.wantReason == "" {
				if err != nil {
					t.Fatalf("ValidateDate() unexpected error = %v", err)
				}
				return
			}
			vErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("ValidateDate() error = %v, want *ValidationError(%s)", err, tt.wantReason)
			}
			if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "date" || vErr.Fields[0].Error != tt.wantReason {
				t.Errorf("ValidateDate() fields = %+v, want date: %s", vErr.Fields, tt.wantReason)
			}
		})
	}
}

func TestValidateDate_roundTrip(t *testing.T) {
	for _, value := range []string{"1900-01-01", "1987-06-30", "2020-02-29", "2024-12-31"} {
		if err := ValidateDate(value); err != nil {
			t.Errorf("ValidateDate(%s) unexpected error = %v", value, err)
		}
		d, err := ParseDate(value)
		if err != nil {
			t.Fatalf("ParseDate(%s) failed: %v", value, err)
		}
		if got := FormatDate(d); got != value {
			t.Errorf("FormatDate(ParseDate(%s)) = %s", value, got)
		}
	}
}
