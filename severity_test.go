package main

import "testing"

func TestEstimateSeverity(t *testing.T) {
	cases := []struct {
		name  string
		label string
		text  string
		want  Severity
	}{
		{"high outranks medium", "card issue", "fraud charge on my account", SeverityHigh},
		{"stolen", "card issue", "someone STOLEN my wallet and used my card", SeverityHigh},
		{"unauthorized", "account issue", "there is an Unauthorized debit on my statement", SeverityHigh},
		{"salary", "account issue", "salary not credited for two days now", SeverityHigh},
		{"attrition risk", "account issue", "fix this or I am closing my account", SeverityHigh},
		{"fraud label plain text", "fraud or security issue", "please look into this", SeverityLow},
		{"medium fee", "account issue", "unexpected $25 fee", SeverityMedium},
		{"medium declined", "card issue", "my card was declined at checkout", SeverityMedium},
		{"default low", "praise", "nice app, thanks", SeverityLow},
		{"empty text", "general inquiry", "", SeverityLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimateSeverity(tc.label, tc.text); got != tc.want {
				t.Fatalf("EstimateSeverity(%q, %q) = %s, want %s", tc.label, tc.text, got, tc.want)
			}
		})
	}
}

func TestEstimateSeverityIgnoresLabel(t *testing.T) {
	// The tier comes from the text alone; routing must not change it.
	for _, label := range CandidateLabels {
		if got := EstimateSeverity(label, "unexpected $25 fee"); got != SeverityMedium {
			t.Errorf("EstimateSeverity(%q, fee text) = %s, want Medium", label, got)
		}
		if got := EstimateSeverity(label, "nice app, thanks"); got != SeverityLow {
			t.Errorf("EstimateSeverity(%q, praise text) = %s, want Low", label, got)
		}
	}
}

func TestEstimateSeverityIsCaseInsensitive(t *testing.T) {
	if got := EstimateSeverity("card issue", "FRAUD alert!!!"); got != SeverityHigh {
		t.Fatalf("expected High for uppercase keyword, got %s", got)
	}
}
