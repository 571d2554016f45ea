package domain

import "testing"

func TestDecideEntitlement(t *testing.T) {
	cases := []struct {
		name            string
		templatePremium bool
		resumePaid      bool
		req             Requester
		allowed         bool
	}{
		{"free template always allowed", false, false, Requester{}, true},
		{"premium unpaid anonymous refused", true, false, Requester{}, false},
		{"premium with single purchase", true, true, Requester{}, true},
		{"premium with active subscription", true, false, Requester{IsPremium: true, SubscriptionActive: true}, true},
		{"premium flag without active subscription refused", true, false, Requester{IsPremium: true}, false},
		{"active flag without premium refused", true, false, Requester{SubscriptionActive: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := DecideEntitlement(tc.templatePremium, tc.resumePaid, tc.req)
			if d.Allowed != tc.allowed {
				t.Fatalf("allowed=%v, want %v (reason %q)", d.Allowed, tc.allowed, d.Reason)
			}
			if d.Reason == "" {
				t.Fatal("decision must carry a reason")
			}
		})
	}
}
