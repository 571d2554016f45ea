package domain

// Requester carries the payment-relevant identity attributes of the caller
// at the pipeline boundary. Billing state is read from external
// collaborators and treated as booleans here.
type Requester struct {
	IsPremium          bool
	SubscriptionActive bool
}

// EntitlementDecision is derived, never stored: it is recomputed on every
// export request so it always reflects current payment state.
type EntitlementDecision struct {
	Allowed bool
	Reason  string
}

// DecideEntitlement determines whether an unwatermarked export is allowed.
// Free templates are always exportable; premium templates require either a
// per-resume purchase or an active premium subscription.
func DecideEntitlement(templatePremium, resumePaid bool, req Requester) EntitlementDecision {
	switch {
	case !templatePremium:
		return EntitlementDecision{Allowed: true, Reason: "free_template"}
	case resumePaid:
		return EntitlementDecision{Allowed: true, Reason: "resume_paid"}
	case req.IsPremium && req.SubscriptionActive:
		return EntitlementDecision{Allowed: true, Reason: "active_subscription"}
	default:
		return EntitlementDecision{Allowed: false, Reason: "premium_template_unpaid"}
	}
}
