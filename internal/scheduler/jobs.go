package scheduler

import "context"

const (
	JobPaymentReset = "payment-reset"
	JobTokenCleanup = "token-cleanup"
)

type PaymentResetter interface {
	ResetMonthlyFlags(ctx context.Context) (int64, error)
}

type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PaymentReset clears last month's paid flags so every student starts the
// month pending.
func PaymentReset(spec string, p PaymentResetter) Job {
	return Func{JobName: JobPaymentReset, Spec: spec, Fn: p.ResetMonthlyFlags}
}

// TokenCleanup deletes expired confirmation tokens.
func TokenCleanup(spec string, p TokenPurger) Job {
	return Func{JobName: JobTokenCleanup, Spec: spec, Fn: p.PurgeExpired}
}
