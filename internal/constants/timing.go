package constants

import "time"

// Requeue intervals used by controllers when no explicit backoff applies.
const (
	RequeueShort    = 5 * time.Second
	RequeueStandard = 1 * time.Minute
)

// Deadlines applied to outbound calls (spec §5 "Per-call deadlines").
const (
	KanidmAPITimeout    = 30 * time.Second
	UpgradeCheckTimeout = 5 * time.Minute
	ShutdownGracePeriod = 10 * time.Second
)

// Backoff Coordinator tuning (spec §4.2).
const (
	BackoffBase = 1 * time.Second
	BackoffCap  = 5 * time.Minute
)

// TLSRenewalWindow is how far ahead of expiry a replication certificate is
// rotated (spec §4.5 step 3).
const TLSRenewalWindow = 30 * 24 * time.Hour

// DefaultReconcilerConcurrency is the default bounded concurrency per
// controller (spec §5).
const DefaultReconcilerConcurrency = 4
