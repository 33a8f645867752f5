package constants

// Condition types shared across the five reconciled kinds (spec §3.2 status
// envelope and §4.5/§4.6 per-kind Conditions).
const (
	ConditionReady              = "Ready"
	ConditionInitialized        = "Initialized"
	ConditionUpdated            = "Updated"
	ConditionProgressing        = "Progressing"
	ConditionTLSValid           = "TLSValid"
	ConditionReplicationHealthy = "ReplicationHealthy"
	ConditionUpgrading          = "Upgrading"
)

// Condition reasons. Stable identifiers per spec §7 ("reasons are stable
// identifiers").
const (
	ReasonReady          = "Ready"
	ReasonInvalid        = "Invalid"
	ReasonNotReady        = "NotReady"
	ReasonAuthFailed     = "AuthFailed"
	ReasonRemoteError    = "RemoteError"
	ReasonProgressing    = "Progressing"
	ReasonSkewTooLarge   = "SkewTooLarge"
	ReasonPending        = "Pending"
	ReasonDeleting       = "Deleting"
)
