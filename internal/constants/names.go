package constants

// Suffixes used when deriving the names of owned Kubernetes objects from a
// Kanidm CR name (see spec §6 "Owned-object naming conventions").
const (
	SuffixAdminSecret = "-admin"
	SuffixTLSSecret   = "-tls"
	SuffixTLSCASecret = "-tls-ca"
)

// Well-known container and binary names inside the Kanidm Pod.
const (
	ContainerNameKanidm      = "kanidmd"
	ContainerNameConfigInit  = "kanidm-config-init"
	BinaryNameKanidm         = "kanidmd"
	BinaryNameKanidmctl      = "kanidm"
	ConfigVolumeName         = "kanidm-config"
	ConfigRenderedVolumeName = "kanidm-config-rendered"
	TLSVolumeName            = "kanidm-tls"
	ReplicationTLSVolumeName = "kanidm-replication-tls"
	DataVolumeName           = "kanidm-data"
)

// Finalizer strings. One finalizer per reconciled kind, following the
// convention of the rest of the kaniop.rs API group.
const (
	FinalizerKanidm             = "kaniop.rs/kanidm-finalizer"
	FinalizerGroup              = "kaniop.rs/kanidmgroup-finalizer"
	FinalizerPerson             = "kaniop.rs/kanidmpersonaccount-finalizer"
	FinalizerOAuth2Client       = "kaniop.rs/kanidmoauth2client-finalizer"
	FinalizerServiceAccount     = "kaniop.rs/kanidmserviceaccount-finalizer"
)

// ControllerName identifies each controller in logs, metrics, and events.
const (
	ControllerNameKanidm         = "kanidm"
	ControllerNameGroup          = "kanidmgroup"
	ControllerNamePerson         = "kanidmpersonaccount"
	ControllerNameOAuth2Client   = "kanidmoauth2client"
	ControllerNameServiceAccount = "kanidmserviceaccount"
)
