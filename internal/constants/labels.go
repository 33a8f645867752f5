package constants

// Common Kubernetes label keys applied to every object the operator owns.
const (
	LabelAppName      = "app.kubernetes.io/name"
	LabelAppInstance  = "app.kubernetes.io/instance"
	LabelAppManagedBy = "app.kubernetes.io/managed-by"
	LabelAppComponent = "app.kubernetes.io/component"

	LabelKanidmCluster      = "kanidm.kaniop.rs/cluster"
	LabelKanidmReplicaGroup = "kanidm.kaniop.rs/replica-group"
)

// Common label values used by the operator.
const (
	LabelValueAppNameKanidm   = "kanidm"
	LabelValueManagedByKaniop = "kaniop"
)
