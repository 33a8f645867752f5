package kanidm

import (
	"fmt"
	"path"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/constants"
)

const (
	configMountPath         = "/etc/kanidm"
	renderedConfigMountPath = "/etc/kanidm-rendered"
	dataMountPath           = "/data"
	tlsMountPath            = "/etc/kanidm/tls"
	replicationTLSMountPath = "/etc/kanidm/replication-tls"

	renderedConfigFileName = "server.toml"

	envDomain             = "KANIOP_DOMAIN"
	envReplicaGroupName   = "KANIOP_REPLICA_GROUP"
	envRole               = "KANIOP_ROLE"
	envDataPath           = "KANIOP_DATA_PATH"
	envTLSChainPath       = "KANIOP_TLS_CHAIN_PATH"
	envTLSKeyPath         = "KANIOP_TLS_KEY_PATH"
	envLDAPBindAddress    = "KANIOP_LDAP_BIND_ADDRESS"
	envReplicationOrigin  = "KANIOP_REPLICATION_ORIGIN"
	envReplicationPartner = "KANIOP_REPLICATION_PARTNER" // index-suffixed, KANIOP_REPLICATION_PARTNER_0 etc.
	envOutputPath         = "KANIOP_OUTPUT_PATH"
)

// statefulSetName names the StatefulSet for one replica group, following
// the teacher's "<cluster>-<component>" owned-object naming convention.
func statefulSetName(kanidm *kaniopv1beta1.Kanidm, group kaniopv1beta1.ReplicaGroup) string {
	return fmt.Sprintf("%s-%s", kanidm.Name, group.Name)
}

func replicaGroupLabels(kanidm *kaniopv1beta1.Kanidm, group kaniopv1beta1.ReplicaGroup) map[string]string {
	labels := ownedObjectLabels(kanidm)
	labels[constants.LabelAppComponent] = "kanidmd"
	labels[constants.LabelKanidmReplicaGroup] = group.Name
	return labels
}

// buildStatefulSet constructs the StatefulSet for one replica group
// (spec §4.5 step 4): one kanidmd container, env derived from the
// group's role and replication topology, a read-only TLS volume mount, an
// emptyDir-backed rendered-config volume populated by a
// kanidm-config-init init container, grounded on the teacher's
// buildStatefulSetWithRevision/buildContainers/buildInitContainers shape
// condensed to Kaniop's single-image, single-container pod.
func buildStatefulSet(kanidm *kaniopv1beta1.Kanidm, group kaniopv1beta1.ReplicaGroup, opts replicationTopology) (*appsv1.StatefulSet, error) {
	labels := replicaGroupLabels(kanidm, group)
	name := statefulSetName(kanidm, group)

	volumes, dataVolumeClaims, err := buildVolumes(kanidm)
	if err != nil {
		return nil, err
	}

	initContainer := buildConfigInitContainer(kanidm, group, opts)
	container := buildKanidmContainer(kanidm, group)

	podSpec := corev1.PodSpec{
		SecurityContext:  kanidm.Spec.SecurityContext,
		InitContainers:   []corev1.Container{initContainer},
		Containers:       []corev1.Container{container},
		Volumes:          volumes,
		Affinity:         group.Affinity,
		Tolerations:      group.Tolerations,
		TopologySpreadConstraints: group.Topology,
	}

	sts := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:        name,
			Namespace:   kanidm.Namespace,
			Labels:      labels,
			Annotations: group.StatefulSetAnnotations,
		},
		Spec: appsv1.StatefulSetSpec{
			Replicas:    ptr.To(group.Replicas),
			ServiceName: headlessServiceName(kanidm, group),
			Selector: &metav1.LabelSelector{
				MatchLabels: map[string]string{
					constants.LabelAppInstance:     kanidm.Name,
					constants.LabelKanidmReplicaGroup: group.Name,
				},
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec:       podSpec,
			},
			VolumeClaimTemplates: dataVolumeClaims,
			PodManagementPolicy:  appsv1.ParallelPodManagement,
			UpdateStrategy: appsv1.StatefulSetUpdateStrategy{
				Type: appsv1.RollingUpdateStatefulSetStrategyType,
			},
		},
	}

	return sts, nil
}

// buildVolumes returns the Pod volumes and, when the cluster uses
// persistent storage, the StatefulSet's VolumeClaimTemplates. Exactly one
// of the two non-nil storage fields is used, per spec §3.1 KanidmStorage.
func buildVolumes(kanidm *kaniopv1beta1.Kanidm) ([]corev1.Volume, []corev1.PersistentVolumeClaim, error) {
	volumes := []corev1.Volume{
		{
			Name: constants.ConfigRenderedVolumeName,
			VolumeSource: corev1.VolumeSource{
				EmptyDir: &corev1.EmptyDirVolumeSource{},
			},
		},
		{
			Name: constants.TLSVolumeName,
			VolumeSource: corev1.VolumeSource{
				Secret: &corev1.SecretVolumeSource{
					SecretName: tlsSecretName(kanidm),
				},
			},
		},
	}

	storage := kanidm.Spec.Storage
	switch {
	case storage != nil && storage.VolumeClaimTemplate != nil:
		pvc := *storage.VolumeClaimTemplate
		pvc.ObjectMeta.Name = constants.DataVolumeName
		return volumes, []corev1.PersistentVolumeClaim{pvc}, nil
	case storage != nil && storage.Ephemeral != nil:
		volumes = append(volumes, corev1.Volume{
			Name:         constants.DataVolumeName,
			VolumeSource: corev1.VolumeSource{Ephemeral: storage.Ephemeral},
		})
		return volumes, nil, nil
	default:
		emptyDir := &corev1.EmptyDirVolumeSource{}
		if storage != nil && storage.EmptyDir != nil {
			emptyDir = storage.EmptyDir
		}
		volumes = append(volumes, corev1.Volume{
			Name:         constants.DataVolumeName,
			VolumeSource: corev1.VolumeSource{EmptyDir: emptyDir},
		})
		return volumes, nil, nil
	}
}

// replicationTopology carries the render parameters a pod's
// kanidm-config-init container needs, computed once per replica group by
// replication.go's topology builder (spec §4.5 step 7).
type replicationTopology struct {
	ReplicationOrigin   string
	ReplicationPartners []kanidmconfigPartner
}

// kanidmconfigPartner mirrors internal/kanidmconfig.ReplicationPartner's
// fields without importing that package here, since the init container
// consumes these values via environment variables rather than the
// controller calling kanidmconfig.Render in-process (kanidmconfig.Render
// is a pure function meant to run inside the kanidm-config-init binary,
// not the operator).
type kanidmconfigPartner struct {
	Origin       string
	Type         kaniopv1beta1.ExternalReplicationType
	Automatic    bool
	CertFilePath string
}

// buildConfigInitContainer constructs the init container that renders
// this pod's kanidmd server config at startup via
// `kanidm-config-init`, the dedicated binary built from
// internal/kanidmconfig.Render, mirroring the teacher's
// bao-config-init/buildInitContainers split between "render config" and
// "run server" containers.
func buildConfigInitContainer(kanidm *kaniopv1beta1.Kanidm, group kaniopv1beta1.ReplicaGroup, opts replicationTopology) corev1.Container {
	env := []corev1.EnvVar{
		{Name: envDomain, Value: kanidm.Spec.Domain},
		{Name: envReplicaGroupName, Value: group.Name},
		{Name: envRole, Value: string(effectiveRole(group))},
		{Name: envDataPath, Value: dataMountPath},
		{Name: envTLSChainPath, Value: path.Join(tlsMountPath, "tls.crt")},
		{Name: envTLSKeyPath, Value: path.Join(tlsMountPath, "tls.key")},
		{Name: envOutputPath, Value: path.Join(renderedConfigMountPath, renderedConfigFileName)},
	}
	if kanidm.Spec.LDAPPortName != "" {
		env = append(env, corev1.EnvVar{Name: envLDAPBindAddress, Value: "[::]:3636"})
	}
	if opts.ReplicationOrigin != "" {
		env = append(env, corev1.EnvVar{Name: envReplicationOrigin, Value: opts.ReplicationOrigin})
	}
	for i, partner := range opts.ReplicationPartners {
		env = append(env,
			corev1.EnvVar{Name: fmt.Sprintf("%s_%d_ORIGIN", envReplicationPartner, i), Value: partner.Origin},
			corev1.EnvVar{Name: fmt.Sprintf("%s_%d_TYPE", envReplicationPartner, i), Value: string(partner.Type)},
			corev1.EnvVar{Name: fmt.Sprintf("%s_%d_CERT", envReplicationPartner, i), Value: partner.CertFilePath},
		)
	}

	return corev1.Container{
		Name:  constants.ContainerNameConfigInit,
		Image: kanidmImage(kanidm),
		Command: []string{"/kanidm-config-init"},
		Env:     env,
		SecurityContext: &corev1.SecurityContext{
			AllowPrivilegeEscalation: ptr.To(false),
			ReadOnlyRootFilesystem:   ptr.To(true),
			Capabilities:             &corev1.Capabilities{Drop: []corev1.Capability{"ALL"}},
		},
		VolumeMounts: []corev1.VolumeMount{
			{Name: constants.ConfigRenderedVolumeName, MountPath: renderedConfigMountPath},
			{Name: constants.TLSVolumeName, MountPath: tlsMountPath, ReadOnly: true},
		},
	}
}

// buildKanidmContainer constructs the kanidmd server container,
// condensed from the teacher's buildContainers: one process, reading the
// config the init container rendered, with liveness/readiness TCP probes
// against the HTTPS listener.
func buildKanidmContainer(kanidm *kaniopv1beta1.Kanidm, group kaniopv1beta1.ReplicaGroup) corev1.Container {
	portName := kanidm.Spec.PortName
	if portName == "" {
		portName = "https"
	}

	ports := []corev1.ContainerPort{
		{Name: portName, ContainerPort: 8443, Protocol: corev1.ProtocolTCP},
	}
	if kanidm.Spec.LDAPPortName != "" {
		ports = append(ports, corev1.ContainerPort{Name: kanidm.Spec.LDAPPortName, ContainerPort: 3636, Protocol: corev1.ProtocolTCP})
	}

	probe := &corev1.Probe{
		ProbeHandler: corev1.ProbeHandler{
			TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromInt32(8443)},
		},
		InitialDelaySeconds: 5,
		PeriodSeconds:       10,
	}

	env := append([]corev1.EnvVar{}, kanidm.Spec.Env...)

	return corev1.Container{
		Name:      constants.ContainerNameKanidm,
		Image:     kanidmImage(kanidm),
		Command:   []string{constants.BinaryNameKanidm},
		Args:      []string{"server", "-c", path.Join(renderedConfigMountPath, renderedConfigFileName)},
		Env:       env,
		Ports:     ports,
		Resources: group.Resources,
		SecurityContext: &corev1.SecurityContext{
			AllowPrivilegeEscalation: ptr.To(false),
			ReadOnlyRootFilesystem:   ptr.To(true),
			Capabilities:             &corev1.Capabilities{Drop: []corev1.Capability{"ALL"}},
		},
		LivenessProbe:  probe,
		ReadinessProbe: probe,
		VolumeMounts: append([]corev1.VolumeMount{
			{Name: constants.ConfigRenderedVolumeName, MountPath: renderedConfigMountPath},
			{Name: constants.DataVolumeName, MountPath: dataMountPath},
			{Name: constants.TLSVolumeName, MountPath: tlsMountPath, ReadOnly: true},
		}, replicationVolumeMounts(kanidm)...),
	}
}

func replicationVolumeMounts(kanidm *kaniopv1beta1.Kanidm) []corev1.VolumeMount {
	if len(kanidm.Spec.ExternalReplicationNodes) == 0 {
		return nil
	}
	return []corev1.VolumeMount{
		{Name: constants.ReplicationTLSVolumeName, MountPath: replicationTLSMountPath, ReadOnly: true},
	}
}

func effectiveRole(group kaniopv1beta1.ReplicaGroup) kaniopv1beta1.ReplicaGroupRole {
	if group.Role == "" {
		return kaniopv1beta1.ReplicaGroupRoleWriteReplica
	}
	return group.Role
}

func kanidmImage(kanidm *kaniopv1beta1.Kanidm) string {
	if kanidm.Spec.Image != "" {
		return kanidm.Spec.Image
	}
	return defaultKanidmImage
}

func tlsSecretName(kanidm *kaniopv1beta1.Kanidm) string {
	if kanidm.Spec.TLSSecretName != "" {
		return kanidm.Spec.TLSSecretName
	}
	return kanidm.Name + constants.SuffixTLSSecret
}

// defaultKanidmImage is the operator's pinned Kanidm release, used when
// Kanidm.spec.image is empty.
const defaultKanidmImage = "kanidm/server:latest"

// sortedReplicaGroups returns a copy of the cluster's replica groups
// sorted by name, used wherever deterministic StatefulSet build order
// matters (tests, and avoiding reconcile churn from map-derived ordering
// upstream).
func sortedReplicaGroups(kanidm *kaniopv1beta1.Kanidm) []kaniopv1beta1.ReplicaGroup {
	groups := append([]kaniopv1beta1.ReplicaGroup{}, kanidm.Spec.ReplicaGroups...)
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups
}
