package kanidm

import (
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/constants"
)

// headlessServiceName names the per-replica-group headless Service used
// for StatefulSet pod DNS and replication addressability (spec §4.5 step
// 4 "headless per-pod Service").
func headlessServiceName(kanidm *kaniopv1beta1.Kanidm, group kaniopv1beta1.ReplicaGroup) string {
	return fmt.Sprintf("%s-%s-headless", kanidm.Name, group.Name)
}

// groupServiceName names the group-level Service load-balancing across a
// single replica group's ready pods.
func groupServiceName(kanidm *kaniopv1beta1.Kanidm, group kaniopv1beta1.ReplicaGroup) string {
	return fmt.Sprintf("%s-%s", kanidm.Name, group.Name)
}

// globalServiceName names the cluster-wide Service load-balancing across
// every pod of the cluster, the one most clients and the Ingress target.
func globalServiceName(kanidm *kaniopv1beta1.Kanidm) string {
	return kanidm.Name
}

func servicePorts(kanidm *kaniopv1beta1.Kanidm) []corev1.ServicePort {
	portName := kanidm.Spec.PortName
	if portName == "" {
		portName = "https"
	}
	ports := []corev1.ServicePort{
		{Name: portName, Port: 443, TargetPort: intstr.FromString(portName)},
	}
	if kanidm.Spec.LDAPPortName != "" {
		ports = append(ports, corev1.ServicePort{Name: kanidm.Spec.LDAPPortName, Port: 636, TargetPort: intstr.FromString(kanidm.Spec.LDAPPortName)})
	}
	return ports
}

// buildHeadlessService constructs the per-replica-group headless
// Service (ClusterIP: None) StatefulSet pods register against for stable
// DNS names, following the teacher's one-headless-Service-per-StatefulSet
// convention.
func buildHeadlessService(kanidm *kaniopv1beta1.Kanidm, group kaniopv1beta1.ReplicaGroup) *corev1.Service {
	labels := replicaGroupLabels(kanidm, group)
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      headlessServiceName(kanidm, group),
			Namespace: kanidm.Namespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			ClusterIP: corev1.ClusterIPNone,
			Selector: map[string]string{
				constants.LabelAppInstance:        kanidm.Name,
				constants.LabelKanidmReplicaGroup: group.Name,
			},
			Ports:                    servicePorts(kanidm),
			PublishNotReadyAddresses: true,
		},
	}
}

// buildGroupService constructs the group-level Service routing to one
// replica group's ready pods.
func buildGroupService(kanidm *kaniopv1beta1.Kanidm, group kaniopv1beta1.ReplicaGroup) *corev1.Service {
	labels := replicaGroupLabels(kanidm, group)
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      groupServiceName(kanidm, group),
			Namespace: kanidm.Namespace,
			Labels:    labels,
		},
		Spec: corev1.ServiceSpec{
			Selector: map[string]string{
				constants.LabelAppInstance:        kanidm.Name,
				constants.LabelKanidmReplicaGroup: group.Name,
			},
			Ports: servicePorts(kanidm),
		},
	}
}

// buildGlobalService constructs the cluster-wide Service fronting every
// pod of the cluster; read replicas are not excluded. Session affinity is REQUIRED once more than one write
// replica exists (spec §4.5 step 5): Kanidm's write path is not
// multi-master-safe across concurrent sessions, so a client must keep
// talking to the same backend pod for the duration of a session.
func buildGlobalService(kanidm *kaniopv1beta1.Kanidm) *corev1.Service {
	labels := ownedObjectLabels(kanidm)
	svcType := corev1.ServiceTypeClusterIP
	var annotations map[string]string
	if kanidm.Spec.Service != nil {
		if kanidm.Spec.Service.Type != "" {
			svcType = kanidm.Spec.Service.Type
		}
		annotations = kanidm.Spec.Service.Annotations
	}

	spec := corev1.ServiceSpec{
		Type: svcType,
		Selector: map[string]string{
			constants.LabelAppInstance: kanidm.Name,
		},
		Ports: servicePorts(kanidm),
	}

	if countWriteReplicas(kanidm) > 1 {
		spec.SessionAffinity = corev1.ServiceAffinityClientIP
		spec.SessionAffinityConfig = &corev1.SessionAffinityConfig{
			ClientIP: &corev1.ClientIPConfig{TimeoutSeconds: ptr.To(int32(10800))},
		}
		// Adds the kanidmd component label to the selector. Every
		// replica group's pods carry that label, read replicas
		// included, so the selected set of pods does not shrink.
		spec.Selector[constants.LabelAppComponent] = "kanidmd"
	}

	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:        globalServiceName(kanidm),
			Namespace:   kanidm.Namespace,
			Labels:      labels,
			Annotations: annotations,
		},
		Spec: spec,
	}
}

func countWriteReplicas(kanidm *kaniopv1beta1.Kanidm) int32 {
	var total int32
	for _, group := range kanidm.Spec.ReplicaGroups {
		switch effectiveRole(group) {
		case kaniopv1beta1.ReplicaGroupRoleWriteReplica, kaniopv1beta1.ReplicaGroupRoleWriteReplicaNoUI:
			total += group.Replicas
		}
	}
	return total
}
