package kanidm

import (
	"testing"

	corev1 "k8s.io/api/core/v1"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/constants"
)

func TestStatefulSetNameIsClusterAndGroup(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")
	group := kanidm.Spec.ReplicaGroups[0]

	if got, want := statefulSetName(kanidm, group), "idm-primary"; got != want {
		t.Fatalf("statefulSetName() = %q, want %q", got, want)
	}
}

func TestBuildStatefulSetHasConfigInitAndKanidmdContainers(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")
	group := kanidm.Spec.ReplicaGroups[0]

	sts, err := buildStatefulSet(kanidm, group, replicationTopology{})
	if err != nil {
		t.Fatalf("buildStatefulSet() error = %v", err)
	}

	if got := len(sts.Spec.Template.Spec.InitContainers); got != 1 {
		t.Fatalf("expected exactly one init container, got %d", got)
	}
	if got := sts.Spec.Template.Spec.InitContainers[0].Name; got != "kanidm-config-init" {
		t.Fatalf("init container name = %q, want %q", got, "kanidm-config-init")
	}

	if got := len(sts.Spec.Template.Spec.Containers); got != 1 {
		t.Fatalf("expected exactly one main container, got %d", got)
	}
	if got := sts.Spec.Template.Spec.Containers[0].Name; got != "kanidmd" {
		t.Fatalf("main container name = %q, want %q", got, "kanidmd")
	}

	if sts.Spec.Replicas == nil || *sts.Spec.Replicas != group.Replicas {
		t.Fatalf("expected replicas to match group.Replicas = %d", group.Replicas)
	}
}

func TestBuildStatefulSetUsesDefaultImageWhenUnset(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")
	group := kanidm.Spec.ReplicaGroups[0]

	sts, err := buildStatefulSet(kanidm, group, replicationTopology{})
	if err != nil {
		t.Fatalf("buildStatefulSet() error = %v", err)
	}
	if got := sts.Spec.Template.Spec.Containers[0].Image; got != defaultKanidmImage {
		t.Fatalf("container image = %q, want %q", got, defaultKanidmImage)
	}
}

func TestBuildVolumesUsesVolumeClaimTemplateWhenSet(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")
	kanidm.Spec.Storage = &kaniopv1beta1.KanidmStorage{
		VolumeClaimTemplate: &corev1.PersistentVolumeClaim{},
	}

	volumes, claims, err := buildVolumes(kanidm)
	if err != nil {
		t.Fatalf("buildVolumes() error = %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("expected one volume claim template, got %d", len(claims))
	}
	for _, v := range volumes {
		if v.Name == constants.DataVolumeName {
			t.Fatal("expected no data emptyDir volume when a volume claim template is set")
		}
	}
}

func TestBuildVolumesDefaultsToEmptyDir(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")

	volumes, claims, err := buildVolumes(kanidm)
	if err != nil {
		t.Fatalf("buildVolumes() error = %v", err)
	}
	if len(claims) != 0 {
		t.Fatalf("expected no volume claim templates, got %d", len(claims))
	}
	found := false
	for _, v := range volumes {
		if v.VolumeSource.EmptyDir != nil {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an emptyDir volume by default")
	}
}

func TestEffectiveRoleDefaultsToWriteReplica(t *testing.T) {
	group := kaniopv1beta1.ReplicaGroup{Name: "a"}
	if got := effectiveRole(group); got != kaniopv1beta1.ReplicaGroupRoleWriteReplica {
		t.Fatalf("effectiveRole() = %q, want %q", got, kaniopv1beta1.ReplicaGroupRoleWriteReplica)
	}
}

func TestSortedReplicaGroupsIsStable(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")
	kanidm.Spec.ReplicaGroups = []kaniopv1beta1.ReplicaGroup{
		{Name: "b", Replicas: 1},
		{Name: "a", Replicas: 1},
	}

	groups := sortedReplicaGroups(kanidm)
	if groups[0].Name != "a" || groups[1].Name != "b" {
		t.Fatalf("expected sorted order [a, b], got [%s, %s]", groups[0].Name, groups[1].Name)
	}
}
