package kanidm

import (
	"context"
	"testing"

	batchv1 "k8s.io/api/batch/v1"
	"k8s.io/apimachinery/pkg/types"
)

func TestImageVersionParsesMajorMinorPatch(t *testing.T) {
	major, minor, patch, ok := imageVersion("kanidm/server:1.4.2")
	if !ok {
		t.Fatal("expected imageVersion to parse a well-formed tag")
	}
	if major != 1 || minor != 4 || patch != 2 {
		t.Fatalf("imageVersion() = %d.%d.%d, want 1.4.2", major, minor, patch)
	}
}

func TestImageVersionRejectsUnparseableTag(t *testing.T) {
	if _, _, _, ok := imageVersion("kanidm/server:latest"); ok {
		t.Fatal("expected imageVersion to report ok=false for a non-semver tag")
	}
}

func TestCheckUpgradeSkewAllowsAdjacentMinor(t *testing.T) {
	if err := checkUpgradeSkew("kanidm/server:1.4.0", "kanidm/server:1.5.0"); err != nil {
		t.Fatalf("unexpected error for an adjacent minor upgrade: %v", err)
	}
}

func TestCheckUpgradeSkewRejectsMultiMinorJump(t *testing.T) {
	if err := checkUpgradeSkew("kanidm/server:1.4.0", "kanidm/server:1.6.0"); err == nil {
		t.Fatal("expected an error for a multi-minor version jump")
	}
}

func TestCheckUpgradeSkewRejectsMajorVersionChange(t *testing.T) {
	if err := checkUpgradeSkew("kanidm/server:1.4.0", "kanidm/server:2.0.0"); err == nil {
		t.Fatal("expected an error for a major version change")
	}
}

func TestCheckUpgradeSkewRejectsDowngrade(t *testing.T) {
	if err := checkUpgradeSkew("kanidm/server:1.5.0", "kanidm/server:1.4.0"); err == nil {
		t.Fatal("expected an error for a downgrade")
	}
}

func TestCheckUpgradeSkewAllowsUnparseableVersions(t *testing.T) {
	if err := checkUpgradeSkew("kanidm/server:latest", "kanidm/server:dev"); err != nil {
		t.Fatalf("unexpected error when neither tag is parseable: %v", err)
	}
}

func TestIsPatchOnlyUpgrade(t *testing.T) {
	if !isPatchOnlyUpgrade("kanidm/server:1.4.0", "kanidm/server:1.4.3") {
		t.Fatal("expected a same-minor version bump to be patch-only")
	}
	if isPatchOnlyUpgrade("kanidm/server:1.4.0", "kanidm/server:1.5.0") {
		t.Fatal("expected a minor version bump to not be patch-only")
	}
}

func TestUpgradePrecheckJobNameIsDeterministic(t *testing.T) {
	kanidm := newTestKanidm("idm", "default")

	a := upgradePrecheckJobName(kanidm, "kanidm/server:1.5.0")
	b := upgradePrecheckJobName(kanidm, "kanidm/server:1.5.0")
	if a != b {
		t.Fatalf("expected the same job name for the same image, got %q and %q", a, b)
	}

	c := upgradePrecheckJobName(kanidm, "kanidm/server:1.6.0")
	if a == c {
		t.Fatal("expected different images to produce different job names")
	}
}

func TestEnsureUpgradePrecheckJobCreatesThenReportsRunning(t *testing.T) {
	scheme, builder := newFakeClient(t)
	c := builder.Build()
	kanidm := newTestKanidm("idm", "default")

	result, err := EnsureUpgradePrecheckJob(context.Background(), c, scheme, kanidm, "kanidm/server:1.5.0")
	if err != nil {
		t.Fatalf("EnsureUpgradePrecheckJob() error = %v", err)
	}
	if !result.Running {
		t.Fatal("expected a freshly created pre-check job to report Running")
	}

	jobName := upgradePrecheckJobName(kanidm, "kanidm/server:1.5.0")
	job := &batchv1.Job{}
	if err := c.Get(context.Background(), types.NamespacedName{Namespace: kanidm.Namespace, Name: jobName}, job); err != nil {
		t.Fatalf("expected pre-check job to exist: %v", err)
	}
}

func TestEnsureUpgradePrecheckJobReportsSucceeded(t *testing.T) {
	scheme, builder := newFakeClient(t)
	kanidm := newTestKanidm("idm", "default")
	jobName := upgradePrecheckJobName(kanidm, "kanidm/server:1.5.0")

	existing := buildUpgradePrecheckJob(kanidm, jobName, "kanidm/server:1.5.0")
	existing.Status.Succeeded = 1
	c := builder.WithObjects(existing).Build()

	result, err := EnsureUpgradePrecheckJob(context.Background(), c, scheme, kanidm, "kanidm/server:1.5.0")
	if err != nil {
		t.Fatalf("EnsureUpgradePrecheckJob() error = %v", err)
	}
	if !result.Succeeded {
		t.Fatal("expected EnsureUpgradePrecheckJob to report Succeeded")
	}
}
