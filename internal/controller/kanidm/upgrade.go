package kanidm

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/go-containerregistry/pkg/name"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/constants"
	"github.com/kaniop/kaniop/internal/security"
)

// imageVersion parses the tag of an image reference as a semver-ish
// major.minor.patch triple, returning ok=false when the reference has no
// parseable version tag (e.g. "latest" or a digest-pinned reference),
// grounded on the teacher's go-containerregistry usage for image
// reference handling in its signature verifier.
func imageVersion(imageRef string) (major, minor, patch int, ok bool) {
	ref, err := name.ParseReference(imageRef)
	if err != nil {
		return 0, 0, 0, false
	}
	tagged, isTagged := ref.(name.Tag)
	if !isTagged {
		return 0, 0, 0, false
	}
	parts := strings.SplitN(strings.TrimPrefix(tagged.TagStr(), "v"), ".", 3)
	if len(parts) < 2 {
		return 0, 0, 0, false
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, false
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, false
	}
	if len(parts) == 3 {
		patch, _ = strconv.Atoi(strings.SplitN(parts[2], "-", 2)[0])
	}
	return major, minor, patch, true
}

// checkUpgradeSkew rejects a jump of more than one minor version (spec
// §4.5 step 6: "reject multi-minor jumps -> Upgrading=False,
// reason=SkewTooLarge"). Same-major, same-or-adjacent-minor upgrades
// (including patch-only upgrades) are allowed through to the pre-check
// probe. Either version failing to parse is treated as allowed, since an
// unparseable tag (e.g. a moving "latest") carries no skew information to
// reject on.
func checkUpgradeSkew(currentImage, desiredImage string) error {
	curMajor, curMinor, _, curOK := imageVersion(currentImage)
	newMajor, newMinor, _, newOK := imageVersion(desiredImage)
	if !curOK || !newOK {
		return nil
	}
	if newMajor != curMajor {
		return fmt.Errorf("upgrade from %s to %s crosses a major version", currentImage, desiredImage)
	}
	if newMinor-curMinor > 1 {
		return fmt.Errorf("upgrade from %s to %s skips more than one minor version", currentImage, desiredImage)
	}
	if newMinor < curMinor {
		return fmt.Errorf("downgrade from %s to %s is not permitted", currentImage, desiredImage)
	}
	return nil
}

// isPatchOnlyUpgrade reports whether desiredImage only advances the patch
// component relative to currentImage, the one case spec §4.5 step 6 lets
// skip the pre-check probe gate.
func isPatchOnlyUpgrade(currentImage, desiredImage string) bool {
	curMajor, curMinor, _, curOK := imageVersion(currentImage)
	newMajor, newMinor, _, newOK := imageVersion(desiredImage)
	return curOK && newOK && curMajor == newMajor && curMinor == newMinor
}

const (
	upgradePrecheckJobTTLSeconds = 3600
	upgradePrecheckContainerName = "kanidm-upgrade-precheck"
)

func upgradePrecheckJobName(kanidm *kaniopv1beta1.Kanidm, desiredImage string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(desiredImage))
	return fmt.Sprintf("%s-upgrade-precheck-%x", kanidm.Name, h.Sum32())
}

// upgradePrecheckResult reports the outcome of the one-shot pre-check Job
// spec §4.5 step 6 requires before a same-minor upgrade rolls out.
type upgradePrecheckResult struct {
	Succeeded bool
	Failed    bool
	Running   bool
}

// EnsureUpgradePrecheckJob creates (if absent) and reports on the
// one-shot pre-check Job that validates a same-minor version jump before
// the StatefulSets are rolled, grounded on the teacher's
// ensureUpgradeExecutorJob get-or-create-then-poll-status pattern.
func EnsureUpgradePrecheckJob(ctx context.Context, c client.Client, scheme *runtime.Scheme, kanidm *kaniopv1beta1.Kanidm, desiredImage string) (*upgradePrecheckResult, error) {
	jobName := upgradePrecheckJobName(kanidm, desiredImage)

	job := &batchv1.Job{}
	err := c.Get(ctx, types.NamespacedName{Namespace: kanidm.Namespace, Name: jobName}, job)
	if err == nil {
		switch {
		case job.Status.Succeeded > 0:
			return &upgradePrecheckResult{Succeeded: true}, nil
		case job.Status.Failed > 0:
			return &upgradePrecheckResult{Failed: true}, nil
		default:
			return &upgradePrecheckResult{Running: true}, nil
		}
	}
	if !apierrors.IsNotFound(err) {
		return nil, fmt.Errorf("getting upgrade pre-check job %s/%s: %w", kanidm.Namespace, jobName, err)
	}

	built := buildUpgradePrecheckJob(kanidm, jobName, desiredImage)
	if err := controllerutil.SetControllerReference(kanidm, built, scheme); err != nil {
		return nil, fmt.Errorf("setting owner reference on upgrade pre-check job: %w", err)
	}
	if err := c.Create(ctx, built); err != nil {
		if apierrors.IsAlreadyExists(err) {
			return &upgradePrecheckResult{Running: true}, nil
		}
		return nil, fmt.Errorf("creating upgrade pre-check job %s/%s: %w", kanidm.Namespace, jobName, err)
	}
	return &upgradePrecheckResult{Running: true}, nil
}

func buildUpgradePrecheckJob(kanidm *kaniopv1beta1.Kanidm, jobName, desiredImage string) *batchv1.Job {
	backoffLimit := int32(0)
	ttl := int32(upgradePrecheckJobTTLSeconds)

	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      jobName,
			Namespace: kanidm.Namespace,
			Labels:    ownedObjectLabels(kanidm),
		},
		Spec: batchv1.JobSpec{
			BackoffLimit:            &backoffLimit,
			TTLSecondsAfterFinished: &ttl,
			ActiveDeadlineSeconds:   ptr.To(int64(constants.UpgradeCheckTimeout.Seconds())),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: ownedObjectLabels(kanidm)},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{
						{
							Name:    upgradePrecheckContainerName,
							Image:   desiredImage,
							Command: []string{"kanidmd"},
							Args:    []string{"database", "verify", "-c", "/etc/kanidm/server.toml"},
							SecurityContext: &corev1.SecurityContext{
								AllowPrivilegeEscalation: ptr.To(false),
								ReadOnlyRootFilesystem:   ptr.To(true),
								Capabilities:             &corev1.Capabilities{Drop: []corev1.Capability{"ALL"}},
							},
						},
					},
				},
			},
		},
	}
}

// verifyUpgradeImage checks the desired image's signature when
// Kanidm.spec.imageVerification.publicKey is set, delegating to the
// already-built internal/security.VerifyImageForKanidm (spec §4.5 step
// 6's optional signature gate).
func verifyUpgradeImage(ctx context.Context, logger logr.Logger, c client.Client, kanidm *kaniopv1beta1.Kanidm, imageRef string) (string, error) {
	return security.VerifyImageForKanidm(ctx, logger, c, kanidm, imageRef)
}
