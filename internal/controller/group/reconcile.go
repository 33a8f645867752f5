package group

import (
	"context"
	"fmt"
	"strings"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	kanioperrors "github.com/kaniop/kaniop/internal/errors"
	"github.com/kaniop/kaniop/internal/kanidmclient"
	"github.com/kaniop/kaniop/internal/kanidmentity"
	"github.com/kaniop/kaniop/internal/kanidmentity/diff"
)

// applyGroup implements spec §4.6 steps 2-5,8 for one KanidmGroup:
// fetch-or-create the remote entity, then diff and converge its
// attributes in the deterministic order the spec requires (identity
// attributes before membership).
func applyGroup(ctx context.Context, client *kanidmclient.Client, group *kaniopv1beta1.KanidmGroup) error {
	name := remoteName(group)

	remote, err := client.GetGroup(ctx, name)
	if err != nil {
		if kanioperrors.KindOf(err) != kanioperrors.KindNotFound {
			return fmt.Errorf("getting group %q: %w", name, err)
		}
		if err := client.CreateGroup(ctx, name, group.Spec.EntryManagedBy); err != nil {
			return fmt.Errorf("creating group %q: %w", name, err)
		}
		remote = &kanidmclient.Group{Name: name, EntryManagedBy: group.Spec.EntryManagedBy}
	}

	// Identity attributes before membership (spec §4.6 step 4).
	if group.Spec.EntryManagedBy != "" && group.Spec.EntryManagedBy != remote.EntryManagedBy {
		if err := client.SetGroupEntryManagedBy(ctx, name, group.Spec.EntryManagedBy); err != nil {
			return fmt.Errorf("setting entry_managed_by on group %q: %w", name, err)
		}
	}

	if err := applyGroupMail(ctx, client, name, remote.Mail, group.Spec.Mail); err != nil {
		return err
	}

	if err := applyGroupMembers(ctx, client, name, remote.Members, group.Spec.Members); err != nil {
		return err
	}

	if group.Spec.Posix != nil {
		if err := client.UnixExtendGroup(ctx, name, group.Spec.Posix.GIDNumber); err != nil {
			return fmt.Errorf("extending group %q with posix attributes: %w", name, err)
		}
	}

	return nil
}

// applyGroupMail converges the ordered mail set (spec §4.6 step 8: head
// is primary, order-preserving). A nil spec value means "unset": the
// remote value is left untouched (partial ownership). A non-nil, empty
// slice is an explicit purge.
func applyGroupMail(ctx context.Context, client *kanidmclient.Client, name string, remote, desired []string) error {
	if desired == nil {
		return nil
	}
	if mailEqual(remote, desired) {
		return nil
	}
	if len(desired) == 0 {
		if err := client.PurgeGroupMail(ctx, name); err != nil {
			return fmt.Errorf("purging mail on group %q: %w", name, err)
		}
		return nil
	}
	if err := client.SetGroupMail(ctx, name, desired); err != nil {
		return fmt.Errorf("setting mail on group %q: %w", name, err)
	}
	return nil
}

func mailEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// applyGroupMembers converges the unordered membership set, normalizing
// both sides to bare local-part names before comparison (spec §4.6 step
// 8). A nil spec value means "unset": existing membership is left alone.
func applyGroupMembers(ctx context.Context, client *kanidmclient.Client, name string, remote, desired []string) error {
	if desired == nil {
		return nil
	}

	normalizedRemote := normalizeMembers(remote)
	normalizedDesired := normalizeMembers(desired)

	d := diff.Sets(normalizedRemote, normalizedDesired)
	if d.Empty() {
		return nil
	}
	if err := client.SetGroupMembers(ctx, name, normalizedDesired); err != nil {
		return fmt.Errorf("setting members on group %q: %w", name, err)
	}
	return nil
}

// normalizeMembers lowercases each member's local-part before the '@'
// for case-insensitive comparison, matching spec §4.6 step 8's
// "normalized case-insensitively before the local-part @".
func normalizeMembers(members []string) []string {
	out := make([]string, len(members))
	for i, m := range members {
		local := kanidmentity.ShortName(m)
		domain := strings.TrimPrefix(m, local)
		out[i] = strings.ToLower(local) + domain
	}
	return out
}
