package kanidmclient

import (
	"errors"

	kaniopserrors "github.com/kaniop/kaniop/internal/errors"
)

// ErrClusterNotFound and ErrNotReady are the two pool-specific sentinels
// named in spec §4.4, layered on top of the shared error taxonomy so
// callers can still classify them with errors.KindOf.
var (
	ErrClusterNotFound = errors.New("kanidm cluster not found")
	ErrNotReady        = errors.New("kanidm cluster not ready")
)

// WrapClusterNotFound marks err as a missing parent Kanidm cluster.
func WrapClusterNotFound(err error) error {
	if err == nil {
		return nil
	}
	return kaniopserrors.WrapNotFound(errors.Join(ErrClusterNotFound, err))
}

// WrapNotReady marks err as a cluster that exists but has no reachable
// replica yet.
func WrapNotReady(err error) error {
	if err == nil {
		return nil
	}
	return kaniopserrors.WrapNetwork(errors.Join(ErrNotReady, err))
}
