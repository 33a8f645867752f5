/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// kanidm-config-init renders one pod's kanidmd runtime configuration
// from the KANIOP_* environment variables the StatefulSet's init
// container spec sets, mirroring the teacher's cmd/bao-config-init: a
// small, dependency-light binary that reads environment rather than
// calling back into the Kubernetes API from inside an init container.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/kanidmconfig"
)

const (
	envDomain             = "KANIOP_DOMAIN"
	envReplicaGroupName   = "KANIOP_REPLICA_GROUP"
	envRole               = "KANIOP_ROLE"
	envDataPath           = "KANIOP_DATA_PATH"
	envTLSChainPath       = "KANIOP_TLS_CHAIN_PATH"
	envTLSKeyPath         = "KANIOP_TLS_KEY_PATH"
	envLDAPBindAddress    = "KANIOP_LDAP_BIND_ADDRESS"
	envReplicationOrigin  = "KANIOP_REPLICATION_ORIGIN"
	envReplicationPartner = "KANIOP_REPLICATION_PARTNER"
	envOutputPath         = "KANIOP_OUTPUT_PATH"

	renderedConfigFileMode = 0o644
)

func partnersFromEnviron(environ []string) []kanidmconfig.ReplicationPartner {
	origins := map[int]string{}
	types := map[int]string{}
	automatic := map[int]bool{}
	certs := map[int]string{}

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, envReplicationPartner+"_") {
			continue
		}
		rest := strings.TrimPrefix(key, envReplicationPartner+"_")
		idxStr, suffix, ok := strings.Cut(rest, "_")
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			continue
		}
		switch suffix {
		case "ORIGIN":
			origins[idx] = value
		case "TYPE":
			types[idx] = value
		case "CERT":
			certs[idx] = value
		}
		automatic[idx] = true
	}

	indexes := make([]int, 0, len(origins))
	for idx := range origins {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	partners := make([]kanidmconfig.ReplicationPartner, 0, len(indexes))
	for _, idx := range indexes {
		partners = append(partners, kanidmconfig.ReplicationPartner{
			Origin:       origins[idx],
			Type:         kaniopv1beta1.ExternalReplicationType(types[idx]),
			Automatic:    automatic[idx],
			CertFilePath: certs[idx],
		})
	}
	return partners
}

func run() error {
	domain := os.Getenv(envDomain)
	if domain == "" {
		return fmt.Errorf("%s is required", envDomain)
	}
	outputPath := os.Getenv(envOutputPath)
	if outputPath == "" {
		return fmt.Errorf("%s is required", envOutputPath)
	}

	kanidm := &kaniopv1beta1.Kanidm{Spec: kaniopv1beta1.KanidmSpec{Domain: domain}}

	opts := kanidmconfig.RenderOptions{
		ReplicaGroupName:    os.Getenv(envReplicaGroupName),
		Role:                kaniopv1beta1.ReplicaGroupRole(os.Getenv(envRole)),
		DataPath:            os.Getenv(envDataPath),
		TLSChainPath:        os.Getenv(envTLSChainPath),
		TLSKeyPath:          os.Getenv(envTLSKeyPath),
		LDAPBindAddress:     os.Getenv(envLDAPBindAddress),
		ReplicationOrigin:   os.Getenv(envReplicationOrigin),
		ReplicationPartners: partnersFromEnviron(os.Environ()),
	}

	rendered, err := kanidmconfig.Render(kanidm, opts)
	if err != nil {
		return fmt.Errorf("rendering kanidmd config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o750); err != nil {
		return fmt.Errorf("creating output directory %q: %w", filepath.Dir(outputPath), err)
	}
	if err := os.WriteFile(outputPath, rendered, renderedConfigFileMode); err != nil {
		return fmt.Errorf("writing rendered config to %q: %w", outputPath, err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "kanidm-config-init:", err)
		os.Exit(1)
	}
}
