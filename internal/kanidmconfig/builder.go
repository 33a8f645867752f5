// Package kanidmconfig renders the per-pod runtime configuration file
// mounted into each Kanidm replica's emptyDir (spec §4.5 step 4), using
// hclwrite/gohcl the way the teacher's internal/config package renders
// config.hcl, producing a deterministic, byte-for-byte reproducible file
// (sorted map keys) regardless of Go map iteration order.
package kanidmconfig

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

const (
	defaultBindAddress     = "[::]:8443"
	defaultLDAPBindAddress = "[::]:3636"
	defaultOrigin          = "https://%s"
)

// hclCoreAttributes mirrors the top-level kanidmd server config
// attributes gohcl can encode directly into the HCL body.
type hclCoreAttributes struct {
	Domain       string `hcl:"domain"`
	Origin       string `hcl:"origin"`
	BindAddress  string `hcl:"bindaddress"`
	TLSChainPath string `hcl:"tls_chain"`
	TLSKeyPath   string `hcl:"tls_key"`
	DBPath       string `hcl:"db_path"`
	Role         string `hcl:"role"`
}

// RenderOptions carries the topology details needed alongside the Kanidm
// CR to render a complete runtime config, mirroring the teacher's
// InfrastructureDetails parameter to RenderHCL.
type RenderOptions struct {
	// ReplicaGroupName is the replica group this pod belongs to.
	ReplicaGroupName string
	// Role is the Kanidm replication role for this pod's replica group.
	Role kaniopv1beta1.ReplicaGroupRole
	// DataPath is the mounted data volume's path for the sqlite database.
	DataPath string
	// TLSChainPath and TLSKeyPath locate the mounted server TLS material.
	TLSChainPath string
	TLSKeyPath   string
	// LDAPBindAddress is set only when Kanidm.spec.ldapPortName is set.
	LDAPBindAddress string
	// ReplicationOrigin, when set, enables the replication listener on
	// this pod and is rendered as the replication stanza's origin.
	ReplicationOrigin string
	// ReplicationPartners lists the peer origins this pod pulls from or
	// pushes to (external nodes and sibling replica group primaries).
	ReplicationPartners []ReplicationPartner
}

// ReplicationPartner is one entry of a pod's replication configuration.
type ReplicationPartner struct {
	Origin       string
	Type         kaniopv1beta1.ExternalReplicationType
	Automatic    bool
	CertFilePath string
}

// Render produces the complete kanidmd server configuration for one pod
// of the given Kanidm cluster, as HCL text ready to be written into the
// rendered-config emptyDir volume by the kanidm-config-init container.
func Render(kanidm *kaniopv1beta1.Kanidm, opts RenderOptions) ([]byte, error) {
	if kanidm.Spec.Domain == "" {
		return nil, fmt.Errorf("kanidmconfig: domain must not be empty")
	}

	file := hclwrite.NewEmptyFile()
	body := file.Body()

	bindAddress := defaultBindAddress
	origin := fmt.Sprintf(defaultOrigin, kanidm.Spec.Domain)

	role := opts.Role
	if role == "" {
		role = kaniopv1beta1.ReplicaGroupRoleWriteReplica
	}

	gohcl.EncodeIntoBody(hclCoreAttributes{
		Domain:       kanidm.Spec.Domain,
		Origin:       origin,
		BindAddress:  bindAddress,
		TLSChainPath: opts.TLSChainPath,
		TLSKeyPath:   opts.TLSKeyPath,
		DBPath:       opts.DataPath,
		Role:         string(role),
	}, body)

	if opts.LDAPBindAddress != "" {
		body.SetAttributeValue("ldapbindaddress", cty.StringVal(opts.LDAPBindAddress))
	}

	if opts.ReplicationOrigin != "" {
		body.AppendNewline()
		repl := body.AppendNewBlock("replication", nil)
		replBody := repl.Body()
		replBody.SetAttributeValue("origin", cty.StringVal(opts.ReplicationOrigin))
		replBody.SetAttributeValue("bindaddress", cty.StringVal("[::]:8444"))

		partners := append([]ReplicationPartner(nil), opts.ReplicationPartners...)
		sort.Slice(partners, func(i, j int) bool { return partners[i].Origin < partners[j].Origin })

		for _, p := range partners {
			partnerBlock := replBody.AppendNewBlock("partner", []string{p.Origin})
			pBody := partnerBlock.Body()
			pBody.SetAttributeValue("type", cty.StringVal(string(p.Type)))
			pBody.SetAttributeValue("automatic", cty.BoolVal(p.Automatic))
			if p.CertFilePath != "" {
				pBody.SetAttributeValue("cert_path", cty.StringVal(p.CertFilePath))
			}
		}
	}

	return file.Bytes(), nil
}
