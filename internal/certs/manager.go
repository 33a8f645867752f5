// Package certs issues and rotates the self-signed CA and server
// certificate backing a Kanidm cluster's HTTPS and replication listeners
// (spec §4.5 step 3 "TLS + replication cert rotation"), condensed from the
// teacher's internal/certs Manager down to the single TLS mode Kaniop
// needs: operator-managed certificates, always on. Kanidm serves both its
// user-facing HTTPS API and its inter-node replication protocol off the
// same listener certificate, so one CA and one server certificate Secret
// per cluster covers both (ServerAuth for clients, ClientAuth so peers can
// authenticate each other during mutual-pull replication).
package certs

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"strings"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/constants"
	recon "github.com/kaniop/kaniop/internal/reconcile"
)

const (
	caCertKey  = "ca.crt"
	caKeyKey   = "ca.key"
	tlsCertKey = "tls.crt"
	tlsKeyKey  = "tls.key"

	caCertValidityYears    = 10
	serverCertValidityDays = 365

	fieldOwner = "kaniop-cert-manager"
)

// Manager reconciles the CA and server TLS Secrets for one Kanidm cluster.
type Manager struct {
	client   client.Client
	scheme   *runtime.Scheme
	reloader ReloadSignaler
}

// ReloadSignaler is consulted whenever a server certificate is issued or
// rotated, so pods serving the previous certificate can be recycled.
type ReloadSignaler interface {
	SignalReload(ctx context.Context, logger logr.Logger, kanidm *kaniopv1beta1.Kanidm, certHash string) error
}

type noopReloadSignaler struct{}

func (noopReloadSignaler) SignalReload(context.Context, logr.Logger, *kaniopv1beta1.Kanidm, string) error {
	return nil
}

// NewManager constructs a Manager with a no-op reload signaler.
func NewManager(c client.Client, scheme *runtime.Scheme) *Manager {
	return NewManagerWithReloader(c, scheme, nil)
}

// NewManagerWithReloader constructs a Manager that calls r whenever the
// server certificate changes. A nil r is replaced with a no-op.
func NewManagerWithReloader(c client.Client, scheme *runtime.Scheme, r ReloadSignaler) *Manager {
	if r == nil {
		r = noopReloadSignaler{}
	}
	return &Manager{client: c, scheme: scheme, reloader: r}
}

func (m *Manager) applySecret(ctx context.Context, secret *corev1.Secret) error {
	secret.TypeMeta = metav1.TypeMeta{APIVersion: "v1", Kind: "Secret"}
	return m.client.Patch(ctx, secret, client.Apply, client.FieldOwner(fieldOwner), client.ForceOwnership)
}

// Reconcile ensures the CA and server TLS Secrets for kanidm exist, are
// signed for the correct SANs, and get rotated within
// constants.TLSRenewalWindow of expiry.
func (m *Manager) Reconcile(ctx context.Context, logger logr.Logger, kanidm *kaniopv1beta1.Kanidm) (recon.Result, error) {
	metrics := newTLSMetrics(kanidm.Namespace, kanidm.Name)
	now := time.Now()

	caName := caSecretName(kanidm)
	caSecret := &corev1.Secret{}
	if err := m.client.Get(ctx, types.NamespacedName{Namespace: kanidm.Namespace, Name: caName}, caSecret); err != nil {
		if !apierrors.IsNotFound(err) {
			return recon.Result{}, fmt.Errorf("getting CA secret %s/%s: %w", kanidm.Namespace, caName, err)
		}

		logger.Info("CA secret not found; generating new CA", "secret", caName)
		caCertPEM, caKeyPEM, genErr := generateCA(kanidm, now)
		if genErr != nil {
			return recon.Result{}, fmt.Errorf("generating CA for %s/%s: %w", kanidm.Namespace, kanidm.Name, genErr)
		}

		caSecret = buildCASecret(kanidm, caName, caCertPEM, caKeyPEM)
		if err := controllerutil.SetControllerReference(kanidm, caSecret, m.scheme); err != nil {
			return recon.Result{}, fmt.Errorf("setting owner reference on CA secret %s/%s: %w", kanidm.Namespace, caName, err)
		}
		if err := m.applySecret(ctx, caSecret); err != nil {
			return recon.Result{}, fmt.Errorf("applying CA secret %s/%s: %w", kanidm.Namespace, caName, err)
		}
	}

	caCert, caKey, caCertPEM, err := parseCAFromSecret(caSecret)
	if err != nil {
		return recon.Result{}, fmt.Errorf("parsing CA secret %s/%s: %w", kanidm.Namespace, caName, err)
	}

	serverName := serverSecretName(kanidm)
	serverSecret := &corev1.Secret{}
	err = m.client.Get(ctx, types.NamespacedName{Namespace: kanidm.Namespace, Name: serverName}, serverSecret)
	switch {
	case err != nil && !apierrors.IsNotFound(err):
		return recon.Result{}, fmt.Errorf("getting server TLS secret %s/%s: %w", kanidm.Namespace, serverName, err)

	case apierrors.IsNotFound(err):
		logger.Info("server TLS secret not found; issuing new certificate", "secret", serverName)
		return m.issueAndApply(ctx, logger, kanidm, caCert, caKey, caCertPEM, serverName, now, metrics)
	}

	serverCert, parseErr := parseServerCertificateFromSecret(serverSecret)
	if parseErr != nil {
		logger.Info("existing server certificate could not be parsed; reissuing", "secret", serverName)
		return m.issueAndApply(ctx, logger, kanidm, caCert, caKey, caCertPEM, serverName, now, metrics)
	}

	expectedDNS, expectedIPs, sansErr := buildServerSANs(kanidm)
	if sansErr != nil {
		return recon.Result{}, fmt.Errorf("computing expected SANs for %s/%s: %w", kanidm.Namespace, kanidm.Name, sansErr)
	}
	if !certSANsMatch(serverCert, expectedDNS, expectedIPs) {
		logger.Info("server certificate SANs are stale; reissuing", "secret", serverName)
		return m.issueAndApply(ctx, logger, kanidm, caCert, caKey, caCertPEM, serverName, now, metrics)
	}

	if shouldRotateServerCert(serverCert, now) {
		logger.Info("server certificate is within the renewal window; rotating", "secret", serverName)
		return m.issueAndApply(ctx, logger, kanidm, caCert, caKey, caCertPEM, serverName, now, metrics)
	}

	metrics.setServerCertExpiry(serverCert.NotAfter)
	return recon.Result{}, nil
}

func (m *Manager) issueAndApply(ctx context.Context, logger logr.Logger, kanidm *kaniopv1beta1.Kanidm, caCert *x509.Certificate, caKey *ecdsa.PrivateKey, caCertPEM []byte, serverName string, now time.Time, metrics *tlsMetrics) (recon.Result, error) {
	certPEM, keyPEM, err := issueServerCertificate(kanidm, caCert, caKey, now)
	if err != nil {
		return recon.Result{}, fmt.Errorf("issuing server certificate for %s/%s: %w", kanidm.Namespace, kanidm.Name, err)
	}

	serverSecret := buildServerSecret(kanidm, serverName, certPEM, keyPEM, caCertPEM)
	if err := controllerutil.SetControllerReference(kanidm, serverSecret, m.scheme); err != nil {
		return recon.Result{}, fmt.Errorf("setting owner reference on server TLS secret %s/%s: %w", kanidm.Namespace, serverName, err)
	}
	if err := m.applySecret(ctx, serverSecret); err != nil {
		return recon.Result{}, fmt.Errorf("applying server TLS secret %s/%s: %w", kanidm.Namespace, serverName, err)
	}

	if err := m.signalReload(ctx, logger, kanidm, certPEM); err != nil {
		return recon.Result{}, err
	}

	metrics.setServerCertExpiry(now.AddDate(0, 0, serverCertValidityDays))
	metrics.incrementRotation()
	return recon.Result{}, nil
}

func (m *Manager) signalReload(ctx context.Context, logger logr.Logger, kanidm *kaniopv1beta1.Kanidm, certPEM []byte) error {
	sum := sha256.Sum256(certPEM)
	if err := m.reloader.SignalReload(ctx, logger, kanidm, fmt.Sprintf("%x", sum[:])); err != nil {
		return fmt.Errorf("signaling TLS reload for %s/%s: %w", kanidm.Namespace, kanidm.Name, err)
	}
	return nil
}

func caSecretName(kanidm *kaniopv1beta1.Kanidm) string {
	return kanidm.Name + constants.SuffixTLSCASecret
}

func serverSecretName(kanidm *kaniopv1beta1.Kanidm) string {
	if kanidm.Spec.TLSSecretName != "" {
		return kanidm.Spec.TLSSecretName
	}
	return kanidm.Name + constants.SuffixTLSSecret
}

func generateCA(kanidm *kaniopv1beta1.Kanidm, now time.Time) ([]byte, []byte, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generating CA private key: %w", err)
	}

	serialNumber, err := randSerialNumber()
	if err != nil {
		return nil, nil, fmt.Errorf("generating CA serial number: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName:   fmt.Sprintf("%s Kanidm Root CA", kanidm.Name),
			Organization: []string{"Kaniop"},
		},
		NotBefore:             now.Add(-1 * time.Hour),
		NotAfter:              now.AddDate(caCertValidityYears, 0, 0),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("creating CA certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyDER, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling CA private key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	return certPEM, keyPEM, nil
}

func buildCASecret(kanidm *kaniopv1beta1.Kanidm, name string, certPEM, keyPEM []byte) *corev1.Secret {
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: kanidm.Namespace},
		Type:       corev1.SecretTypeOpaque,
		Data: map[string][]byte{
			caCertKey: certPEM,
			caKeyKey:  keyPEM,
		},
	}
}

func parseCAFromSecret(secret *corev1.Secret) (*x509.Certificate, *ecdsa.PrivateKey, []byte, error) {
	certPEM, ok := secret.Data[caCertKey]
	if !ok || len(certPEM) == 0 {
		return nil, nil, nil, fmt.Errorf("missing %q in CA secret", caCertKey)
	}
	keyPEM, ok := secret.Data[caKeyKey]
	if !ok || len(keyPEM) == 0 {
		return nil, nil, nil, fmt.Errorf("missing %q in CA secret", caKeyKey)
	}

	cert, err := parseCertificate(certPEM)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parsing CA certificate: %w", err)
	}
	privateKey, err := parseECDSAPrivateKey(keyPEM)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parsing CA private key: %w", err)
	}

	return cert, privateKey, certPEM, nil
}

func issueServerCertificate(kanidm *kaniopv1beta1.Kanidm, caCert *x509.Certificate, caKey *ecdsa.PrivateKey, now time.Time) ([]byte, []byte, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generating server private key: %w", err)
	}

	serialNumber, err := randSerialNumber()
	if err != nil {
		return nil, nil, fmt.Errorf("generating server certificate serial number: %w", err)
	}

	dnsNames, ipAddresses, err := buildServerSANs(kanidm)
	if err != nil {
		return nil, nil, fmt.Errorf("computing server certificate SANs: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName:   kanidm.Spec.Domain,
			Organization: []string{"Kaniop"},
		},
		NotBefore: now.Add(-1 * time.Hour),
		NotAfter:  now.AddDate(0, 0, serverCertValidityDays),
		KeyUsage:  x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		// ServerAuth for client HTTPS/LDAPS, ClientAuth so mutual-pull
		// replication peers can authenticate this node back.
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		DNSNames:    dnsNames,
		IPAddresses: ipAddresses,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, caCert, &privateKey.PublicKey, caKey)
	if err != nil {
		return nil, nil, fmt.Errorf("creating server certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyDER, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling server private key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	return certPEM, keyPEM, nil
}

func buildServerSecret(kanidm *kaniopv1beta1.Kanidm, name string, certPEM, keyPEM, caCertPEM []byte) *corev1.Secret {
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: kanidm.Namespace},
		Type:       corev1.SecretTypeTLS,
		Data: map[string][]byte{
			tlsCertKey: certPEM,
			tlsKeyKey:  keyPEM,
			caCertKey:  caCertPEM,
		},
	}
}

func randSerialNumber() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("generating serial number: %w", err)
	}
	return serialNumber, nil
}

func parseCertificate(pemBytes []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("decoding certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing certificate: %w", err)
	}
	return cert, nil
}

func parseECDSAPrivateKey(pemBytes []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil || block.Type != "EC PRIVATE KEY" {
		return nil, fmt.Errorf("decoding ECDSA private key PEM")
	}
	privateKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing ECDSA private key: %w", err)
	}
	return privateKey, nil
}

// buildServerSANs covers every DNS name a Kanidm pod might be reached
// under: the per-replica-group StatefulSet pod names, the headless and
// public Services, namespace-wide wildcards, the cluster's domain, and any
// extra ingress TLS hosts. Pod IPs are deliberately excluded; they churn on
// every pod recreation and would force rotation for no security benefit.
func buildServerSANs(kanidm *kaniopv1beta1.Kanidm) ([]string, []net.IP, error) {
	namespace := strings.TrimSpace(kanidm.Namespace)
	if namespace == "" {
		return nil, nil, fmt.Errorf("namespace is required to build server certificate SANs")
	}
	name := strings.TrimSpace(kanidm.Name)

	dnsSet := map[string]struct{}{"localhost": {}}
	ipSet := map[string]struct{}{"127.0.0.1": {}}

	addDNS := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			dnsSet[s] = struct{}{}
		}
	}
	addIP := func(ip net.IP) {
		if ip != nil {
			ipSet[ip.String()] = struct{}{}
		}
	}

	if kanidm.Spec.Domain != "" {
		addDNS(kanidm.Spec.Domain)
	}

	if name != "" {
		addDNS(fmt.Sprintf("%s.%s.svc", name, namespace))
		addDNS(fmt.Sprintf("%s.%s.svc.cluster.local", name, namespace))
		addDNS(fmt.Sprintf("*.%s.%s.svc", name, namespace))
		addDNS(fmt.Sprintf("*.%s.%s.svc.cluster.local", name, namespace))

		for _, group := range kanidm.Spec.ReplicaGroups {
			stsName := fmt.Sprintf("%s-%s", name, group.Name)
			headless := fmt.Sprintf("%s-%s-headless", name, group.Name)
			for i := int32(0); i < group.Replicas; i++ {
				addDNS(fmt.Sprintf("%s-%d.%s.%s.svc", stsName, i, headless, namespace))
				addDNS(fmt.Sprintf("%s-%d.%s.%s.svc.cluster.local", stsName, i, headless, namespace))
			}
		}
	}

	addDNS(fmt.Sprintf("*.%s.svc", namespace))
	addDNS(fmt.Sprintf("*.%s.svc.cluster.local", namespace))

	if ing := kanidm.Spec.Ingress; ing != nil {
		for _, host := range ing.ExtraTLSHosts {
			addDNS(host)
		}
	}

	for _, node := range kanidm.Spec.ExternalReplicationNodes {
		if ip := net.ParseIP(node.Hostname); ip != nil {
			addIP(ip)
			continue
		}
		addDNS(node.Hostname)
	}

	dnsNames := make([]string, 0, len(dnsSet))
	for name := range dnsSet {
		dnsNames = append(dnsNames, name)
	}
	ipAddresses := make([]net.IP, 0, len(ipSet))
	for key := range ipSet {
		ipAddresses = append(ipAddresses, net.ParseIP(key))
	}

	return dnsNames, ipAddresses, nil
}

func parseServerCertificateFromSecret(secret *corev1.Secret) (*x509.Certificate, error) {
	certPEM, ok := secret.Data[tlsCertKey]
	if !ok || len(certPEM) == 0 {
		return nil, fmt.Errorf("missing %q in server TLS secret", tlsCertKey)
	}
	return parseCertificate(certPEM)
}

// certSANsMatch reports whether cert already covers every expected SAN.
// Extra SANs on the certificate (e.g. a since-scaled-down replica group)
// are tolerated; only missing coverage forces a reissue.
func certSANsMatch(cert *x509.Certificate, expectedDNS []string, expectedIPs []net.IP) bool {
	certDNS := make(map[string]struct{}, len(cert.DNSNames))
	for _, dns := range cert.DNSNames {
		certDNS[dns] = struct{}{}
	}
	certIPs := make(map[string]struct{}, len(cert.IPAddresses))
	for _, ip := range cert.IPAddresses {
		if ip != nil {
			certIPs[ip.String()] = struct{}{}
		}
	}

	for _, dns := range expectedDNS {
		if _, ok := certDNS[dns]; !ok {
			return false
		}
	}
	for _, ip := range expectedIPs {
		if ip == nil {
			continue
		}
		if _, ok := certIPs[ip.String()]; !ok {
			return false
		}
	}
	return true
}

func shouldRotateServerCert(cert *x509.Certificate, now time.Time) bool {
	return cert.NotAfter.Sub(now) < constants.TLSRenewalWindow
}
