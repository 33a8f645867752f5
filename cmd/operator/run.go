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

// Package operator implements the "operator" subcommand: the manager
// process hosting the Kanidm Cluster Controller and the four
// identity-entity controllers (spec §4.5, §4.6), grounded on the
// teacher's cmd/controller.Run manager bootstrap, trimmed of the
// teacher's multi-tenant namespace-scoped-RBAC cache exclusions and OIDC
// discovery, neither of which apply to Kaniop's single cluster-scoped
// ClusterRole deployment model.
package operator

import (
	"context"
	"crypto/tls"
	"flag"
	"net/http"
	"os"

	// Import all Kubernetes client auth plugins (e.g. Azure, GCP, OIDC, etc.)
	// to ensure that exec-entrypoint and run can make use of them.
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/controller-runtime/pkg/metrics/filters"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/backoff"
	certmanager "github.com/kaniop/kaniop/internal/certs"
	"github.com/kaniop/kaniop/internal/constants"
	"github.com/kaniop/kaniop/internal/controller/group"
	"github.com/kaniop/kaniop/internal/controller/kanidm"
	"github.com/kaniop/kaniop/internal/controller/oauth2client"
	"github.com/kaniop/kaniop/internal/controller/person"
	"github.com/kaniop/kaniop/internal/controller/serviceaccount"
	"github.com/kaniop/kaniop/internal/kanidmclient"
	"github.com/kaniop/kaniop/internal/kanidmentity"
	"github.com/kaniop/kaniop/internal/kaniopcontext"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(kaniopv1beta1.AddToScheme(scheme))
}

// Run parses args as the operator subcommand's own flag set and blocks
// until the manager stops.
func Run(args []string) {
	fs := flag.NewFlagSet("operator", flag.ExitOnError)

	var metricsAddr string
	var metricsCertPath, metricsCertName, metricsCertKey string
	var enableLeaderElection bool
	var probeAddr string
	var secureMetrics bool
	var enableHTTP2 bool
	var tlsOpts []func(*tls.Config)

	fs.StringVar(&metricsAddr, "metrics-bind-address", ":8443", "The address the metrics endpoint binds to.")
	fs.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	fs.BoolVar(&enableLeaderElection, "leader-elect", false,
		"Enable leader election for the operator. Enabling this will ensure there is only one active operator.")
	fs.BoolVar(&secureMetrics, "metrics-secure", true,
		"If set, the metrics endpoint is served securely via HTTPS. Use --metrics-secure=false to use HTTP instead.")
	fs.StringVar(&metricsCertPath, "metrics-cert-path", "", "The directory that contains the metrics server certificate.")
	fs.StringVar(&metricsCertName, "metrics-cert-name", "tls.crt", "The name of the metrics server certificate file.")
	fs.StringVar(&metricsCertKey, "metrics-cert-key", "tls.key", "The name of the metrics server key file.")
	fs.BoolVar(&enableHTTP2, "enable-http2", false, "If set, HTTP/2 will be enabled for the metrics server")

	opts := zap.Options{Development: true}
	opts.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		setupLog.Error(err, "parsing operator flags")
		os.Exit(1)
	}

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	// Disabling HTTP/2 by default guards against the Stream Cancellation
	// and Rapid Reset CVEs; see GHSA-qppj-fm5r-hxr3 and GHSA-4374-p667-p6c8.
	if !enableHTTP2 {
		tlsOpts = append(tlsOpts, func(c *tls.Config) {
			setupLog.Info("disabling http/2")
			c.NextProtos = []string{"http/1.1"}
		})
	}

	metricsServerOptions := metricsserver.Options{
		BindAddress:   metricsAddr,
		SecureServing: secureMetrics,
		TLSOpts:       tlsOpts,
	}
	if secureMetrics {
		metricsServerOptions.FilterProvider = filters.WithAuthenticationAndAuthorization
	}
	if len(metricsCertPath) > 0 {
		setupLog.Info("initializing metrics certificate watcher using provided certificates",
			"metrics-cert-path", metricsCertPath, "metrics-cert-name", metricsCertName, "metrics-cert-key", metricsCertKey)
		metricsServerOptions.CertDir = metricsCertPath
		metricsServerOptions.CertName = metricsCertName
		metricsServerOptions.KeyName = metricsCertKey
	}

	shutdownTimeout := constants.ShutdownGracePeriod
	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                  scheme,
		Metrics:                 metricsServerOptions,
		HealthProbeBindAddress:  probeAddr,
		LeaderElection:          enableLeaderElection,
		LeaderElectionID:        "kaniop-operator-leader.kaniop.rs",
		GracefulShutdownTimeout: &shutdownTimeout,
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		os.Exit(1)
	}

	wc, err := client.NewWithWatch(mgr.GetConfig(), client.Options{Scheme: mgr.GetScheme()})
	if err != nil {
		setupLog.Error(err, "unable to create watch client for object store layer")
		os.Exit(1)
	}

	// The operator process keeps Secret, Kanidm and the four entity stores
	// warm; the readiness check below reports ready only once they have
	// synced. The Kanidm Client Pool's resolve callback does not read
	// them: it looks up Secrets and Kanidm CRs through mgr.GetClient().
	stores, err := kaniopcontext.NewStores(context.Background(), wc,
		kaniopcontext.StoreSecrets, kaniopcontext.StoreKanidm,
		kaniopcontext.StoreGroups, kaniopcontext.StorePersons,
		kaniopcontext.StoreOAuth2, kaniopcontext.StoreSvcAcct,
	)
	if err != nil {
		setupLog.Error(err, "unable to start object store layer")
		os.Exit(1)
	}

	pool := kanidmclient.New(func(ctx context.Context, cluster kanidmclient.ClusterIdentity) (kanidmclient.ClientConfig, error) {
		return kanidmentity.ResolveClientConfig(ctx, mgr.GetClient(), cluster)
	})

	kctx := kaniopcontext.Context{
		Client:   mgr.GetClient(),
		Scheme:   mgr.GetScheme(),
		Recorder: mgr.GetEventRecorderFor("kaniop-operator"),
		Log:      ctrl.Log.WithName("controllers"),
		Stores:   stores,
		Pool:     pool,
		Backoff:  backoff.New(),
	}

	reloadSignaler := certmanager.NewKubernetesReloadSignaler(mgr.GetClient())
	certs := certmanager.NewManagerWithReloader(mgr.GetClient(), mgr.GetScheme(), reloadSignaler)

	if err := (&kanidm.Reconciler{Context: kctx, Certs: certs}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Kanidm")
		os.Exit(1)
	}
	if err := (&group.Reconciler{Context: kctx}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "KanidmGroup")
		os.Exit(1)
	}
	if err := (&person.Reconciler{Context: kctx}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "KanidmPersonAccount")
		os.Exit(1)
	}
	if err := (&oauth2client.Reconciler{Context: kctx}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "KanidmOAuth2Client")
		os.Exit(1)
	}
	if err := (&serviceaccount.Reconciler{Context: kctx}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "KanidmServiceAccount")
		os.Exit(1)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		os.Exit(1)
	}
	if err := mgr.AddReadyzCheck("readyz", func(_ *http.Request) error {
		if !kctx.Stores.HasSynced() {
			return errNotSynced{}
		}
		return nil
	}); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		os.Exit(1)
	}

	setupLog.Info("starting operator")
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "problem running manager")
		os.Exit(1)
	}
}

type errNotSynced struct{}

func (errNotSynced) Error() string { return "object store layer not yet synced" }
