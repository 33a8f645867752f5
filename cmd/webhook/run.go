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

// Package webhook implements the "webhook" subcommand: the standalone
// Admission Validator process (spec §4.7), kept out of the operator
// process so the validating webhook's availability never rides on the
// operator's own restart cycle.
package webhook

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
	"github.com/kaniop/kaniop/internal/kaniopcontext"
	"github.com/kaniop/kaniop/internal/webhook/admission"
)

var setupLog = ctrl.Log.WithName("setup")

// Run parses args as the webhook subcommand's own flag set and serves
// until it receives an interrupt.
func Run(args []string) {
	fs := flag.NewFlagSet("webhook", flag.ExitOnError)

	var listenAddress, tlsCertPath, tlsKeyPath string
	var tlsReloadDebounce time.Duration

	fs.StringVar(&listenAddress, "listen-address", ":8443", "The address the admission webhook HTTPS server binds to.")
	fs.StringVar(&tlsCertPath, "tls-cert", "/tmp/k8s-webhook-server/serving-certs/tls.crt", "Path to the webhook's TLS certificate.")
	fs.StringVar(&tlsKeyPath, "tls-key", "/tmp/k8s-webhook-server/serving-certs/tls.key", "Path to the webhook's TLS key.")
	fs.DurationVar(&tlsReloadDebounce, "tls-reload-debounce", admission.DefaultTLSReloadDebounce, "How long to wait after a certificate file change settles before reloading it.")

	opts := zap.Options{Development: true}
	opts.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		setupLog.Error(err, "parsing webhook flags")
		os.Exit(1)
	}

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))
	logger := ctrl.Log.WithName("admission")

	scheme := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(kaniopv1beta1.AddToScheme(scheme))

	wc, err := client.NewWithWatch(ctrl.GetConfigOrDie(), client.Options{Scheme: scheme})
	if err != nil {
		setupLog.Error(err, "unable to create watch client for object store layer")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The validator only needs to detect duplicate (kanidmRef, name) pairs
	// within each entity kind; it never reads Secrets or the Kanidm CR
	// itself, unlike the Kanidm Client Pool's resolve callback.
	stores, err := kaniopcontext.NewStores(ctx, wc,
		kaniopcontext.StoreGroups, kaniopcontext.StorePersons,
		kaniopcontext.StoreOAuth2, kaniopcontext.StoreSvcAcct,
	)
	if err != nil {
		setupLog.Error(err, "unable to start object store layer")
		os.Exit(1)
	}

	server, err := admission.NewServer(ctx, logger, stores, admission.Config{
		ListenAddress:     listenAddress,
		TLSCertPath:       tlsCertPath,
		TLSKeyPath:        tlsKeyPath,
		TLSReloadDebounce: tlsReloadDebounce,
	})
	if err != nil {
		setupLog.Error(err, "unable to start admission validator")
		os.Exit(1)
	}

	setupLog.Info("starting admission validator", "address", listenAddress)
	if err := server.Run(ctx); err != nil {
		setupLog.Error(err, "problem running admission validator")
		os.Exit(1)
	}
}
