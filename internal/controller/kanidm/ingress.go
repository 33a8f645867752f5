package kanidm

import (
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

// buildIngress constructs the optional Ingress routing to the cluster's
// global Service (spec §4.5 step 5). Returns nil when
// Kanidm.spec.ingress is unset; the caller is responsible for deleting
// any previously-created Ingress in that case.
func buildIngress(kanidm *kaniopv1beta1.Kanidm) *networkingv1.Ingress {
	spec := kanidm.Spec.Ingress
	if spec == nil {
		return nil
	}

	tlsSecret := spec.TLSSecretName
	if tlsSecret == "" {
		tlsSecret = tlsSecretName(kanidm)
	}

	hosts := append([]string{kanidm.Spec.Domain}, spec.ExtraTLSHosts...)

	pathType := networkingv1.PathTypePrefix
	portName := kanidm.Spec.PortName
	if portName == "" {
		portName = "https"
	}

	rules := make([]networkingv1.IngressRule, 0, len(hosts))
	for _, host := range hosts {
		rules = append(rules, networkingv1.IngressRule{
			Host: host,
			IngressRuleValue: networkingv1.IngressRuleValue{
				HTTP: &networkingv1.HTTPIngressRuleValue{
					Paths: []networkingv1.HTTPIngressPath{
						{
							Path:     "/",
							PathType: &pathType,
							Backend: networkingv1.IngressBackend{
								Service: &networkingv1.IngressServiceBackend{
									Name: globalServiceName(kanidm),
									Port: networkingv1.ServiceBackendPort{
										Name:   portName,
										Number: 0,
									},
								},
							},
						},
					},
				},
			},
		})
	}

	return &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{
			Name:        kanidm.Name,
			Namespace:   kanidm.Namespace,
			Labels:      ownedObjectLabels(kanidm),
			Annotations: spec.Annotations,
		},
		Spec: networkingv1.IngressSpec{
			IngressClassName: spec.Class,
			Rules:            rules,
			TLS: []networkingv1.IngressTLS{
				{Hosts: hosts, SecretName: tlsSecret},
			},
		},
	}
}
