package admission

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-logr/logr"
	admissionv1 "k8s.io/api/admission/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	kaniopv1beta1 "github.com/kaniop/kaniop/api/v1beta1"
)

// decodeFunc unmarshals an AdmissionRequest's raw object into a concrete
// CR type and runs the Validator's check for that kind.
type decodeFunc func(ctx context.Context, v *Validator, req *admissionv1.AdmissionRequest) error

func groupDecode(ctx context.Context, v *Validator, req *admissionv1.AdmissionRequest) error {
	var obj kaniopv1beta1.KanidmGroup
	if err := json.Unmarshal(req.Object.Raw, &obj); err != nil {
		return err
	}
	return v.ValidateGroup(ctx, &obj)
}

func personDecode(ctx context.Context, v *Validator, req *admissionv1.AdmissionRequest) error {
	var obj kaniopv1beta1.KanidmPersonAccount
	if err := json.Unmarshal(req.Object.Raw, &obj); err != nil {
		return err
	}
	return v.ValidatePerson(ctx, &obj)
}

func oauth2ClientDecode(ctx context.Context, v *Validator, req *admissionv1.AdmissionRequest) error {
	var obj kaniopv1beta1.KanidmOAuth2Client
	if err := json.Unmarshal(req.Object.Raw, &obj); err != nil {
		return err
	}
	return v.ValidateOAuth2Client(ctx, &obj)
}

func serviceAccountDecode(ctx context.Context, v *Validator, req *admissionv1.AdmissionRequest) error {
	var obj kaniopv1beta1.KanidmServiceAccount
	if err := json.Unmarshal(req.Object.Raw, &obj); err != nil {
		return err
	}
	return v.ValidateServiceAccount(ctx, &obj)
}

// handler builds the http.HandlerFunc shared by all four entity paths:
// only CREATE operations are checked (spec §4.7 "duplicate rejection on
// CREATE"), everything else is admitted unconditionally.
func handler(v *Validator, logger logr.Logger, decode decodeFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var review admissionv1.AdmissionReview
		if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
			http.Error(w, "decoding admission review: "+err.Error(), http.StatusBadRequest)
			return
		}
		if review.Request == nil {
			http.Error(w, "admission review has no request", http.StatusBadRequest)
			return
		}

		response := &admissionv1.AdmissionResponse{
			UID:     review.Request.UID,
			Allowed: true,
		}

		if review.Request.Operation == admissionv1.Create {
			if err := decode(r.Context(), v, review.Request); err != nil {
				if _, notReady := err.(NotReadyError); notReady {
					logger.V(1).Info("rejecting admission request while stores are not yet synced", "kind", review.Request.Kind.Kind)
				}
				response.Allowed = false
				response.Result = &metav1.Status{Message: err.Error()}
			}
		}

		writeReview(w, logger, response)
	}
}

func writeReview(w http.ResponseWriter, logger logr.Logger, response *admissionv1.AdmissionResponse) {
	out := admissionv1.AdmissionReview{
		TypeMeta: metav1.TypeMeta{APIVersion: "admission.k8s.io/v1", Kind: "AdmissionReview"},
		Response: response,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		logger.Error(err, "writing admission review response")
	}
}
