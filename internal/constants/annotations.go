package constants

// AnnotationForceRotate, when present on a credential-bearing entity CR,
// forces the next reconcile to rotate its secret regardless of whether
// the remote value has changed or a scheduled rotation is due (spec
// §4.6 step 6b).
const AnnotationForceRotate = "kaniop.rs/force-rotate"
