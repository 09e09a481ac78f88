package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the deploy-and-verify pipeline
var (
	// ErrArtifactNotFound is returned when the build artifact cannot be read
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrArtifactMalformed is returned when the artifact lacks a usable abi or bytecode
	ErrArtifactMalformed = errors.New("artifact malformed")

	// ErrMissingCredential is returned when no signing key is configured
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidCredential is returned when the signing key cannot be parsed
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrInvalidEndpoint is returned when the RPC URL is absent or malformed
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrInvalidQualifiedName is returned when a contract name is not in path:Name form
	ErrInvalidQualifiedName = errors.New("invalid qualified name")

	// ErrInvalidConstructorArgs is returned when constructor args don't match the ABI
	ErrInvalidConstructorArgs = errors.New("invalid constructor arguments")

	// ErrVerifierNotConfigured is returned when the verification service lacks account settings
	ErrVerifierNotConfigured = errors.New("verifier not configured")

	// ErrDeploymentCancelled is returned when the operator declines the broadcast
	ErrDeploymentCancelled = errors.New("deployment cancelled")

	// ErrSubmissionFailed is returned when the network rejects the creation transaction
	ErrSubmissionFailed = errors.New("submission failed")

	// ErrConfirmationFailed is returned when the transaction never confirms successfully
	ErrConfirmationFailed = errors.New("confirmation failed")

	// ErrNoDeployment is returned when verification is requested without a confirmed deployment
	ErrNoDeployment = errors.New("no confirmed deployment")

	// ErrVerificationRejected is returned when the service reports the contract as unmatched
	ErrVerificationRejected = errors.New("verification rejected")

	// ErrVerificationUnavailable is returned when the service is unreachable or failing
	ErrVerificationUnavailable = errors.New("verification service unavailable")
)

// ErrorClass groups pipeline errors by the stage that produced them
type ErrorClass string

const (
	ClassNone          ErrorClass = ""
	ClassConfiguration ErrorClass = "configuration"
	ClassDeployment    ErrorClass = "deployment"
	ClassVerification  ErrorClass = "verification"
	ClassUnknown       ErrorClass = "unknown"
)

var errorClasses = map[ErrorClass][]error{
	ClassConfiguration: {
		ErrArtifactNotFound,
		ErrArtifactMalformed,
		ErrMissingCredential,
		ErrInvalidCredential,
		ErrInvalidEndpoint,
		ErrInvalidQualifiedName,
		ErrInvalidConstructorArgs,
		ErrVerifierNotConfigured,
		ErrDeploymentCancelled,
	},
	ClassDeployment: {
		ErrSubmissionFailed,
		ErrConfirmationFailed,
	},
	ClassVerification: {
		ErrNoDeployment,
		ErrVerificationRejected,
		ErrVerificationUnavailable,
	},
}

// ClassOf reports which stage an error belongs to
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	for class, sentinels := range errorClasses {
		for _, sentinel := range sentinels {
			if errors.Is(err, sentinel) {
				return class
			}
		}
	}
	return ClassUnknown
}

// AmbiguousArtifactErr is returned when a contract name matches several artifacts
type AmbiguousArtifactErr struct {
	Reference  string
	Candidates []string
}

func (e AmbiguousArtifactErr) Error() string {
	sorted := make([]string, len(e.Candidates))
	copy(sorted, e.Candidates)
	sort.Strings(sorted)

	var lines []string
	for _, c := range sorted {
		lines = append(lines, "  - "+c)
	}

	return fmt.Sprintf("multiple artifacts found matching %q - pass the artifact path to disambiguate:\n%s",
		e.Reference, strings.Join(lines, "\n"))
}

func (e AmbiguousArtifactErr) Unwrap() error {
	return ErrArtifactNotFound
}
