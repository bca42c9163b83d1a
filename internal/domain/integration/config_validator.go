package integration

import (
	"fmt"
	"strings"
)

// ValidationResult is the outcome of a config check
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ConfigValidationError carries the missing-field messages of a rejected config
type ConfigValidationError struct {
	Errors []string
}

// Error implements the error interface
func (e *ConfigValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Errors, "; ")
}

// requiredKeys lists mandatory config keys per provider type.
// FIGMA is handled separately because either of two keys satisfies it.
var requiredKeys = map[ProviderType][]string{
	ProviderGoogleAnalytics: {"propertyId", "credentials"},
	ProviderHotjar:          {"siteId", "accessToken"},
	ProviderPowerBI:         {"workspaceId", "datasetId", "credentials"},
	ProviderMixpanel:        {"projectId", "apiSecret"},
	ProviderAmplitude:       {"apiKey", "secretKey"},
	ProviderCustom:          {"endpoint", "method", "auth"},
}

// ConfigValidator checks that a config carries the keys its provider requires.
// It checks presence only: no type coercion and no network calls.
type ConfigValidator struct{}

// NewConfigValidator creates a ConfigValidator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// Validate returns the missing-field messages for config under providerType
func (v *ConfigValidator) Validate(providerType ProviderType, config Config) ValidationResult {
	errs := make([]string, 0)

	switch {
	case providerType == ProviderFigma:
		if !config.Has("accessToken") && !config.Has("fileUrl") {
			errs = append(errs, "Figma requires either accessToken or fileUrl")
		}
	case providerType.IsValid():
		for _, key := range requiredKeys[providerType] {
			if !config.Has(key) {
				errs = append(errs, fmt.Sprintf("%s requires %s", providerType.DisplayName(), key))
			}
		}
	default:
		errs = append(errs, fmt.Sprintf("Unsupported integration type: %s", providerType))
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Check is Validate returning a *ConfigValidationError when the config is rejected
func (v *ConfigValidator) Check(providerType ProviderType, config Config) error {
	result := v.Validate(providerType, config)
	if result.Valid {
		return nil
	}
	return &ConfigValidationError{Errors: result.Errors}
}

// RequiredKeys returns the mandatory keys for a provider type
func RequiredKeys(providerType ProviderType) []string {
	if providerType == ProviderFigma {
		return []string{"accessToken|fileUrl"}
	}
	keys := requiredKeys[providerType]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}
