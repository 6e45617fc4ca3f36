package constants

import "errors"

// Configuration errors.
var (
	ErrNoTokenConfigured  = errors.New("GitHub token is required (--token or GHEXTRACT_TOKEN)")
	ErrEnterpriseRequired = errors.New("enterprise name is required (--enterprise or audit.enterprise)")
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
)

// Validation errors.
var (
	ErrNothingSelected = errors.New("no repositories selected")
)
