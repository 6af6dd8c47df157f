//go:build initargs_unchecked

package initargs

// handleValidation is disabled in unchecked builds; any handle is stored.
const handleValidation = false
