//go:build !initargs_unchecked

package initargs

// handleValidation makes FromObject and SetObject reject handles that can
// neither be used as nor provide the cell's type.
const handleValidation = true
