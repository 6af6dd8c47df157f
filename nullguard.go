package initargs

// NullGuardResult is the outcome of checking whether a value will be
// available at runtime.
type NullGuardResult uint8

const (
	// Passed means a value is available.
	Passed NullGuardResult = iota

	// ValueMissing means neither a literal, a handle nor a service is set.
	ValueMissing

	// ValueProviderValueMissing means a value provider is set but reported
	// no value.
	ValueProviderValueMissing

	// ValueProviderValueNullInEditMode means a value provider reported no
	// value in edit mode, where it may still provide one at runtime.
	ValueProviderValueNullInEditMode

	// InvalidValueProviderState means a value provider is misconfigured.
	InvalidValueProviderState

	// ValueProviderException means a value provider failed or panicked.
	ValueProviderException

	// ClientNotSupported means a value provider refuses the requesting client.
	ClientNotSupported
)

var nullGuardNames = [...]string{
	Passed:                           "Passed",
	ValueMissing:                     "ValueMissing",
	ValueProviderValueMissing:        "ValueProviderValueMissing",
	ValueProviderValueNullInEditMode: "ValueProviderValueNullInEditMode",
	InvalidValueProviderState:        "InvalidValueProviderState",
	ValueProviderException:           "ValueProviderException",
	ClientNotSupported:               "ClientNotSupported",
}

func (r NullGuardResult) String() string {
	if int(r) < len(nullGuardNames) {
		return nullGuardNames[r]
	}
	return "Unknown"
}

// MarshalText encodes the result by name.
func (r NullGuardResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// IsError reports whether the result indicates a misconfiguration rather
// than a value that is missing in edit mode.
func (r NullGuardResult) IsError() bool {
	return r != Passed && r != ValueProviderValueNullInEditMode
}
