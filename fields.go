package initargs

import (
	"fmt"
	"reflect"
)

// FieldReport is the null guard result of one cell field.
type FieldReport struct {
	Field    string
	Type     reflect.Type
	Optional bool
	Result   NullGuardResult
}

// FieldReports is the result of ValidateFields.
type FieldReports []FieldReport

// Failed returns the reports of required fields that did not pass.
func (r FieldReports) Failed() FieldReports {
	var failed FieldReports
	for _, report := range r {
		if report.Result != Passed && !report.Optional {
			failed = append(failed, report)
		}
	}
	return failed
}

// Err returns a *ValidationError listing the failed required fields, or nil.
func (r FieldReports) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, len(failed))
	for i, report := range failed {
		errs[i] = fmt.Errorf("field %s (%v): %s", report.Field, report.Type, report.Result)
	}
	return &ValidationError{Errors: errs}
}

// ValidateFields evaluates the null guard of every exported Any[T] or
// *Any[T] field of the struct target points to. A nil *Any[T] field is
// reported as ValueMissing. If req has no client, target is the client.
//
// Example:
//
//	type Player struct {
//	    Input initargs.Any[Input]
//	    Audio *initargs.Any[Audio] `initargs:"optional"`
//	}
//
//	reports, err := initargs.ValidateFields(&player, initargs.Request{Context: initargs.Validation})
func ValidateFields(target any, req Request) (FieldReports, error) {
	if target == nil {
		return nil, fmt.Errorf("cannot validate nil target")
	}

	value := reflect.ValueOf(target)
	if value.Kind() != reflect.Pointer || value.IsNil() {
		return nil, fmt.Errorf("ValidateFields requires a pointer to struct, got %T", target)
	}

	elem := value.Elem()
	if elem.Kind() != reflect.Struct {
		return nil, fmt.Errorf("ValidateFields requires a pointer to struct, got pointer to %v", elem.Kind())
	}

	if req.Client == nil {
		req.Client = target
	}

	fields := fieldCache.getFieldInfo(elem.Type())
	reports := make(FieldReports, 0, len(fields))

	for _, field := range fields {
		report := FieldReport{Field: field.name, Type: field.typ, Optional: field.optional}

		fieldValue := elem.Field(field.index)
		var checker nullGuardChecker
		if field.pointer {
			if !fieldValue.IsNil() {
				checker = fieldValue.Interface().(nullGuardChecker)
			}
		} else {
			checker = fieldValue.Addr().Interface().(nullGuardChecker)
		}

		if checker == nil {
			report.Result = ValueMissing
		} else {
			report.Result = checker.NullGuardFor(req)
		}
		reports = append(reports, report)
	}

	return reports, nil
}
