// Package usecase provides the record type tracked by the ucm catalog: an AI use
// case idea with a description, classification fields, an effort/benefit score
// pair and a lifecycle status.
//
// # Defaults
//
// Records built with New or decoded from JSON always have every field populated.
// Absent values fall back to category "general", status "active", priority
// "medium", implementation status "backlog" and an effort/benefit pair of 5/5.
// Tags and examples are never nil.
//
// # Legacy identifiers
//
// Older catalogs stored the identifier under "case_id". Decoding recognises the
// alias and migrates it into the canonical "id" key; encoding only ever writes "id".
//
// # Enum values
//
// Status, Priority and ImplementationStatus are plain string types. Unknown values
// are kept as-is so that data written by other tools round-trips; Known reports
// whether a value is one of the recognised constants.
//
// # Usage Example
//
//	effort, benefit := 3, 8
//	uc := usecase.New(usecase.Fields{
//		Title:                usecase.String("Summarize tickets"),
//		ImplementationEffort: &effort,
//		BusinessBenefit:      &benefit,
//	})
//
//	uc.Update(usecase.Fields{
//		ImplementationStatus: usecase.ImplStatus(usecase.ImplementationImplemented),
//	})
package usecase
