// Package core provides the business logic of the Salvation Ministries
// admin console.
//
// This package contains the domain logic independent of any UI or
// transport layer. Web handlers and tests use it without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Resource Definitions: registered via the registry, each backend
//     resource has field specs, list columns, filters and its endpoint
//     catalog entry.
//   - Service: the entry point for all operations (list, view, export,
//     create, update, delete, finance totals, dashboard).
//   - Cache: collections are read through the remote resource cache and
//     invalidated after each confirmed mutation.
//   - Audit: every successful mutation is recorded.
//
// # Resource Registry
//
// Resources are registered at init time using [Register]:
//
//	core.Register(ResourceDefinition{
//	    Info: ResourceInfo{Key: "offerings", Group: session.GroupFinance, Label: "Offerings"},
//	    Fields: []FieldSpec{
//	        {Name: "amount", Type: FieldMoney, Sortable: true, Editable: true},
//	    },
//	    Endpoints: Endpoints{List: api.List("/all-offering", "offerings")},
//	})
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - API001-API006: backend errors (session, access, shape, availability)
//   - VAL001-VAL005: form validation errors
//   - ACT001-ACT003: action errors (unconfirmed delete, role, unsupported)
//   - REQ001-REQ002: cancelled and timed out requests
//
// # Audit Logging
//
// Mutations are recorded with severity levels:
//
//   - Low: creates
//   - Medium: updates
//   - High: deletes, and any finance change
//   - Critical: finance deletes
//
// Entries older than the retention window are purged by
// [Service.StartRetentionScheduler].
package core
