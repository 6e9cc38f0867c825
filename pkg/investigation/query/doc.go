// Package query validates and executes read requests against the
// investigation store. Tenant scoping is enforced here, before any storage
// access: a query without tenant_id is rejected unless the caller holds
// administrative scope.
package query
