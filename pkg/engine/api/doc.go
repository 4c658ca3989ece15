// Package api implements the stub server's admin API.
//
// All routes are mounted under /__admin and exchange JSON, except the
// Prometheus text served by /__admin/metrics:
//
//	GET    /__admin/health              server status
//	GET    /__admin/metrics             request and registry metrics
//	GET    /__admin/mappings            list stubs, most recent first
//	POST   /__admin/mappings            register a stub
//	DELETE /__admin/mappings            remove every stub
//	GET    /__admin/mappings/{id}       fetch a stub
//	PUT    /__admin/mappings/{id}       replace a stub
//	DELETE /__admin/mappings/{id}       remove a stub
//	POST   /__admin/mappings/reset      restore the stubs of the mapping files
//	POST   /__admin/mappings/import     register many stubs (JSON or YAML)
//	GET    /__admin/requests            list journaled requests
//	DELETE /__admin/requests            clear the journal
//	GET    /__admin/requests/unmatched  list requests no stub answered
//	GET    /__admin/requests/{id}       fetch a journaled request
//	POST   /__admin/requests/count      count requests matching a pattern
//	POST   /__admin/requests/find       list requests matching a pattern
//	POST   /__admin/reset               clear the journal and restore stubs
//
// Errors are returned as {"error": code, "message": text}.
package api
