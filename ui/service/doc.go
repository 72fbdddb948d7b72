// Package service provides the shared business logic for the Sally web surface.
//
// The service layer is HTTP-agnostic and used by both the REST API and
// SSR frontend handlers. This ensures consistency and avoids duplication.
//
// # Usage
//
//	svc := service.New(client)
//
//	// KPI block for the overview page
//	stats, err := svc.GetDashboardStats(ctx)
//
//	// Today's morning brief, stored copy first
//	brief, err := svc.Brief(ctx, briefing.TypeMorning, day, "")
//
//	// Recent briefs flattened for list rendering
//	history, err := svc.BriefHistory(ctx, 25)
//
// # Design
//
// The service layer:
//   - Reads through the client's domain services and storage.Store
//   - Returns DTOs (Data Transfer Objects) optimized for UI display
//   - Handles pagination bounds and date parsing
//   - Never writes; mutations go through the client so hooks and events fire
package service
