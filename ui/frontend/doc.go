// Package frontend provides SSR frontend handlers for the Sally control panel.
//
// The frontend uses HTMX for interactivity and Tailwind CSS for styling,
// both loaded via CDN for simplicity.
//
// # Routes
//
// Main Pages:
//   - GET / - Redirect to overview
//   - GET /overview - Supply chain overview with live stats
//   - GET /briefs - Morning brief and evening summary
//   - GET /settings - Mode, providers, schema, and vector store
//
// Assistant:
//   - GET /chat - Assistant interface with query history
//   - POST /chat/send - Ask a question (HTMX)
//
// HTMX Fragments:
//   - GET /fragments/stats - Overview stat cards for auto-refresh
//
// Static Assets:
//   - GET /static/* - Embedded static files (JS, CSS)
package frontend
