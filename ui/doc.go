// Package ui provides the embedded web surface for Sally.
//
// NewHandler serves two things from one handler:
//   - the JSON API under /api/ (briefs, assistant, analytics, scenarios,
//     reports, schema, settings, live events)
//   - the SSR dashboard at / (HTMX + Tailwind)
//
// # Quick Start
//
//	pool, _ := pgxpool.New(ctx, os.Getenv("DATABASE_URL"))
//
//	client, _ := sally.NewClient(pool, &sally.ClientConfig{
//	    Provider: "openai",
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	})
//	client.Start(ctx)
//
//	http.ListenAndServe(":8080", ui.NewHandler(client, nil))
//
// # Configuration
//
// The handler accepts an optional Config struct for customization:
//
//	cfg := &ui.Config{
//	    Title:           "Sally TSM (staging)",
//	    ReadOnly:        true,             // Disable generation, ingestion, mode switches
//	    RefreshInterval: 5 * time.Second,
//	    PageSize:        25,
//	}
//
// # Framework Integration
//
// The handler returns standard http.Handler, compatible with any Go framework:
//
//	// Standard library
//	http.Handle("/", ui.NewHandler(client, cfg))
//
//	// Mounted under a prefix
//	http.Handle("/sally/", http.StripPrefix("/sally", ui.NewHandler(client, &ui.Config{BasePath: "/sally"})))
//
//	// Chi
//	r.Mount("/", ui.NewHandler(client, cfg))
//
// # Adding Middleware
//
// Wrap the handler externally using standard Go patterns:
//
//	handler := authMiddleware(loggingMiddleware(ui.NewHandler(client, cfg)))
//	http.Handle("/", handler)
package ui
