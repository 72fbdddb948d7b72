// Package sally is a clinical trial supply management backend for Go.
//
// Sally is opinionated (PostgreSQL + pgvector + pgx), modular, and built
// around a twice-daily operational rhythm: a morning brief before the day
// starts and an evening summary after it ends, with an AI assistant for
// everything in between.
//
// # Key Features
//
//   - Morning briefs and evening summaries composed from live supply data
//     or demo fixtures, persisted by deterministic ID
//   - Q&A assistant with RAG over pgvector and guarded NL-to-SQL execution
//   - Demand forecasting, inventory optimization, shipment risk scoring,
//     enrollment projection, anomaly detection, and waste minimization
//   - Guided operational scenarios and an eight-type report generator
//   - Leader-elected scheduling so one instance generates briefs per day
//   - Hooks for logging and metrics around briefs and assistant answers
//
// # Quick Start
//
// Create a client around a pgx pool and start it:
//
//	pool, _ := pgxpool.New(ctx, os.Getenv("DATABASE_URL"))
//	client, err := sally.NewClient(pool, &sally.ClientConfig{
//	    Mode:          "demo",
//	    RunMigrations: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop(ctx)
//
// Generate a brief and ask a question:
//
//	brief, _ := client.GenerateBrief(ctx, briefing.TypeMorning, time.Now())
//	answer, _ := client.Ask(ctx, qa.AskRequest{Question: "Which sites are low on stock?"})
//
// # Modes
//
// Sally runs in demo mode (deterministic fixtures, no API keys needed) or
// production mode (SQL over the gold_* schema, LLM narration when a
// provider key is configured). The mode can be switched at runtime through
// the settings service and applies to briefs and reports.
//
// # Background Services
//
// Start launches the event bus, leader election, and the scheduled brief
// generator. The elected leader also sweeps expired briefs and assistant
// query log rows on an interval. Stop shuts everything down in reverse
// order and resigns leadership.
//
// # Hooks
//
// Register callbacks around brief generation and question answering:
//
//	logging := hooks.DefaultLoggingHooks()
//	client.Hooks().OnBeforeBrief(logging.BeforeBrief)
//	client.Hooks().OnAfterBrief(logging.AfterBrief)
//	client.Hooks().OnBeforeQuery(logging.BeforeQuery)
//	client.Hooks().OnAfterQuery(logging.AfterQuery)
//
// The ui package serves the dashboard and JSON API over a running client.
package sally
