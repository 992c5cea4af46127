/*
Package rillweb is the application layer of a local data-application workbench.

It keeps track of the entity the user is looking at, drives the create-source
and refresh-source workflows against a runtime API and owns the client-side
query cache those workflows invalidate.

# Concept

The runtime owns project files and reconciles them into tables, models and
dashboards. rillweb sits between a front end and that runtime:

  - The Active-Entity Store remembers the focused entity and the one before it.
    Leaving an entity deprioritizes its queued runtime requests.
  - The source orchestrators call the runtime, then navigate, invalidate cached
    queries, record per-file errors and notify the user.
  - The query client caches runtime reads with every automatic refetch and retry
    disabled.

# Usage

	cfg, err := config.Load(config.New(), "", nil)
	if err != nil {
		log.Fatal(err)
	}

	app, err := rillweb.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	app.Start(ctx)
	defer app.Close()

	errs, err := app.CreateSource(ctx, "orders", "type: s3\nuri: s3://bucket/orders.csv\n")

The same App backs the HTTP server, the MCP server and the CLI.
*/
package rillweb
