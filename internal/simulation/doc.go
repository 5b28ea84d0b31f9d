// Package simulation runs the full epidemic pipeline: build the contact
// network, seed the initial infections, step the SEIR engine until no node is
// Exposed or Infectious, and derive the summary statistics.
//
// The three phases run strictly in order on one goroutine and consume a single
// random source, so a seeded source reproduces a run exactly.
//
// Usage:
//
//	cfg := config.Default().Simulation
//	res, err := simulation.Run(ctx, cfg, simulation.NewSource(cfg), simulation.Options{
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Report.FinalAttackRate)
package simulation
