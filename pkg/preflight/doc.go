// Package preflight checks that the form, campaign and data-store services a
// sync pipeline depends on are reachable with the configured credentials,
// and samples the shape of their data.
//
// Quick start:
//
//	p, err := preflight.New(preflight.WithEnvFile(".env"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report := p.Check(ctx)
//	for _, r := range report.Results {
//	    fmt.Println(r.Service, r.Success, r.Detail)
//	}
//	if !report.OK() {
//	    os.Exit(1)
//	}
//
// Probes run one after another and never retry. Credentials are read from
// the environment, an optional dotenv file and, when enabled, the OS keyring.
package preflight
