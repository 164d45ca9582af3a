// Package metrics provides application-level counters using stdlib expvar.
// expvar registers a /debug/vars handler on http.DefaultServeMux at init;
// the serve command's API runs on its own mux, so the counters are only
// exposed over HTTP if a binary serves the default mux.
package metrics

import "expvar"

// Operation counters.
var (
	CustomersCreated = expvar.NewInt("daicho_customers_created_total")
	CustomersUpdated = expvar.NewInt("daicho_customers_updated_total")
	CustomersDeleted = expvar.NewInt("daicho_customers_deleted_total")
	HistoryLogged    = expvar.NewInt("daicho_history_logged_total")
	HistoryUpdated   = expvar.NewInt("daicho_history_updated_total")
	HistoryDeleted   = expvar.NewInt("daicho_history_deleted_total")
	SyncFailures     = expvar.NewInt("daicho_sync_failures_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }
