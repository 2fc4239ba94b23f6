package internaldefs

import (
	goGate "github.com/MrEthical07/goGate"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   goGate.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for export.
type HistogramDef struct {
	ID   goGate.MetricID
	Name string
	Help string
}

// AuditDroppedName and AuditDroppedHelp describe the dispatcher drop counter,
// which is read from the engine separately from the snapshot.
const (
	AuditDroppedName = "gogate_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

var CounterDefs = []CounterDef{
	{ID: goGate.MetricAuthenticateSuccess, Name: "gogate_authenticate_success_total", Help: "Requests admitted on a valid access credential."},
	{ID: goGate.MetricAuthenticateExpired, Name: "gogate_authenticate_expired_total", Help: "Requests whose access credential had expired."},
	{ID: goGate.MetricAuthenticateFailure, Name: "gogate_authenticate_failure_total", Help: "Requests rejected for a missing or invalid access credential."},
	{ID: goGate.MetricReissueSuccess, Name: "gogate_reissue_success_total", Help: "Successful credential reissues."},
	{ID: goGate.MetricReissueFailure, Name: "gogate_reissue_failure_total", Help: "Failed credential reissues."},
	{ID: goGate.MetricReissueSessionNotFound, Name: "gogate_reissue_session_not_found_total", Help: "Reissues rejected because no session record exists."},
	{ID: goGate.MetricReissueMismatch, Name: "gogate_reissue_mismatch_total", Help: "Reissues rejected because the record holds a different credential."},
	{ID: goGate.MetricLoginSuccess, Name: "gogate_login_success_total", Help: "Completed external logins."},
	{ID: goGate.MetricLoginFailure, Name: "gogate_login_failure_total", Help: "Failed external logins."},
	{ID: goGate.MetricLogout, Name: "gogate_logout_total", Help: "Logout operations."},
	{ID: goGate.MetricStoreUnavailable, Name: "gogate_store_unavailable_total", Help: "Operations failed because the session store was unreachable."},
}

var HistogramDefs = []HistogramDef{
	{ID: goGate.MetricAuthenticateLatency, Name: "gogate_authenticate_latency_seconds", Help: "Access credential validation latency."},
	{ID: goGate.MetricReissueLatency, Name: "gogate_reissue_latency_seconds", Help: "Reissue exchange latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The eighth
// engine bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// NormalizeBuckets pads or truncates raw to the eight engine buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals, so the last
// element is the sample count.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
