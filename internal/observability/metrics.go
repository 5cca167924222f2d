package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MOrdersPlaced            MetricKey = "orders_placed_total"
	MCheckoutRollbacks       MetricKey = "checkout_rollbacks_total"
)

// MetricSpec describes how a metric key is registered with a backend.
type MetricSpec struct {
	Key    MetricKey
	Help   string
	Labels []string
	// Buckets applies to histograms only. Empty means the backend default.
	Buckets []float64
}

// CounterSpecs lists every counter the service emits.
var CounterSpecs = []MetricSpec{
	{Key: MUsecaseRequests, Help: "Total number of use case invocations.", Labels: []string{"use_case", "outcome"}},
	{Key: MHTTPRequests, Help: "Total number of HTTP requests.", Labels: []string{"method", "route", "status"}},
	{Key: MExternalRequests, Help: "Total number of calls to external peers.", Labels: []string{"peer", "endpoint", "outcome"}},
	{Key: MOrdersPlaced, Help: "Orders successfully placed.", Labels: []string{"payment_method"}},
	{Key: MCheckoutRollbacks, Help: "Checkout commits rolled back.", Labels: []string{"reason"}},
}

// HistogramSpecs lists every histogram the service emits.
var HistogramSpecs = []MetricSpec{
	{Key: MUsecaseDuration, Help: "Duration of use case execution in seconds.", Labels: []string{"use_case"}},
	{Key: MHTTPRequestDuration, Help: "Duration of HTTP requests in seconds.", Labels: []string{"method", "route", "status"}},
	{
		Key:     MExternalRequestDuration,
		Help:    "Duration of external calls in seconds.",
		Labels:  []string{"peer", "endpoint"},
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .2, .3, .5},
	},
}
