package metrics

const (
	namespaceVRF = "vrf"

	subsystemFulfillment = "fulfillment"
	subsystemScanner     = "scanner"
	subsystemBeacon      = "beacon"
)

const (
	LabelState    = "state"
	LabelResult   = "result"
	LabelEndpoint = "endpoint"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)
