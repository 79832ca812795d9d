package payhero

// Status values reported in results produced by the client itself rather
// than the provider.
const (
	StatusError = "ERROR"
)

// Provider transaction states seen on the status endpoint.
const (
	ProviderStatusSuccess   = "SUCCESS"
	ProviderStatusFailed    = "FAILED"
	ProviderStatusCancelled = "CANCELLED"
	ProviderStatusQueued    = "QUEUED"
)

// CallbackStatusSuccess is the inner Status of a successful callback.
const CallbackStatusSuccess = "Success"

type InitiateRequest struct {
	Amount       float64
	PhoneNumber  string
	Reference    string
	CustomerName string
	CallbackURL  string
}

// InitiateResult carries the provider's answer verbatim on a 2xx. Transport
// and decode failures yield Status ERROR, non-2xx answers HTTP_<code>.
// Submitted is set once the request was handed to the transport, after
// which the provider may have acted on it whatever the result says.
type InitiateResult struct {
	Success           bool
	Submitted         bool
	Status            string
	Reference         string
	CheckoutRequestID string
	Message           string
}

// Indeterminate reports a failed initiation whose effect at the provider is
// unknown: the request went out but no clear answer came back (transport
// error, timeout, undecodable 2xx body, 5xx or 408). Such an intent must stay
// PENDING until a callback or status check settles it.
func (r InitiateResult) Indeterminate() bool {
	if r.Success || !r.Submitted {
		return false
	}
	if r.Status == StatusError {
		return true
	}
	code, ok := parseHTTPStatus(r.Status)
	return ok && (code >= 500 || code == 408)
}

type StatusResult struct {
	Success bool
	Status  string
	Data    map[string]any
	Message string
}

// CallbackPayload is the body PayHero posts to the callback URL.
type CallbackPayload struct {
	ForwardURL string           `json:"forward_url"`
	Status     bool             `json:"status"`
	Response   CallbackResponse `json:"response"`
}

type CallbackResponse struct {
	Amount             float64 `json:"Amount"`
	CheckoutRequestID  string  `json:"CheckoutRequestID"`
	ExternalReference  string  `json:"ExternalReference"`
	MerchantRequestID  string  `json:"MerchantRequestID"`
	MpesaReceiptNumber string  `json:"MpesaReceiptNumber"`
	Phone              string  `json:"Phone"`
	ResultCode         int     `json:"ResultCode"`
	ResultDesc         string  `json:"ResultDesc"`
	Status             string  `json:"Status"`
}

type CallbackResult struct {
	Success            bool
	Amount             float64
	Reference          string
	MpesaReceiptNumber string
	Status             string
	ResultCode         int
	ResultDesc         string
	CheckoutRequestID  string
}

type paymentRequest struct {
	Amount            int64  `json:"amount"`
	PhoneNumber       string `json:"phone_number"`
	ChannelID         int    `json:"channel_id"`
	Provider          string `json:"provider"`
	ExternalReference string `json:"external_reference"`
	CustomerName      string `json:"customer_name,omitempty"`
	CallbackURL       string `json:"callback_url,omitempty"`
}

type paymentResponse struct {
	Success           bool   `json:"success"`
	Status            string `json:"status"`
	Reference         string `json:"reference"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	Message           string `json:"message"`
	ErrorMessage      string `json:"error_message"`
}
