package stripe

const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Event is a verified billing webhook reduced to the fields the backend acts on.
// Checkout is set for checkout completions, Subscription for subscription changes.
type Event struct {
	ID           string
	Type         string
	Checkout     *CheckoutCompleted
	Subscription *SubscriptionChange
	// DecodeErr is set when a verified event's object could not be decoded.
	// Such an event carries no object.
	DecodeErr error
}

type CheckoutCompleted struct {
	SessionID      string
	UserID         string
	CustomerID     string
	SubscriptionID string
	Email          string
}

type SubscriptionChange struct {
	SubscriptionID string
	CustomerID     string
	Status         string
}

type CheckoutInput struct {
	PriceID    string
	UserID     string
	Email      string
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// wire shapes of event.data.object

type checkoutSessionObject struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	Customer          string            `json:"customer"`
	CustomerEmail     string            `json:"customer_email"`
	Subscription      string            `json:"subscription"`
	Metadata          map[string]string `json:"metadata"`
	CustomerDetails   *struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

type subscriptionObject struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
}
