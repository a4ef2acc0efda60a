package stripe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83/webhook"
)

const testSecret = "whsec_test_secret"

func sign(t *testing.T, payload, secret string) ([]byte, string) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return signed.Payload, signed.Header
}

func TestParseEvent_CheckoutCompleted(t *testing.T) {
	body, header := sign(t, `{"id":"evt_1","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_1","customer":"cus_1","subscription":"sub_1",
		"metadata":{"userId":"user-1"},"customer_details":{"email":"a@b.co"}}}}`, testSecret)

	ev, err := ParseEvent(body, header, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	require.NotNil(t, ev.Checkout)
	assert.Equal(t, "cs_1", ev.Checkout.SessionID)
	assert.Equal(t, "user-1", ev.Checkout.UserID)
	assert.Equal(t, "cus_1", ev.Checkout.CustomerID)
	assert.Equal(t, "sub_1", ev.Checkout.SubscriptionID)
	assert.Equal(t, "a@b.co", ev.Checkout.Email)
	assert.Nil(t, ev.Subscription)
}

func TestParseEvent_UserIDFallbacks(t *testing.T) {
	body, header := sign(t, `{"id":"evt_2","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_2","metadata":{"user_id":"snake"}}}}`, testSecret)
	ev, err := ParseEvent(body, header, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "snake", ev.Checkout.UserID)

	body, header = sign(t, `{"id":"evt_3","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_3","client_reference_id":"ref-user"}}}`, testSecret)
	ev, err = ParseEvent(body, header, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "ref-user", ev.Checkout.UserID)
}

func TestParseEvent_SubscriptionDeleted(t *testing.T) {
	body, header := sign(t, `{"id":"evt_4","object":"event","type":"customer.subscription.deleted",
		"data":{"object":{"id":"sub_9","customer":"cus_9","status":"canceled"}}}`, testSecret)

	ev, err := ParseEvent(body, header, testSecret)
	require.NoError(t, err)
	require.NotNil(t, ev.Subscription)
	assert.Equal(t, "sub_9", ev.Subscription.SubscriptionID)
	assert.Equal(t, "canceled", ev.Subscription.Status)
}

func TestParseEvent_UnhandledTypeHasNoObject(t *testing.T) {
	body, header := sign(t, `{"id":"evt_5","object":"event","type":"invoice.paid","data":{"object":{}}}`, testSecret)

	ev, err := ParseEvent(body, header, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "invoice.paid", ev.Type)
	assert.Nil(t, ev.Checkout)
	assert.Nil(t, ev.Subscription)
}

func TestParseEvent_RejectsBadSignature(t *testing.T) {
	body, header := sign(t, `{"id":"evt_6","object":"event","type":"checkout.session.completed","data":{"object":{}}}`, "whsec_other")

	_, err := ParseEvent(body, header, testSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = ParseEvent(body, "", testSecret)
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestParseEvent_RejectsEmptySecret(t *testing.T) {
	body, header := sign(t, `{"id":"evt_7","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_7","metadata":{"userId":"attacker"}}}}`, "")

	ev, err := ParseEvent(body, header, "")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Nil(t, ev)

	_, err = ParseEvent(body, header, "   ")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseEvent_UndecodableObjectIsKeptWithoutObject(t *testing.T) {
	body, header := sign(t, `{"id":"evt_8","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":123,"metadata":"not-a-map"}}}`, testSecret)

	ev, err := ParseEvent(body, header, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_8", ev.ID)
	assert.Nil(t, ev.Checkout)
	assert.ErrorContains(t, ev.DecodeErr, "decode checkout.session")
}
