package payment

import "context"

// Intent is the slice of the processor's payment intent the API returns
// to the client: the secret it needs to complete the card flow.
type Intent struct {
	ID           string
	ClientSecret string
}

// IntentCreator requests a synchronous payment intent from the external
// processor. Amounts are minor currency units.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (Intent, error)
}
