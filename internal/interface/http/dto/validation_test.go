package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositRequest_Validate(t *testing.T) {
	tests := []struct {
		name       string
		req        DepositRequest
		wantFields map[string]string
	}{
		{
			name: "valid",
			req:  DepositRequest{WalletID: "WAL00001", Amount: 100, PhoneNumber: "0712345678"},
		},
		{
			name: "missing everything",
			req:  DepositRequest{},
			wantFields: map[string]string{
				"wallet_id":    "is required",
				"amount":       "must be greater than 0",
				"phone_number": "is required",
			},
		},
		{
			name: "negative amount",
			req:  DepositRequest{WalletID: "WAL00001", Amount: -5, PhoneNumber: "0712345678"},
			wantFields: map[string]string{
				"amount": "must be greater than 0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantFields, verr.Fields)
		})
	}
}

func TestCardPurchaseRequest_Validate(t *testing.T) {
	err := (&CardPurchaseRequest{WalletID: "WAL00001", PhoneNumber: "0712345678"}).Validate()

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"amount_usd": "must be greater than 0"}, verr.Fields)
	assert.Equal(t, "amount_usd must be greater than 0", verr.Error())
}
