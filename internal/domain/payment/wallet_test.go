package payment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/config"
)

func mockWalletConfig(name string) config.WalletProviderConfig {
	return config.WalletProviderConfig{
		APIURL: "https://mock." + name + ".mr",
		APIKey: "mock-" + name + "-key",
	}
}

func TestWalletAdapter_MockLifecycle(t *testing.T) {
	adapter := NewBankilyAdapter(mockWalletConfig("bankily"), time.Second)
	ctx := context.Background()

	intent, err := adapter.CreatePayment(ctx, 11000, "MRU", map[string]string{"userId": "42"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(intent.ID, "bankily_mock_"))
	assert.Equal(t, int64(11000), intent.Amount)
	assert.Equal(t, "MRU", intent.Currency)
	assert.Equal(t, StatusCompleted, intent.Status)
	assert.Equal(t, "42", intent.Metadata["userId"])

	got, err := adapter.GetPayment(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	cancelled, err := adapter.CancelPayment(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
}

func TestWalletAdapter_MockIDsPerProvider(t *testing.T) {
	ctx := context.Background()

	masrifi, err := NewMasrifiAdapter(mockWalletConfig("masrifi"), time.Second).
		CreatePayment(ctx, 100, "MRU", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(masrifi.ID, "masrifi_mock_"))

	sadad, err := NewSadadAdapter(mockWalletConfig("sadad"), time.Second).
		CreatePayment(ctx, 100, "MRU", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sadad.ID, "sadad_mock_"))

	assert.NotEqual(t, masrifi.ID, sadad.ID)
}

func TestNormalizeWalletStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"completed", StatusCompleted},
		{"success", StatusCompleted},
		{"SUCCESS", StatusCompleted},
		{"cancelled", StatusCancelled},
		{"canceled", StatusCancelled},
		{"pending", StatusPending},
		{"processing", StatusPending},
		{"declined", StatusFailed},
		{"", StatusFailed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeWalletStatus(tt.in), "status %q", tt.in)
	}
}

func TestNormalizeStripeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"succeeded", StatusCompleted},
		{"canceled", StatusCancelled},
		{"processing", StatusPending},
		{"requires_payment_method", StatusPending},
		{"requires_confirmation", StatusPending},
		{"requires_action", StatusPending},
		{"requires_capture", StatusPending},
		{"payment_failed", StatusFailed},
		{"", StatusFailed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeStripeStatus(tt.in), "status %q", tt.in)
	}
}

func TestRegistry(t *testing.T) {
	bankily := NewBankilyAdapter(mockWalletConfig("bankily"), time.Second)
	registry := NewRegistry(map[Provider]Adapter{
		ProviderBankily: bankily,
	})

	adapter, err := registry.Resolve(ProviderBankily)
	require.NoError(t, err)
	assert.Same(t, Adapter(bankily), adapter)

	_, err = registry.Resolve(ProviderStripe)
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, err = registry.Resolve(Provider("PAYPAL"))
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestProviderPredicates(t *testing.T) {
	assert.True(t, ProviderCOD.IsSynchronous())
	assert.True(t, ProviderBankily.IsSynchronous())
	assert.True(t, ProviderMasrifi.IsSynchronous())
	assert.True(t, ProviderSadad.IsSynchronous())
	assert.False(t, ProviderStripe.IsSynchronous())

	assert.True(t, ProviderStripe.IsValid())
	assert.False(t, Provider("PAYPAL").IsValid())
	assert.False(t, Provider("stripe").IsValid())
}
