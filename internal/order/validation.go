package order

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/VedantBankewar/payment-gateway/internal/domain"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// validateShipping rejects the checkout form before any state mutation.
// All fields are required; email and phone must be well formed.
func validateShipping(info domain.ShippingInfo) error {
	fields := []struct {
		name  string
		value string
	}{
		{"customer_name", info.CustomerName},
		{"customer_email", info.CustomerEmail},
		{"customer_phone", info.CustomerPhone},
		{"shipping_address", info.Address},
		{"city", info.City},
		{"pincode", info.Pincode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidShippingInfo, f.name)
		}
	}

	if !emailPattern.MatchString(info.CustomerEmail) {
		return fmt.Errorf("%w: malformed email", ErrInvalidShippingInfo)
	}

	phone := strings.NewReplacer(" ", "", "-", "").Replace(info.CustomerPhone)
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("%w: malformed phone", ErrInvalidShippingInfo)
	}

	return nil
}
