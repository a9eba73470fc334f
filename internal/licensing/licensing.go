// Package licensing exposes the license tier catalog and issues
// license keys for purchased tiers.
package licensing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tier describes one purchasable license level. MaxUsage of -1 means
// unlimited.
type Tier struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	MaxUsage         int     `json:"max_usage"`
	CommercialRights bool    `json:"commercial_rights"`
	ValidityDays     int     `json:"validity_days"`
}

// Tiers is the catalog in display order.
var Tiers = []Tier{
	{ID: "personal", Name: "Personal License", Price: 49.99, MaxUsage: 100, CommercialRights: false, ValidityDays: 365},
	{ID: "commercial", Name: "Commercial License", Price: 199.99, MaxUsage: 500, CommercialRights: true, ValidityDays: 365},
	{ID: "enterprise", Name: "Enterprise License", Price: 999.99, MaxUsage: -1, CommercialRights: true, ValidityDays: 365},
}

// TierByID looks a tier up by its id.
func TierByID(id string) (Tier, bool) {
	for _, t := range Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// Quote is the response to a license inquiry.
type Quote struct {
	Tier       Tier      `json:"tier"`
	LicenseKey string    `json:"license_key"`
	ValidUntil time.Time `json:"valid_until"`
}

// NewQuote issues a key for a tier. The key embeds a checksum over the
// tier, the customer email, and fresh randomness.
func NewQuote(tierID, customerEmail string) (Quote, error) {
	tier, ok := TierByID(tierID)
	if !ok {
		return Quote{}, fmt.Errorf("unknown license tier %q", tierID)
	}
	if !strings.Contains(customerEmail, "@") {
		return Quote{}, fmt.Errorf("invalid customer email")
	}

	now := time.Now().UTC()
	return Quote{
		Tier:       tier,
		LicenseKey: generateKey(tier.ID, customerEmail, now),
		ValidUntil: now.AddDate(0, 0, tier.ValidityDays),
	}, nil
}

func generateKey(tierID, email string, now time.Time) string {
	random := make([]byte, 8)
	rand.Read(random)

	ts := strconv.FormatInt(now.Unix(), 10)
	content := tierID + "_" + email + "_" + ts + "_" + hex.EncodeToString(random)
	sum := sha256.Sum256([]byte(content))
	hash := strings.ToUpper(hex.EncodeToString(sum[:8]))

	prefix := strings.ToUpper(tierID)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return fmt.Sprintf("SSM-%s-%s-%s", prefix, hash, ts[len(ts)-4:])
}
