package storage

import "strings"

func normalizeTransactionText(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	// Collapse any repeated whitespace (spaces/tabs/newlines) to a single space.
	return strings.Join(strings.Fields(trimmed), " ")
}

// normalizeMerchant picks the best display name for a transaction's
// counterparty. Monzo's raw description carries terminal noise like
// "TESCO STORES 3212      LONDON  GBR"; the expanded merchant name or the
// peer-to-peer counterparty name is preferred when present.
func normalizeMerchant(merchantName, counterpartyName, description string) string {
	if name := normalizeTransactionText(merchantName); name != "" {
		return name
	}
	if name := normalizeTransactionText(counterpartyName); name != "" {
		return name
	}
	return normalizeDescription(description)
}

func normalizeDescription(description string) string {
	normalized := normalizeTransactionText(description)
	if normalized == "" {
		return ""
	}
	// Card terminals pad location columns with runs of spaces; everything
	// after the first run is location/country noise.
	if idx := strings.Index(description, "  "); idx > 0 {
		head := normalizeTransactionText(description[:idx])
		if head != "" {
			return head
		}
	}
	return normalized
}
