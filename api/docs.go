package api

import "address-gateway/middleware/validation"

// Documentação estática servida em GET /convert, GET /batch e GET /docs.

const exampleLegacy = "1BpEi6DfDAUFd7GtittLSdBeYJvcoaVggu"
const exampleCash = "bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a"
const exampleCashNoPrefix = "qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a"

type policyInfo struct {
	Max    int
	Window string
}

func convertDoc(p policyInfo) map[string]any {
	return map[string]any{
		"name":        "BCH Address Conversion API",
		"version":     "1.0.0",
		"endpoint":    "/convert",
		"method":      "POST",
		"description": "Convert BCH addresses between Legacy and CashAddr formats",
		"request": map[string]any{
			"body": map[string]string{
				"address": "string (required) - Legacy or CashAddr format",
			},
		},
		"response": map[string]string{
			"original":           "string - Original input address",
			"originalType":       "string - Original format detected",
			"legacy":             "string - Legacy format (1xxx or 3xxx)",
			"cashAddrWithPrefix": "string - CashAddr with bitcoincash: prefix",
			"cashAddrNoPrefix":   "string - CashAddr without prefix",
			"addressType":        "string - P2PKH or P2SH",
			"success":            "boolean - Whether conversion succeeded",
		},
		"example": map[string]any{
			"request": map[string]string{"address": exampleLegacy},
			"response": map[string]any{
				"original":           exampleLegacy,
				"originalType":       "Legacy Format",
				"legacy":             exampleLegacy,
				"cashAddrWithPrefix": exampleCash,
				"cashAddrNoPrefix":   exampleCashNoPrefix,
				"addressType":        "P2PKH",
				"success":            true,
			},
		},
		"limits": limitsDoc(p, validation.MaxConvertBodyBytes),
	}
}

func batchDoc(p policyInfo) map[string]any {
	return map[string]any{
		"name":        "BCH Address Conversion Batch API",
		"version":     "1.0.0",
		"endpoint":    "/batch",
		"method":      "POST",
		"description": "Batch convert multiple BCH addresses between Legacy and CashAddr formats",
		"request": map[string]any{
			"body": map[string]string{
				"addresses": "string[] (required) - Array of addresses to convert (max 10000)",
			},
		},
		"response": map[string]string{
			"total":      "number - Total number of addresses processed",
			"successful": "number - Number of successful conversions",
			"failed":     "number - Number of failed conversions",
			"results":    "array - Conversion results with index, input, output formats and status",
		},
		"example": map[string]any{
			"request": map[string]any{"addresses": []string{exampleLegacy, "not-an-address"}},
			"response": map[string]any{
				"total":      2,
				"successful": 1,
				"failed":     1,
				"results": []map[string]any{
					{
						"index":              1,
						"input":              exampleLegacy,
						"legacy":             exampleLegacy,
						"cashAddrWithPrefix": exampleCash,
						"cashAddrNoPrefix":   exampleCashNoPrefix,
						"addressType":        "P2PKH",
						"success":            true,
					},
					{
						"index":   2,
						"input":   "not-an-address",
						"success": false,
						"error":   "Invalid address format",
					},
				},
			},
		},
		"limits": limitsDoc(p, validation.MaxBatchBodyBytes),
	}
}

func limitsDoc(p policyInfo, bodyBytes int) map[string]any {
	return map[string]any{
		"maxBatchSize":    validation.MaxBatchItems,
		"maxRequests":     p.Max,
		"window":          p.Window,
		"requestBodySize": bodyBytes,
		"maxAddressChars": validation.MaxAddressLength,
	}
}

func apiDoc(convert, batch policyInfo) map[string]any {
	return map[string]any{
		"name":        "BCH Address Conversion API",
		"version":     "1.0.0",
		"description": "RESTful API for converting Bitcoin Cash addresses between Legacy and CashAddr formats",
		"endpoints":   []map[string]any{convertDoc(convert), batchDoc(batch)},
		"rateLimitHeaders": map[string]string{
			"X-RateLimit-Limit":     "Maximum requests allowed in the window",
			"X-RateLimit-Remaining": "Requests remaining in the current window",
			"X-RateLimit-Reset":     "ISO-8601 UTC time when the window resets",
			"Retry-After":           "Seconds to wait (429 responses only)",
		},
		"errors": map[string]string{
			"400": "Invalid Content-Type, malformed JSON, schema violation or invalid address",
			"405": "Method not allowed (POST and GET only)",
			"413": "Request body too large",
			"429": "Rate limit exceeded",
			"500": "Internal server error",
			"503": "Service temporarily overloaded",
		},
	}
}
