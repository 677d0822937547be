package transferin

import (
	"encoding/json"
	"strings"
)

type qrPayload struct {
	TransferNo string `json:"transfer_no"`
	ChallanNo  string `json:"challan_no"`
}

// ParseScanPayload extracts a transfer lookup key from a scanned QR
// code. Labels encode a JSON object carrying transfer_no or challan_no;
// anything that is not JSON is treated as the transfer number typed or
// scanned directly.
func ParseScanPayload(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "{") {
		var payload qrPayload
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			if no := strings.TrimSpace(payload.TransferNo); no != "" {
				return no
			}
			return strings.TrimSpace(payload.ChallanNo)
		}
	}
	return raw
}
