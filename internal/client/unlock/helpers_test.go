package unlock

import (
	"encoding/json"

	"github.com/dmitrijs2005/legacykeeper/internal/recovery"
)

// jsonPayload is the text a QR scanner would hand back for doc.
func jsonPayload(doc *recovery.Document) ([]byte, error) {
	return json.Marshal(doc.QR)
}
