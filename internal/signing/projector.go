package signing

import (
	"github.com/firmaria/docsign/internal/models"
)

// ProjectStatus maps an envelope terminal status onto the owning document's
// status. Applying this projection is the only way a document leaves the
// sent state. The second return value is false for non-terminal statuses.
func ProjectStatus(status models.EnvelopeStatus) (models.DocumentStatus, bool) {
	switch status {
	case models.EnvelopeStatusSigned:
		return models.DocumentStatusSigned, true
	case models.EnvelopeStatusRejected, models.EnvelopeStatusCancelled, models.EnvelopeStatusExpired:
		return models.DocumentStatusCancelled, true
	}
	return "", false
}
