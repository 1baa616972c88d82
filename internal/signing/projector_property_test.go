package signing

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/firmaria/docsign/internal/models"
)

func genEnvelopeStatus() gopter.Gen {
	return gen.OneConstOf(
		models.EnvelopeStatusPending,
		models.EnvelopeStatusSigned,
		models.EnvelopeStatusRejected,
		models.EnvelopeStatusCancelled,
		models.EnvelopeStatusExpired,
	)
}

func genTerminalStatus() gopter.Gen {
	return gen.OneConstOf(
		models.EnvelopeStatusSigned,
		models.EnvelopeStatusRejected,
		models.EnvelopeStatusCancelled,
		models.EnvelopeStatusExpired,
	)
}

func TestProjectorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("projection exists exactly for terminal statuses", prop.ForAll(
		func(status models.EnvelopeStatus) bool {
			_, ok := ProjectStatus(status)
			return ok == status.Terminal()
		},
		genEnvelopeStatus(),
	))

	properties.Property("projection is deterministic", prop.ForAll(
		func(status models.EnvelopeStatus) bool {
			first, okFirst := ProjectStatus(status)
			second, okSecond := ProjectStatus(status)
			return first == second && okFirst == okSecond
		},
		genEnvelopeStatus(),
	))

	properties.Property("only a fully signed envelope yields a signed document", prop.ForAll(
		func(status models.EnvelopeStatus) bool {
			docStatus, ok := ProjectStatus(status)
			if !ok {
				return true
			}
			if status == models.EnvelopeStatusSigned {
				return docStatus == models.DocumentStatusSigned
			}
			return docStatus == models.DocumentStatusCancelled
		},
		genTerminalStatus(),
	))

	properties.TestingRun(t)
}

func TestTerminalStatusesBlockNothing(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	// Only pending and signed envelopes block a new envelope for the document.
	properties.Property("active iff pending or signed", prop.ForAll(
		func(status models.EnvelopeStatus) bool {
			env := &models.Envelope{Status: status}
			want := status == models.EnvelopeStatusPending || status == models.EnvelopeStatusSigned
			return env.Active() == want
		},
		genEnvelopeStatus(),
	))

	properties.TestingRun(t)
}
