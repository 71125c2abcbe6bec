package email

const (
	subjectQuoteSubmitted        = "New quote received for your service request"
	subjectQuoteAccepted         = "Your quote was accepted"
	subjectQuoteRejected         = "Your quote was not selected"
	subjectEstimateCreated       = "An estimate is ready for your service request"
	subjectEstimateAccepted      = "Estimate accepted"
	subjectEstimateRejected      = "Estimate rejected"
	subjectEstimateExpiryWarnFmt = "Your estimate expires on %s"
	subjectRequestStatusFmt      = "Service request update: %s"
)
