package mail

type MailType string

const (
	RequestReceived   MailType = "RequestReceived"
	ReviewRequested   MailType = "ReviewRequested"
	PaidWelcome       MailType = "PaidWelcome"
	RevisionDelivered MailType = "RevisionDelivered"
	GenerationFailed  MailType = "GenerationFailed"
)

type MailData interface {
	GetMailType() MailType
	GetSubject() string
	// OperatorFacing mails go to the review inbox, not the customer.
	OperatorFacing() bool
}

type RequestReceivedData struct {
	BusinessName string
	RequestText  string
	Year         string
}

func (d RequestReceivedData) GetMailType() MailType {
	return RequestReceived
}

func (d RequestReceivedData) GetSubject() string {
	return "We received your website request"
}

func (d RequestReceivedData) OperatorFacing() bool {
	return false
}

type ReviewRequestedData struct {
	BusinessName string
	CustomerID   string
	RequestID    uint64
	RequestText  string
	ReviewURL    string
}

func (d ReviewRequestedData) GetMailType() MailType {
	return ReviewRequested
}

func (d ReviewRequestedData) GetSubject() string {
	return "A generated website is awaiting review"
}

func (d ReviewRequestedData) OperatorFacing() bool {
	return true
}

type PaidWelcomeData struct {
	BusinessName string
	SiteURL      string
	RevisionURL  string
	Year         string
}

func (d PaidWelcomeData) GetMailType() MailType {
	return PaidWelcome
}

func (d PaidWelcomeData) GetSubject() string {
	return "Welcome! Your new website is live"
}

func (d PaidWelcomeData) OperatorFacing() bool {
	return false
}

type RevisionDeliveredData struct {
	BusinessName string
	SiteURL      string
	Year         string
}

func (d RevisionDeliveredData) GetMailType() MailType {
	return RevisionDelivered
}

func (d RevisionDeliveredData) GetSubject() string {
	return "Your updated website is ready"
}

func (d RevisionDeliveredData) OperatorFacing() bool {
	return false
}

type GenerationFailedData struct {
	BusinessName string
	CustomerID   string
	RequestID    uint64
	RequestText  string
	Error        string
}

func (d GenerationFailedData) GetMailType() MailType {
	return GenerationFailed
}

func (d GenerationFailedData) GetSubject() string {
	return "Website generation failed"
}

func (d GenerationFailedData) OperatorFacing() bool {
	return true
}
