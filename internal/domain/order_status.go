package domain

type OrderStatus string

const (
	OrderStatusEvaluation         OrderStatus = "EVALUATION"
	OrderStatusMatching           OrderStatus = "MATCHING"
	OrderStatusPaymentPending     OrderStatus = "PAYMENT_PENDING"
	OrderStatusPaymentCompleted   OrderStatus = "PAYMENT_COMPLETED"
	OrderStatusDocumentsPending   OrderStatus = "DOCUMENTS_PENDING"
	OrderStatusDocumentsSubmitted OrderStatus = "DOCUMENTS_SUBMITTED"
	OrderStatusProcessing         OrderStatus = "PROCESSING"
	OrderStatusCompleted          OrderStatus = "COMPLETED"
	OrderStatusCancelled          OrderStatus = "CANCELLED"
	OrderStatusFailed             OrderStatus = "FAILED"
)

// Timeline keys. Each transition stamps a fixed set of them.
const (
	TimelineEvaluationStarted   = "evaluationStarted"
	TimelineEvaluationCompleted = "evaluationCompleted"
	TimelineMatchingStarted     = "matchingStarted"
	TimelineMatchingCompleted   = "matchingCompleted"
	TimelinePaymentRequested    = "paymentRequested"
	TimelinePaymentCompleted    = "paymentCompleted"
	TimelineDocumentsRequested  = "documentsRequested"
	TimelineDocumentsSubmitted  = "documentsSubmitted"
	TimelineProcessingStarted   = "processingStarted"
	TimelineCompleted           = "completed"
	TimelineCancelled           = "cancelled"
	TimelineFailed              = "failed"
)

type transition struct {
	next   OrderStatus
	stamps []string
}

var transitions = map[OrderStatus]transition{
	OrderStatusEvaluation:         {next: OrderStatusMatching, stamps: []string{TimelineEvaluationCompleted, TimelineMatchingStarted}},
	OrderStatusMatching:           {next: OrderStatusPaymentPending, stamps: []string{TimelineMatchingCompleted, TimelinePaymentRequested}},
	OrderStatusPaymentPending:     {next: OrderStatusPaymentCompleted, stamps: []string{TimelinePaymentCompleted}},
	OrderStatusPaymentCompleted:   {next: OrderStatusDocumentsPending, stamps: []string{TimelineDocumentsRequested}},
	OrderStatusDocumentsPending:   {next: OrderStatusDocumentsSubmitted, stamps: []string{TimelineDocumentsSubmitted}},
	OrderStatusDocumentsSubmitted: {next: OrderStatusProcessing, stamps: []string{TimelineProcessingStarted}},
	OrderStatusProcessing:         {next: OrderStatusCompleted, stamps: []string{TimelineCompleted}},
}

var progressByStatus = map[OrderStatus]int{
	OrderStatusEvaluation:         10,
	OrderStatusMatching:           25,
	OrderStatusPaymentPending:     35,
	OrderStatusPaymentCompleted:   50,
	OrderStatusDocumentsPending:   60,
	OrderStatusDocumentsSubmitted: 75,
	OrderStatusProcessing:         90,
	OrderStatusCompleted:          100,
	OrderStatusCancelled:          0,
	OrderStatusFailed:             0,
}

// Successor returns the next stage in the fixed sequence.
func (s OrderStatus) Successor() (OrderStatus, bool) {
	t, ok := transitions[s]
	return t.next, ok
}

// TransitionStamps returns the timeline keys stamped when leaving s.
func (s OrderStatus) TransitionStamps() []string {
	t, ok := transitions[s]
	if !ok {
		return nil
	}
	out := make([]string, len(t.stamps))
	copy(out, t.stamps)
	return out
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusFailed
}

func (s OrderStatus) IsValid() bool {
	_, ok := progressByStatus[s]
	return ok
}

func (s OrderStatus) ProgressPercentage() int {
	return progressByStatus[s]
}

func (s OrderStatus) String() string {
	return string(s)
}
